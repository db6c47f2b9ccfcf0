// Package versioning provides the version-counter contract the metadata
// store uses for optimistic concurrency on stored records.
package versioning

import "github.com/leapstack-labs/leapdml/pkg/core"

// Extractor reads and writes the version counter of a record type.
// A nil version means the record was never persisted.
type Extractor[T any] interface {
	GetVersion(r *T) *int64
	// IncrementVersion returns the version read before mutation and sets
	// the counter to 0 when it was nil, else to previous+1.
	IncrementVersion(r *T) *int64
	SetVersion(r *T, v *int64)
}

// Func builds an Extractor from a field accessor.
type Func[T any] func(r *T) **int64

// GetVersion implements Extractor.
func (f Func[T]) GetVersion(r *T) *int64 {
	return *f(r)
}

// IncrementVersion implements Extractor.
func (f Func[T]) IncrementVersion(r *T) *int64 {
	prev := f.GetVersion(r)
	next := int64(0)
	if prev != nil {
		next = *prev + 1
	}
	f.SetVersion(r, &next)
	return prev
}

// SetVersion implements Extractor.
func (f Func[T]) SetVersion(r *T, v *int64) {
	if v == nil {
		*f(r) = nil
		return
	}
	n := *v
	*f(r) = &n
}

// Splits is the extractor for dataset split records.
var Splits Extractor[core.DatasetSplit] = Func[core.DatasetSplit](func(s *core.DatasetSplit) **int64 {
	return &s.Version
})

// References is the extractor for branch and tag heads.
var References Extractor[core.Reference] = Func[core.Reference](func(r *core.Reference) **int64 {
	return &r.Version
})

// Stamped pairs a record ready to be written with the version the store
// must still hold for the write to commit.
type Stamped[T any] struct {
	Record T
	// Expected is the compare-and-swap token; nil means "must not exist".
	Expected *int64
}

// Next returns the version the record carries after a successful commit.
func (s Stamped[T]) Next() int64 {
	if s.Expected == nil {
		return 0
	}
	return *s.Expected + 1
}

// Stamp increments a copy of r and returns it with the expected version.
// r itself is left untouched; reconcile it with SetVersion once the store
// confirms the commit.
func Stamp[T any](ext Extractor[T], r *T) Stamped[T] {
	cp := *r
	prev := ext.IncrementVersion(&cp)
	return Stamped[T]{Record: cp, Expected: prev}
}

// Ptr returns a pointer to v.
func Ptr(v int64) *int64 {
	return &v
}
