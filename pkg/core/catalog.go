package core

import (
	"context"
	"strings"
)

// TableKind is the kind of catalog object a path resolves to.
type TableKind string

// Table kind constants.
const (
	TableKindTable  TableKind = "table"
	TableKindView   TableKind = "view"
	TableKindSystem TableKind = "system_table"
)

// TableFormat is the storage format of a table.
type TableFormat string

// Table format constants.
const (
	FormatIceberg TableFormat = "iceberg"
	FormatNative  TableFormat = "native"
	FormatParquet TableFormat = "parquet"
	FormatCSV     TableFormat = "csv"
)

// Privilege is an access right on a catalog path.
type Privilege string

// Privilege constants.
const (
	PrivilegeInsert Privilege = "insert"
	PrivilegeSelect Privilege = "select"
)

// Column is a column in a resolved table schema.
type Column struct {
	Name      string
	Type      string
	Partition bool
}

// ResolvedTarget is the catalog's answer to "what does this path refer to
// right now". It is owned by a single planning call and never cached.
type ResolvedTarget struct {
	Path    TablePath
	Source  string
	Kind    TableKind
	Format  TableFormat
	Columns []Column
}

// Mutable reports whether the object accepts writes.
func (t *ResolvedTarget) Mutable() bool {
	return t != nil && t.Kind == TableKindTable
}

// PartitionColumns returns the partition column names in schema order.
func (t *ResolvedTarget) PartitionColumns() []string {
	if t == nil {
		return nil
	}
	var cols []string
	for _, c := range t.Columns {
		if c.Partition {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// Column looks up a column by name, case-insensitively.
func (t *ResolvedTarget) Column(name string) (Column, bool) {
	if t == nil {
		return Column{}, false
	}
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// Catalog is the query surface the planning pipeline consumes.
// Implementations must not cache answers across calls.
type Catalog interface {
	// ResolveTarget resolves a path against the catalog's default view.
	// It returns nil, nil when nothing exists at the path.
	ResolveTarget(ctx context.Context, path TablePath) (*ResolvedTarget, error)

	// SupportsVersioning reports whether the source owning path
	// supports version-controlled tables.
	SupportsVersioning(path TablePath) bool

	// ResolveVersion turns a session version intent into a concrete
	// point-in-time reference for the named source.
	ResolveVersion(ctx context.Context, source string, vc VersionContext) (*ResolvedVersionContext, error)

	// TargetAt resolves a path at a specific resolved version.
	// It returns nil, nil when the path does not exist at that version.
	TargetAt(ctx context.Context, path TablePath, version *ResolvedVersionContext) (*ResolvedTarget, error)

	// ValidatePrivilege fails unless user holds privilege on path.
	ValidatePrivilege(ctx context.Context, user string, path TablePath, privilege Privilege) error
}
