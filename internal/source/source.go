// Package source defines the data sources a catalog is assembled from and
// the registry their implementations add themselves to.
//
// Concrete sources live in subpackages. Import them with a blank
// identifier to register them:
//
//	import _ "github.com/leapstack-labs/leapdml/internal/source/postgres"
package source

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapdml/pkg/core"
)

// Source answers metadata questions about the tables it owns. Paths passed
// to a source are full catalog paths; the first segment is the source name.
type Source interface {
	// Name returns the configured source name, the root of its paths.
	Name() string

	// Type returns the registered source type.
	Type() string

	// SupportsVersioning reports whether tables of this source have
	// addressable history.
	SupportsVersioning() bool

	// Open connects the source using its configuration.
	Open(ctx context.Context, cfg Config) error

	// Lookup resolves a table against the source's current state.
	// It returns nil, nil when nothing exists at path.
	Lookup(ctx context.Context, path core.TablePath) (*core.ResolvedTarget, error)

	// Ping checks that the source is reachable.
	Ping(ctx context.Context) error

	// Close releases the source's resources.
	Close() error
}

// VersionedSource is a source whose tables are version controlled.
type VersionedSource interface {
	Source

	// ResolveVersion turns a version intent into a concrete reference.
	ResolveVersion(ctx context.Context, vc core.VersionContext) (*core.ResolvedVersionContext, error)

	// LookupAt resolves a table at a resolved version.
	// It returns nil, nil when the table does not exist at that version.
	LookupAt(ctx context.Context, path core.TablePath, version *core.ResolvedVersionContext) (*core.ResolvedTarget, error)
}

// MetadataStore is the history a versioned source reads from.
type MetadataStore interface {
	InitSource(ctx context.Context, source, defaultBranch string) error
	GetRef(ctx context.Context, source, name string) (*core.Reference, error)
	GetCommit(ctx context.Context, source, hash string) (*core.CommitInfo, error)
	TableAt(ctx context.Context, source, commit string, path core.TablePath) (*core.TableDef, error)
	Ping(ctx context.Context) error
}

// Deps are the shared services handed to every source factory.
type Deps struct {
	Logger *slog.Logger
	// Store is required by versioned sources only.
	Store MetadataStore
}

// ToTarget converts a stored table definition into a resolved target owned
// by source.
func ToTarget(source string, def *core.TableDef) *core.ResolvedTarget {
	if def == nil {
		return nil
	}
	cols := make([]core.Column, len(def.Columns))
	copy(cols, def.Columns)
	return &core.ResolvedTarget{
		Path:    def.Path,
		Source:  source,
		Kind:    def.Kind,
		Format:  def.Format,
		Columns: cols,
	}
}
