// Package lakehouse provides a versioned source. Its branches, tags and
// per-commit table definitions live in the metadata store.
package lakehouse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/internal/source"
	"github.com/leapstack-labs/leapdml/pkg/core"
)

// TypeName is the registered source type.
const TypeName = "lakehouse"

// DefaultBranch is used when the source config names none.
const DefaultBranch = "main"

func init() {
	source.Register(TypeName, func(deps source.Deps) source.Source { return New(deps.Store, deps.Logger) })
}

// Source implements source.VersionedSource over a metadata store.
type Source struct {
	name          string
	defaultBranch string
	store         source.MetadataStore
	logger        *slog.Logger
}

// New creates a new lakehouse source instance.
// If logger is nil, a discard logger is used.
func New(store source.MetadataStore, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{store: store, logger: logger}
}

// Name returns the configured source name.
func (s *Source) Name() string { return s.name }

// Type returns the registered source type.
func (s *Source) Type() string { return TypeName }

// SupportsVersioning reports true.
func (s *Source) SupportsVersioning() bool { return true }

// DefaultBranch returns the branch used when no version is requested.
func (s *Source) DefaultBranch() string { return s.defaultBranch }

// Open initializes the source's history in the store if needed.
func (s *Source) Open(ctx context.Context, cfg source.Config) error {
	if s.store == nil {
		return fmt.Errorf("lakehouse source %s requires a metadata store", cfg.Name)
	}

	branch := cfg.DefaultBranch
	if branch == "" {
		branch = DefaultBranch
	}
	if err := s.store.InitSource(ctx, cfg.Name, branch); err != nil {
		return fmt.Errorf("failed to initialize lakehouse source %s: %w", cfg.Name, err)
	}

	s.name = cfg.Name
	s.defaultBranch = branch
	return nil
}

// ResolveVersion resolves a version intent against the store. An
// unspecified version resolves to the head of the default branch.
func (s *Source) ResolveVersion(ctx context.Context, vc core.VersionContext) (*core.ResolvedVersionContext, error) {
	switch vc.Type {
	case core.VersionNotSpecified, "":
		return s.resolveRef(ctx, core.VersionBranch, s.defaultBranch)
	case core.VersionBranch, core.VersionTag:
		return s.resolveRef(ctx, vc.Type, vc.Value)
	case core.VersionCommit:
		commit, err := s.store.GetCommit(ctx, s.name, vc.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to read commit %s of source %s: %w", vc.Value, s.name, err)
		}
		if commit == nil {
			return nil, planerr.VersionResolution(nil, "Requested commit %s not found in source %s.", vc.Value, s.name)
		}
		return &core.ResolvedVersionContext{Type: core.VersionCommit, CommitHash: commit.Hash}, nil
	default:
		return nil, planerr.VersionResolution(nil, "Unknown version type %q for source %s.", vc.Type, s.name)
	}
}

func (s *Source) resolveRef(ctx context.Context, typ core.VersionType, name string) (*core.ResolvedVersionContext, error) {
	ref, err := s.store.GetRef(ctx, s.name, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s of source %s: %w", typ, name, s.name, err)
	}
	if ref == nil {
		return nil, planerr.VersionResolution(nil, "Requested %s %s not found in source %s.", typ, name, s.name)
	}
	if ref.Type != typ {
		return nil, planerr.VersionResolution(nil, "%s in source %s is a %s, not a %s.", name, s.name, ref.Type, typ)
	}

	s.logger.Debug("resolved reference", "source", s.name, "ref", name, "commit", ref.CommitHash)
	return &core.ResolvedVersionContext{Type: typ, RefName: ref.Name, CommitHash: ref.CommitHash}, nil
}

// Lookup resolves a table at the head of the default branch.
func (s *Source) Lookup(ctx context.Context, path core.TablePath) (*core.ResolvedTarget, error) {
	head, err := s.ResolveVersion(ctx, core.NotSpecified())
	if err != nil {
		return nil, err
	}
	return s.LookupAt(ctx, path, head)
}

// LookupAt resolves a table at a resolved version.
func (s *Source) LookupAt(ctx context.Context, path core.TablePath, version *core.ResolvedVersionContext) (*core.ResolvedTarget, error) {
	if version == nil {
		return nil, fmt.Errorf("version can't be nil")
	}
	def, err := s.store.TableAt(ctx, s.name, version.CommitHash, path)
	if err != nil {
		return nil, err
	}
	return source.ToTarget(s.name, def), nil
}

// Ping checks the metadata store.
func (s *Source) Ping(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("metadata store not configured")
	}
	return s.store.Ping(ctx)
}

// Close is a no-op; the store is owned by the caller.
func (s *Source) Close() error { return nil }

var _ source.VersionedSource = (*Source)(nil)
