// Package catalog implements core.Catalog over a set of opened sources.
// Paths are routed to the source named by their first segment. No answer
// is cached; every call goes to the owning source.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/internal/source"
	"github.com/leapstack-labs/leapdml/pkg/core"
)

// Catalog routes metadata queries to sources.
type Catalog struct {
	sources map[string]source.Source
	access  AccessConfig
	logger  *slog.Logger
}

// New creates a catalog over already opened sources.
func New(sources []source.Source, access AccessConfig, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Catalog{
		sources: make(map[string]source.Source, len(sources)),
		access:  access,
		logger:  logger,
	}
	for _, src := range sources {
		key := strings.ToLower(src.Name())
		if key == "" {
			return nil, fmt.Errorf("source name can't be empty")
		}
		if _, dup := c.sources[key]; dup {
			return nil, fmt.Errorf("source %s configured more than once", src.Name())
		}
		c.sources[key] = src
	}
	return c, nil
}

// Open opens every configured source and builds a catalog over them.
// Sources opened before a failure are closed again.
func Open(ctx context.Context, cfgs []source.Config, deps source.Deps, access AccessConfig, logger *slog.Logger) (*Catalog, error) {
	var opened []source.Source
	closeAll := func() {
		for _, src := range opened {
			_ = src.Close()
		}
	}

	for _, cfg := range cfgs {
		src, err := source.Open(ctx, cfg, deps)
		if err != nil {
			closeAll()
			return nil, err
		}
		opened = append(opened, src)
	}

	c, err := New(opened, access, logger)
	if err != nil {
		closeAll()
		return nil, err
	}
	return c, nil
}

// Close closes every source.
func (c *Catalog) Close() error {
	var errs []error
	for _, src := range c.sources {
		if err := src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", src.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Sources returns the sources ordered by name.
func (c *Catalog) Sources() []source.Source {
	out := make([]source.Source, 0, len(c.sources))
	for _, src := range c.sources {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Source returns the source with the given name.
func (c *Catalog) Source(name string) (source.Source, bool) {
	src, ok := c.sources[strings.ToLower(name)]
	return src, ok
}

func (c *Catalog) versioned(name string) (source.VersionedSource, error) {
	src, ok := c.Source(name)
	if !ok {
		return nil, planerr.NotFound("Source [%s] does not exist.", name)
	}
	vs, ok := src.(source.VersionedSource)
	if !ok || !src.SupportsVersioning() {
		return nil, planerr.Internal("Source [%s] does not support versioning.", name)
	}
	return vs, nil
}

// ResolveTarget implements core.Catalog.
func (c *Catalog) ResolveTarget(ctx context.Context, path core.TablePath) (*core.ResolvedTarget, error) {
	src, ok := c.Source(path.Root())
	if !ok {
		return nil, nil
	}
	return src.Lookup(ctx, path)
}

// SupportsVersioning implements core.Catalog.
func (c *Catalog) SupportsVersioning(path core.TablePath) bool {
	src, ok := c.Source(path.Root())
	if !ok {
		return false
	}
	_, versioned := src.(source.VersionedSource)
	return versioned && src.SupportsVersioning()
}

// ResolveVersion implements core.Catalog.
func (c *Catalog) ResolveVersion(ctx context.Context, name string, vc core.VersionContext) (*core.ResolvedVersionContext, error) {
	vs, err := c.versioned(name)
	if err != nil {
		return nil, err
	}
	return vs.ResolveVersion(ctx, vc)
}

// TargetAt implements core.Catalog.
func (c *Catalog) TargetAt(ctx context.Context, path core.TablePath, version *core.ResolvedVersionContext) (*core.ResolvedTarget, error) {
	vs, err := c.versioned(path.Root())
	if err != nil {
		return nil, err
	}
	return vs.LookupAt(ctx, path, version)
}

// ValidatePrivilege implements core.Catalog.
func (c *Catalog) ValidatePrivilege(_ context.Context, user string, path core.TablePath, privilege core.Privilege) error {
	if !c.access.Enforce {
		return nil
	}
	for _, g := range c.access.Grants {
		if g.allows(user, path, privilege) {
			c.logger.Debug("privilege granted", "user", user, "path", path.String(), "privilege", string(privilege), "grant", g.Path)
			return nil
		}
	}
	return planerr.PermissionDenied("User %s does not have %s privilege on [%s].", user, strings.ToUpper(string(privilege)), path)
}

var _ core.Catalog = (*Catalog)(nil)
