package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/pkg/core"
)

// FakeCatalog is an in-memory core.Catalog that records every call.
type FakeCatalog struct {
	mu sync.Mutex

	// Tables in the default view, keyed by path string.
	Tables map[string]*core.ResolvedTarget
	// Versioned names the sources that support version-controlled tables.
	Versioned map[string]bool
	// Refs maps "source/refname" to a commit hash.
	Refs map[string]string
	// AtCommit maps "commit/path" to the table at that commit.
	AtCommit map[string]*core.ResolvedTarget
	// Grants maps "user/path" to allowed privileges.
	Grants map[string][]core.Privilege

	// ResolveErr, when set, is returned by every ResolveVersion call.
	ResolveErr error
	// PrivilegeErr, when set, is returned by every ValidatePrivilege call.
	PrivilegeErr error

	Calls []string
}

// NewFakeCatalog returns an empty fake catalog.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		Tables:    make(map[string]*core.ResolvedTarget),
		Versioned: make(map[string]bool),
		Refs:      make(map[string]string),
		AtCommit:  make(map[string]*core.ResolvedTarget),
		Grants:    make(map[string][]core.Privilege),
	}
}

// AddTable registers a table in the default view.
func (c *FakeCatalog) AddTable(t *core.ResolvedTarget) {
	c.Tables[t.Path.String()] = t
}

// AddTableAt registers a table as it exists at commit.
func (c *FakeCatalog) AddTableAt(commit string, t *core.ResolvedTarget) {
	c.AtCommit[commit+"/"+t.Path.String()] = t
}

// Grant allows user privilege on path.
func (c *FakeCatalog) Grant(user string, path core.TablePath, p core.Privilege) {
	key := user + "/" + path.String()
	c.Grants[key] = append(c.Grants[key], p)
}

func (c *FakeCatalog) record(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, fmt.Sprintf(format, args...))
}

// CallsWithPrefix returns the recorded calls starting with prefix.
func (c *FakeCatalog) CallsWithPrefix(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, call := range c.Calls {
		if strings.HasPrefix(call, prefix) {
			out = append(out, call)
		}
	}
	return out
}

// ResolveTarget implements core.Catalog.
func (c *FakeCatalog) ResolveTarget(_ context.Context, path core.TablePath) (*core.ResolvedTarget, error) {
	c.record("ResolveTarget %s", path)
	t, ok := c.Tables[path.String()]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// SupportsVersioning implements core.Catalog.
func (c *FakeCatalog) SupportsVersioning(path core.TablePath) bool {
	c.record("SupportsVersioning %s", path)
	return c.Versioned[path.Root()]
}

// ResolveVersion implements core.Catalog.
func (c *FakeCatalog) ResolveVersion(_ context.Context, source string, vc core.VersionContext) (*core.ResolvedVersionContext, error) {
	c.record("ResolveVersion %s %s", source, vc)
	if c.ResolveErr != nil {
		return nil, c.ResolveErr
	}

	switch vc.Type {
	case core.VersionCommit:
		return &core.ResolvedVersionContext{Type: core.VersionCommit, CommitHash: vc.Value}, nil
	case core.VersionBranch, core.VersionTag:
		hash, ok := c.Refs[source+"/"+vc.Value]
		if !ok {
			return nil, planerr.VersionResolution(nil, "Requested %s not found in source %s.", vc, source)
		}
		return &core.ResolvedVersionContext{Type: vc.Type, RefName: vc.Value, CommitHash: hash}, nil
	default:
		hash, ok := c.Refs[source+"/main"]
		if !ok {
			return nil, planerr.VersionResolution(nil, "Default branch not found in source %s.", source)
		}
		return &core.ResolvedVersionContext{Type: core.VersionBranch, RefName: "main", CommitHash: hash}, nil
	}
}

// TargetAt implements core.Catalog.
func (c *FakeCatalog) TargetAt(_ context.Context, path core.TablePath, version *core.ResolvedVersionContext) (*core.ResolvedTarget, error) {
	c.record("TargetAt %s %s", path, version.CommitHash)
	t, ok := c.AtCommit[version.CommitHash+"/"+path.String()]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// ValidatePrivilege implements core.Catalog.
func (c *FakeCatalog) ValidatePrivilege(_ context.Context, user string, path core.TablePath, p core.Privilege) error {
	c.record("ValidatePrivilege %s %s %s", user, path, p)
	if c.PrivilegeErr != nil {
		return c.PrivilegeErr
	}
	for _, granted := range c.Grants[user+"/"+path.String()] {
		if granted == p {
			return nil
		}
	}
	return fmt.Errorf("user %s lacks %s on %s", user, p, path)
}

var _ core.Catalog = (*FakeCatalog)(nil)
