// Package router chooses between the classic and the versioned planning
// flows and runs the checks specific to each.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/pkg/core"
)

// Path is the planning flow taken for a command.
type Path int

// Planning flows.
const (
	PathClassic Path = iota
	PathVersioned
)

func (p Path) String() string {
	if p == PathVersioned {
		return "versioned"
	}
	return "classic"
}

// Route picks the flow for a target. It depends only on whether the
// owning source supports version-controlled tables.
func Route(catalog core.Catalog, path core.TablePath) Path {
	if catalog.SupportsVersioning(path) {
		return PathVersioned
	}
	return PathClassic
}

// Router resolves the world state to plan against and calls the builder.
type Router struct {
	catalog core.Catalog
	builder core.PlanBuilder
	logger  *slog.Logger
}

// New creates a router. If logger is nil, a discard logger is used.
func New(catalog core.Catalog, builder core.PlanBuilder, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{catalog: catalog, builder: builder, logger: logger}
}

// Plan builds the plan for an admitted command. target is the table as
// resolved during admission.
func (r *Router) Plan(ctx context.Context, sess *core.Session, sql string, cmd *core.MutationCommand, target *core.ResolvedTarget) (*core.Plan, error) {
	switch Route(r.catalog, cmd.Target) {
	case PathVersioned:
		return r.planVersioned(ctx, sess, sql, cmd, target)
	default:
		return r.planClassic(ctx, sess, sql, cmd, target)
	}
}

func (r *Router) planClassic(ctx context.Context, sess *core.Session, sql string, cmd *core.MutationCommand, target *core.ResolvedTarget) (*core.Plan, error) {
	if err := ValidateTableFormatOptions(cmd, target); err != nil {
		return nil, err
	}

	plan, err := r.builder.Build(ctx, core.PlanRequest{
		SQL:     sql,
		Command: cmd,
		Target:  target,
		Options: sess.Options,
	})
	if err != nil {
		return nil, err
	}

	// No writer is created for display-only bulk loads, so there is no
	// schema to validate against.
	if !sess.Options.DisplayResultOnly || cmd.Kind != core.OperatorBulkLoad {
		if err := ValidateSchema(cmd.FieldNames, target); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

func (r *Router) planVersioned(ctx context.Context, sess *core.Session, sql string, cmd *core.MutationCommand, target *core.ResolvedTarget) (*core.Plan, error) {
	plan, err := r.versioned(ctx, sess, sql, cmd, target)
	if err != nil {
		return nil, planerr.Coerce(sql, err)
	}
	return plan, nil
}

func (r *Router) versioned(ctx context.Context, sess *core.Session, sql string, cmd *core.MutationCommand, target *core.ResolvedTarget) (*core.Plan, error) {
	source := cmd.Target.Root()
	sessionVersion := sess.VersionFor(source)

	version, err := r.catalog.ResolveVersion(ctx, source, sessionVersion)
	if err != nil {
		return nil, fmt.Errorf("resolve %s of source %s: %w", sessionVersion, source, err)
	}
	if version == nil {
		return nil, planerr.VersionResolution(nil, "Requested %s not found in source %s.", sessionVersion, source)
	}

	if err := ValidateVersionedTableFormatOptions(cmd, target, version); err != nil {
		return nil, err
	}

	atVersion, err := r.catalog.TargetAt(ctx, cmd.Target, version)
	if err != nil {
		return nil, fmt.Errorf("resolve %s at %s: %w", cmd.Target, version, err)
	}
	if err := checkExistenceValidity(cmd.Target, atVersion, version); err != nil {
		return nil, err
	}

	r.logger.Debug("insert into versioned table",
		"path", cmd.Target.String(),
		"session_version", sessionVersion.String(),
		"resolved_version", version.String())

	return r.builder.Build(ctx, core.PlanRequest{
		SQL:     sql,
		Command: cmd,
		Target:  atVersion,
		Version: version,
		Options: sess.Options,
	})
}

func checkExistenceValidity(path core.TablePath, target *core.ResolvedTarget, version *core.ResolvedVersionContext) error {
	if target == nil {
		return planerr.NotFound("Table [%s] does not exist at %s.", path, version)
	}
	if !target.Mutable() {
		return planerr.NotMutable("[%s] at %s is not a table and cannot be modified.", path, version)
	}
	return nil
}
