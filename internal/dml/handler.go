// Package dml is the entry point for planning data-mutation statements.
//
// InsertHandler runs a command through admission, version resolution and
// plan construction. Every failure leaves it as a *planerr.Error carrying
// the statement text.
package dml

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapdml/internal/admission"
	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/internal/router"
	"github.com/leapstack-labs/leapdml/internal/statement"
	"github.com/leapstack-labs/leapdml/pkg/core"
)

// InsertHandler plans INSERT and COPY INTO commands.
// It is safe for concurrent use; it keeps no state between calls.
type InsertHandler struct {
	validator *admission.Validator
	router    *router.Router
	logger    *slog.Logger
}

// NewInsertHandler wires a handler over a catalog and plan builder.
func NewInsertHandler(catalog core.Catalog, builder core.PlanBuilder, logger *slog.Logger) *InsertHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &InsertHandler{
		validator: admission.New(catalog, logger),
		router:    router.New(catalog, builder, logger),
		logger:    logger,
	}
}

// GetPlan admits cmd and builds its plan.
func (h *InsertHandler) GetPlan(ctx context.Context, sess *core.Session, sql string, cmd *core.MutationCommand) (*core.Plan, error) {
	plan, err := h.getPlan(ctx, sess, sql, cmd)
	if err != nil {
		return nil, planerr.Coerce(sql, err)
	}
	return plan, nil
}

// PlanStatement parses sql and plans the resulting command.
func (h *InsertHandler) PlanStatement(ctx context.Context, sess *core.Session, sql string) (*core.Plan, error) {
	cmd, err := statement.Parse(sql)
	if err != nil {
		return nil, planerr.Coerce(sql, err)
	}
	return h.GetPlan(ctx, sess, sql, cmd)
}

func (h *InsertHandler) getPlan(ctx context.Context, sess *core.Session, sql string, cmd *core.MutationCommand) (*core.Plan, error) {
	if cmd == nil {
		return nil, planerr.Internal("mutation command can't be nil")
	}
	if sess == nil {
		return nil, planerr.Internal("session can't be nil")
	}

	if len(cmd.Target) == 1 && sess.DefaultSource != "" {
		cmd = cmd.WithTarget(cmd.Target.Qualify(sess.DefaultSource))
	}

	target, err := h.validator.Validate(ctx, sess, cmd)
	if err != nil {
		return nil, err
	}

	plan, err := h.router.Plan(ctx, sess, sql, cmd, target)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("planned mutation",
		"operator", cmd.Kind.String(),
		"path", cmd.Target.String(),
		"plan_id", plan.ID)
	return plan, nil
}
