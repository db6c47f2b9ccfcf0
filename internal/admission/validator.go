// Package admission runs the precondition checks that must all pass before
// a mutation plan may be built.
package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/pkg/core"
)

// Validator checks a mutation command against the catalog.
// It holds no per-call state and performs only read-only catalog queries.
type Validator struct {
	catalog core.Catalog
	logger  *slog.Logger
}

// New creates a validator. If logger is nil, a discard logger is used.
func New(catalog core.Catalog, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Validator{catalog: catalog, logger: logger}
}

// Validate runs the admission checks in order: operator kind, feature gate,
// existence and mutability, privilege, then mutually exclusive options.
// The order fixes which error a caller sees when several checks would fail.
// On success it returns the target as resolved against the default view.
func (v *Validator) Validate(ctx context.Context, sess *core.Session, cmd *core.MutationCommand) (*core.ResolvedTarget, error) {
	if cmd == nil {
		return nil, planerr.Internal("mutation command can't be nil")
	}
	if sess == nil {
		return nil, planerr.Internal("session can't be nil")
	}

	if err := CheckOperator(cmd); err != nil {
		return nil, err
	}
	if err := CheckFeatureGate(sess.Options, cmd); err != nil {
		return nil, err
	}

	target, err := v.checkExistence(ctx, cmd.Target)
	if err != nil {
		return nil, err
	}

	if err := v.catalog.ValidatePrivilege(ctx, sess.User, cmd.Target, core.PrivilegeInsert); err != nil {
		v.logger.Debug("privilege check failed", "user", sess.User, "path", cmd.Target.String(), "error", err)
		return nil, toPermissionDenied(err, sess.User, cmd.Target)
	}

	if err := CheckExclusiveOptions(cmd, target); err != nil {
		return nil, err
	}

	return target, nil
}

// CheckOperator fails fast unless the command is a recognized DML operator.
// An unrecognized kind is a programming error, not a user error.
func CheckOperator(cmd *core.MutationCommand) error {
	switch cmd.Kind {
	case core.OperatorInsert:
		return nil
	case core.OperatorBulkLoad:
		if cmd.BulkLoad == nil {
			return planerr.Internal("COPY INTO command is missing its file specification")
		}
		return nil
	default:
		return planerr.Internal("command kind %d is not a recognized insert operator", int(cmd.Kind))
	}
}

// CheckFeatureGate rejects operators switched off by configuration.
// It runs before any catalog lookup so a disabled feature never reveals
// whether a table exists.
func CheckFeatureGate(opts core.Options, cmd *core.MutationCommand) error {
	switch cmd.Kind {
	case core.OperatorBulkLoad:
		if !opts.BulkLoadEnabled {
			return planerr.FeatureDisabled("COPY INTO command is not supported or enabled.")
		}
	case core.OperatorInsert:
	}
	return nil
}

// CheckExclusiveOptions rejects single-writer mode on a partitioned target.
func CheckExclusiveOptions(cmd *core.MutationCommand, target *core.ResolvedTarget) error {
	if cmd.SingleWriter && len(cmd.PartitionColumns(target)) > 0 {
		return planerr.IncompatibleOptions("Cannot partition data and write to a single file at the same time.")
	}
	return nil
}

func (v *Validator) checkExistence(ctx context.Context, path core.TablePath) (*core.ResolvedTarget, error) {
	target, err := v.catalog.ResolveTarget(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if target == nil {
		return nil, planerr.NotFound("Table [%s] does not exist.", path)
	}
	if !target.Mutable() {
		return nil, planerr.NotMutable("[%s] is a %s and cannot be modified.", path, describeKind(target.Kind))
	}
	return target, nil
}

// toPermissionDenied keeps categorized catalog errors and reports any
// other refusal as a missing privilege.
func toPermissionDenied(err error, user string, path core.TablePath) error {
	var pe *planerr.Error
	if errors.As(err, &pe) {
		return err
	}
	denied := planerr.PermissionDenied("User %s does not have INSERT privilege on [%s].", user, path)
	denied.Cause = err
	return denied
}

func describeKind(k core.TableKind) string {
	switch k {
	case core.TableKindView:
		return "view"
	case core.TableKindSystem:
		return "system table"
	default:
		return string(k)
	}
}
