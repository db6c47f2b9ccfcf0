// Package planner turns an admitted, resolved mutation into a plan tree.
package planner

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/pkg/core"
)

// Plan node property keys.
const (
	PropTable        = "table"
	PropFormat       = "format"
	PropColumns      = "columns"
	PropPartitionBy  = "partition_by"
	PropSingleWriter = "single_writer"
	PropCommit       = "commit"
	PropBranch       = "branch"
	PropSource       = "source"
	PropLocation     = "location"
	PropFileFormat   = "file_format"
)

// Builder is the default core.PlanBuilder.
type Builder struct {
	logger *slog.Logger
	newID  func() string
}

// New creates a plan builder.
func New(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{logger: logger, newID: uuid.NewString}
}

// Build implements core.PlanBuilder.
//
// Inserts produce Writer <- Project <- Values. Bulk loads read through a
// FileScan instead; a display-only bulk load replaces the Writer with a
// Screen so nothing is written.
func (b *Builder) Build(ctx context.Context, req core.PlanRequest) (*core.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Command == nil || req.Target == nil {
		return nil, planerr.Internal("plan request is missing its command or target")
	}
	cmd := req.Command

	var leaf *core.PlanNode
	switch cmd.Kind {
	case core.OperatorInsert:
		leaf = &core.PlanNode{
			Type:       core.NodeValues,
			Properties: map[string]string{PropSource: cmd.Source},
		}
	case core.OperatorBulkLoad:
		if cmd.BulkLoad == nil {
			return nil, planerr.Internal("COPY INTO command has no bulk load specification")
		}
		leaf = &core.PlanNode{
			Type: core.NodeFileScan,
			Properties: map[string]string{
				PropLocation:   cmd.BulkLoad.Location,
				PropFileFormat: cmd.BulkLoad.FileFormat,
			},
		}
	default:
		return nil, planerr.Internal("cannot plan operator %s", cmd.Kind)
	}

	project := &core.PlanNode{
		Type:       core.NodeProject,
		Properties: map[string]string{PropColumns: strings.Join(projectedColumns(cmd, req.Target), ",")},
		Input:      leaf,
	}

	var root *core.PlanNode
	if cmd.Kind == core.OperatorBulkLoad && req.Options.DisplayResultOnly {
		root = &core.PlanNode{Type: core.NodeScreen, Input: project}
	} else {
		root = writerNode(cmd, req, project)
	}

	plan := &core.Plan{
		ID:            b.newID(),
		SQL:           req.SQL,
		Operator:      cmd.Kind.String(),
		Target:        req.Target.Path.String(),
		PinnedVersion: req.Version,
		Root:          root,
	}

	b.logger.Debug("built plan",
		"plan_id", plan.ID,
		"operator", plan.Operator,
		"target", plan.Target,
		"root", string(root.Type))

	return plan, nil
}

func writerNode(cmd *core.MutationCommand, req core.PlanRequest, input *core.PlanNode) *core.PlanNode {
	props := map[string]string{
		PropTable:        req.Target.Path.String(),
		PropFormat:       string(req.Target.Format),
		PropSingleWriter: strconv.FormatBool(cmd.SingleWriter),
	}
	if parts := cmd.PartitionColumns(req.Target); len(parts) > 0 {
		props[PropPartitionBy] = strings.Join(parts, ",")
	}
	if req.Version != nil {
		props[PropCommit] = req.Version.CommitHash
		if req.Version.IsBranch() {
			props[PropBranch] = req.Version.RefName
		}
	}
	return &core.PlanNode{Type: core.NodeWriter, Properties: props, Input: input}
}

func projectedColumns(cmd *core.MutationCommand, target *core.ResolvedTarget) []string {
	if len(cmd.FieldNames) > 0 {
		return cmd.FieldNames
	}
	cols := make([]string, 0, len(target.Columns))
	for _, c := range target.Columns {
		cols = append(cols, c.Name)
	}
	return cols
}

var _ core.PlanBuilder = (*Builder)(nil)
