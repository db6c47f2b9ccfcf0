package core

import "context"

// PlanNodeType is the operator of a plan node.
type PlanNodeType string

// Plan node types.
const (
	NodeWriter   PlanNodeType = "writer"
	NodeProject  PlanNodeType = "project"
	NodeValues   PlanNodeType = "values"
	NodeFileScan PlanNodeType = "file_scan"
	NodeScreen   PlanNodeType = "screen"
)

// PlanNode is one operator in a plan tree.
type PlanNode struct {
	Type       PlanNodeType      `json:"type" yaml:"type"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
	Input      *PlanNode         `json:"input,omitempty" yaml:"input,omitempty"`
}

// Plan is the artifact handed to the execution engine.
type Plan struct {
	ID            string                  `json:"id" yaml:"id"`
	SQL           string                  `json:"sql" yaml:"sql"`
	Operator      string                  `json:"operator" yaml:"operator"`
	Target        string                  `json:"target" yaml:"target"`
	PinnedVersion *ResolvedVersionContext `json:"pinned_version,omitempty" yaml:"pinned_version,omitempty"`
	Root          *PlanNode               `json:"root" yaml:"root"`
}

// PlanRequest is everything the plan builder needs for one call.
type PlanRequest struct {
	SQL     string
	Command *MutationCommand
	Target  *ResolvedTarget
	// Version pins reads and writes; nil on the classic path.
	Version *ResolvedVersionContext
	Options Options
}

// PlanBuilder turns a resolved request into a plan.
type PlanBuilder interface {
	Build(ctx context.Context, req PlanRequest) (*Plan, error)
}
