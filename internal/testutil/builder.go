package testutil

import (
	"context"
	"sync"

	"github.com/leapstack-labs/leapdml/pkg/core"
)

// RecordingBuilder is a core.PlanBuilder that keeps every request.
type RecordingBuilder struct {
	mu       sync.Mutex
	Requests []core.PlanRequest
	// Err, when set, is returned from Build.
	Err error
}

// Build implements core.PlanBuilder.
func (b *RecordingBuilder) Build(_ context.Context, req core.PlanRequest) (*core.Plan, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Requests = append(b.Requests, req)
	if b.Err != nil {
		return nil, b.Err
	}
	return &core.Plan{
		ID:            "plan",
		SQL:           req.SQL,
		Operator:      req.Command.Kind.String(),
		Target:        req.Target.Path.String(),
		PinnedVersion: req.Version,
	}, nil
}

// Last returns the most recent request.
func (b *RecordingBuilder) Last() core.PlanRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Requests) == 0 {
		return core.PlanRequest{}
	}
	return b.Requests[len(b.Requests)-1]
}

var _ core.PlanBuilder = (*RecordingBuilder)(nil)
