package commands

import (
	"context"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapdml/internal/cli/output"
	"github.com/leapstack-labs/leapdml/internal/source"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// pingTimeout bounds each source health check.
const pingTimeout = 5 * time.Second

// SourceStatus is one row of the sources listing.
type SourceStatus struct {
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type"`
	Versioned  bool   `json:"versioned" yaml:"versioned"`
	Status     string `json:"status,omitempty" yaml:"status,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

// NewSourcesCommand creates the sources command.
func NewSourcesCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List configured sources",
		Long: `List the configured sources with their type and whether they hold
version-controlled tables. With --check every source is pinged concurrently.`,
		Example: `  leapdml sources
  leapdml sources --check -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSources(cmd, check)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Ping every source")
	return cmd
}

func runSources(cmd *cobra.Command, check bool) error {
	cctx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	srcs := cctx.Catalog.Sources()
	statuses := make([]SourceStatus, len(srcs))
	for i, src := range srcs {
		statuses[i] = SourceStatus{Name: src.Name(), Type: src.Type(), Versioned: src.SupportsVersioning()}
	}

	if check {
		if err := checkSources(cmd.Context(), srcs, statuses); err != nil {
			return err
		}
	}

	r := cctx.Renderer
	if r.EffectiveMode() != output.ModeText {
		return r.Data(statuses)
	}

	header := []string{"NAME", "TYPE", "VERSIONED"}
	if check {
		header = append(header, "STATUS")
	}
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		row := []string{s.Name, s.Type, strconv.FormatBool(s.Versioned)}
		if check {
			status := s.Status
			if s.Error != "" {
				status += ": " + s.Error
			}
			row = append(row, status)
		}
		rows = append(rows, row)
	}
	r.Header("Sources")
	r.Table(header, rows)
	return nil
}

// checkSources pings every source concurrently, recording the outcome in
// the matching statuses entry. A failed ping is a status, not an error.
func checkSources(ctx context.Context, srcs []source.Source, statuses []SourceStatus) error {
	eg, egctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		eg.Go(func() error {
			pingCtx, cancel := context.WithTimeout(egctx, pingTimeout)
			defer cancel()

			start := time.Now()
			err := src.Ping(pingCtx)
			statuses[i].DurationMS = time.Since(start).Milliseconds()
			if err != nil {
				statuses[i].Status = "unreachable"
				statuses[i].Error = err.Error()
				return nil
			}
			statuses[i].Status = "ok"
			return nil
		})
	}
	return eg.Wait()
}
