package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/leapstack-labs/leapdml/internal/cli/output"
	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/internal/source"
	"github.com/leapstack-labs/leapdml/internal/state"
	"github.com/leapstack-labs/leapdml/pkg/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// maxSplitAttempts bounds retries of a split write that lost a race.
const maxSplitAttempts = 3

// SeedFile describes history to load into a versioned source.
type SeedFile struct {
	Source   string       `yaml:"source"`
	Branches []SeedBranch `yaml:"branches"`
	Tables   []SeedTable  `yaml:"tables"`
	Splits   []SeedSplit  `yaml:"splits"`
}

// SeedBranch creates a branch, or a tag when Tag is set.
type SeedBranch struct {
	Name string `yaml:"name"`
	From string `yaml:"from"`
	Tag  bool   `yaml:"tag"`
}

// SeedTable commits one table definition to a branch.
type SeedTable struct {
	source.TableConfig `yaml:",inline"`
	Branch             string `yaml:"branch"`
	Message            string `yaml:"message"`
	Drop               bool   `yaml:"drop"`
}

// SeedSplit creates or updates one dataset split.
type SeedSplit struct {
	Dataset   string `yaml:"dataset"`
	Key       string `yaml:"key"`
	RowCount  int64  `yaml:"row_count"`
	SizeBytes int64  `yaml:"size_bytes"`
}

// SeedResult summarizes a load.
type SeedResult struct {
	Source   string   `json:"source" yaml:"source"`
	Refs     []string `json:"refs,omitempty" yaml:"refs,omitempty"`
	Commits  []string `json:"commits,omitempty" yaml:"commits,omitempty"`
	Splits   int      `json:"splits" yaml:"splits"`
	Retries  int      `json:"retries,omitempty" yaml:"retries,omitempty"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage versioned catalog metadata",
	}
	cmd.AddCommand(newCatalogLoadCommand())
	return cmd
}

func newCatalogLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Load branches, tables and splits from a YAML seed file",
		Example: `  # seed.yaml
  source: lake
  branches:
    - name: dev
  tables:
    - name: sales
      branch: dev
      format: iceberg
      columns:
        - {name: id, type: bigint}
        - {name: region, type: varchar, partition: true}
  splits:
    - {dataset: lake.sales, key: p0, row_count: 10, size_bytes: 4096}

  leapdml catalog load seed.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}
			var seed SeedFile
			if err := yaml.Unmarshal(data, &seed); err != nil {
				return fmt.Errorf("failed to parse seed file %s: %w", args[0], err)
			}

			cctx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := loadSeed(cmd.Context(), cctx, seed)
			if err != nil {
				return err
			}

			r := cctx.Renderer
			if r.EffectiveMode() != output.ModeText {
				return r.Data(result)
			}
			r.Success(fmt.Sprintf("Loaded %s: %d refs, %d commits, %d splits",
				result.Source, len(result.Refs), len(result.Commits), result.Splits))
			return nil
		},
	}
}

func loadSeed(ctx context.Context, cctx *CommandContext, seed SeedFile) (*SeedResult, error) {
	src, ok := cctx.Catalog.Source(seed.Source)
	if !ok || !src.SupportsVersioning() {
		return nil, fmt.Errorf("seed source %q is not a configured versioned source", seed.Source)
	}
	name := src.Name()
	result := &SeedResult{Source: name}

	for _, b := range seed.Branches {
		vc, err := core.ParseVersionContext(b.From)
		if err != nil {
			return nil, fmt.Errorf("branch %s: %w", b.Name, err)
		}
		at, err := cctx.Catalog.ResolveVersion(ctx, name, vc)
		if err != nil {
			return nil, fmt.Errorf("branch %s: %w", b.Name, err)
		}

		create := cctx.Store.CreateBranch
		if b.Tag {
			create = cctx.Store.CreateTag
		}
		ref, err := create(ctx, name, b.Name, at.CommitHash)
		if err != nil {
			return nil, fmt.Errorf("branch %s: %w", b.Name, err)
		}
		result.Refs = append(result.Refs, ref.Name)
	}

	defaultBranch, err := cctx.Store.DefaultBranch(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, t := range seed.Tables {
		def, err := t.Def(name)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Name, err)
		}
		def.Dropped = t.Drop

		branch := t.Branch
		if branch == "" {
			branch = defaultBranch
		}
		msg := t.Message
		if msg == "" {
			msg = "load " + def.Path.String()
		}

		commit, err := cctx.Store.CommitTable(ctx, name, branch, def, msg)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Name, err)
		}
		cctx.Logger.Debug("committed table", "table", def.Path.String(), "branch", branch, "commit", commit.Hash)
		result.Commits = append(result.Commits, commit.Hash)
	}

	for _, sp := range seed.Splits {
		retries, err := saveSplit(ctx, cctx.Store, sp)
		result.Retries += retries
		if err != nil {
			return nil, fmt.Errorf("split %s/%s: %w", sp.Dataset, sp.Key, err)
		}
		result.Splits++
	}

	return result, nil
}

// saveSplit writes a split from a fresh read, retrying when another writer
// moved it in between.
func saveSplit(ctx context.Context, store *state.SQLiteStore, sp SeedSplit) (int, error) {
	var lastErr error
	for attempt := 0; attempt < maxSplitAttempts; attempt++ {
		split, err := store.GetSplit(ctx, sp.Dataset, sp.Key)
		if err != nil {
			return attempt, err
		}
		if split == nil {
			split = &core.DatasetSplit{Dataset: sp.Dataset, SplitKey: sp.Key}
		}
		split.RowCount = sp.RowCount
		split.SizeBytes = sp.SizeBytes

		lastErr = store.SaveSplit(ctx, split)
		var pe *planerr.Error
		if lastErr == nil || !errors.As(lastErr, &pe) || !pe.Retryable() {
			return attempt, lastErr
		}
	}
	return maxSplitAttempts - 1, lastErr
}
