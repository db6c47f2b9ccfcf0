package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapdml/internal/catalog"
	"github.com/leapstack-labs/leapdml/internal/cli/output"
	"github.com/leapstack-labs/leapdml/internal/config"
	"github.com/leapstack-labs/leapdml/internal/source"
	"github.com/leapstack-labs/leapdml/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    *state.SQLiteStore
	Catalog  *catalog.Catalog
	Renderer *output.Renderer
}

// NewCommandContext opens the metadata store and every configured source.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cctx := NewCommandContextWithoutCatalog(cmd)

	store, err := openStore(cctx.Cfg.StatePath, cctx.Logger)
	if err != nil {
		return nil, nil, err
	}

	deps := source.Deps{Logger: cctx.Logger, Store: store}
	cat, err := catalog.Open(cmd.Context(), cctx.Cfg.Sources, deps, cctx.Cfg.Access, cctx.Logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to open sources: %w", err)
	}

	cctx.Store = store
	cctx.Catalog = cat
	cleanup := func() {
		if err := cat.Close(); err != nil {
			cctx.Logger.Warn("failed to close sources", "error", err)
		}
		_ = store.Close()
	}
	return cctx, cleanup, nil
}

// NewCommandContextWithoutCatalog creates a CommandContext without opening
// the store or any source.
func NewCommandContextWithoutCatalog(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// getConfig returns the loaded configuration or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		StatePath:    config.DefaultStateFile,
		User:         config.DefaultUser,
		OutputFormat: config.DefaultOutput,
	}
}

func openStore(path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, err
	}
	return store, nil
}
