// Package duckdb provides a DuckDB source.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapdml/internal/source"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// TypeName is the registered source type.
const TypeName = "duckdb"

func init() {
	source.Register(TypeName, func(deps source.Deps) source.Source { return New(deps.Logger) })
}

// Params holds DuckDB-specific configuration.
// Parsed from source.Config.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "iceberg", "httpfs")
	Extensions []string `mapstructure:"extensions"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// ParseParams decodes the raw params map of a source config.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	if err := mapstructure.Decode(raw, p); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return p, nil
}

// Source implements source.Source for DuckDB.
type Source struct {
	source.BaseSQLSource
}

// New creates a new DuckDB source instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		BaseSQLSource: source.BaseSQLSource{
			Logger:        logger,
			DefaultSchema: "main",
			SystemSchemas: []string{"information_schema", "pg_catalog"},
		},
	}
}

// Type returns the registered source type.
func (s *Source) Type() string {
	return TypeName
}

// Open establishes a connection to DuckDB.
// An empty database path opens an in-memory database.
func (s *Source) Open(ctx context.Context, cfg source.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Database
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", strings.TrimPrefix(path, ":memory:"))
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	// Settings are per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	if err := applyParams(ctx, db, params); err != nil {
		_ = db.Close()
		return err
	}

	s.DB = db
	s.Cfg = cfg
	if cfg.Schema != "" {
		s.DefaultSchema = cfg.Schema
	}
	s.Logger.Debug("opened duckdb source", "source", cfg.Name, "path", path)
	return nil
}

func applyParams(ctx context.Context, db *sql.DB, p *Params) error {
	for _, ext := range p.Extensions {
		//nolint:gosec // Extension names come from configuration
		if _, err := db.ExecContext(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}
	for key, value := range p.Settings {
		//nolint:gosec // Setting names come from configuration
		stmt := fmt.Sprintf("SET %s = '%s'", key, strings.ReplaceAll(value, "'", "''"))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", key, err)
		}
	}
	return nil
}

var _ source.Source = (*Source)(nil)
