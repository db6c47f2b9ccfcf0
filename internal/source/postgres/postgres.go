// Package postgres provides a PostgreSQL source.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/leapstack-labs/leapdml/internal/source"
)

// TypeName is the registered source type.
const TypeName = "postgres"

func init() {
	source.Register(TypeName, func(deps source.Deps) source.Source { return New(deps.Logger) })
}

// Source implements source.Source for PostgreSQL.
type Source struct {
	source.BaseSQLSource
}

// New creates a new PostgreSQL source instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		BaseSQLSource: source.BaseSQLSource{
			Logger:        logger,
			DefaultSchema: "public",
			SystemSchemas: []string{"pg_catalog", "information_schema"},
			Placeholder:   func(n int) string { return fmt.Sprintf("$%d", n) },
		},
	}
}

// Type returns the registered source type.
func (s *Source) Type() string {
	return TypeName
}

// Open establishes a connection to PostgreSQL.
func (s *Source) Open(ctx context.Context, cfg source.Config) error {
	dsn := buildDSN(cfg)

	s.Logger.Debug("connecting to postgres", slog.String("source", cfg.Name), slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	if cfg.Schema != "" {
		s.DefaultSchema = cfg.Schema
	}
	return nil
}

// buildDSN constructs a PostgreSQL connection string.
func buildDSN(cfg source.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

var _ source.Source = (*Source)(nil)
