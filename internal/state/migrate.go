package state

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseMu guards goose's package-level base FS and dialect.
var gooseMu sync.Mutex

func withGoose(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return fn()
}

// Migrate applies pending schema migrations and logs the versions moved
// between.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	return withGoose(func() error {
		before, err := goose.GetDBVersionContext(ctx, s.db)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		after, err := goose.GetDBVersionContext(ctx, s.db)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		if after != before {
			s.logger.Info("migrated metadata store", "path", s.path, "from", before, "to", after)
		}
		return nil
	})
}

// MigrationVersion returns the current schema version.
func (s *SQLiteStore) MigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	var version int64
	err := withGoose(func() error {
		var err error
		version, err = goose.GetDBVersionContext(ctx, s.db)
		return err
	})
	return version, err
}
