package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdml/pkg/core"
)

// BaseSQLSource provides common database/sql functionality for sources.
// Embed this struct in concrete source implementations to get standard
// Name, Ping, Close and information_schema based Lookup implementations.
type BaseSQLSource struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger

	// DefaultSchema is used for table paths without a schema segment.
	DefaultSchema string
	// SystemSchemas hold catalog tables; they are reported as system tables.
	SystemSchemas []string
	// Placeholder formats the n-th (1-based) bind parameter. Nil means "?".
	Placeholder func(n int) string
}

// Name returns the configured source name.
func (b *BaseSQLSource) Name() string {
	return b.Cfg.Name
}

// SupportsVersioning reports false; SQL sources have no table history.
func (b *BaseSQLSource) SupportsVersioning() bool {
	return false
}

// Ping checks the database connection.
func (b *BaseSQLSource) Ping(ctx context.Context) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	return b.DB.PingContext(ctx)
}

// Close closes the database connection.
func (b *BaseSQLSource) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection", "source", b.Cfg.Name)
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLSource) IsConnected() bool {
	return b.DB != nil
}

// ParseQualifiedName splits a path relative to its source into schema and
// table name, using defaultSchema when no schema is given. ok is false for
// paths deeper than schema.table.
func ParseQualifiedName(rel core.TablePath, defaultSchema string) (schema, name string, ok bool) {
	switch len(rel) {
	case 1:
		return defaultSchema, rel[0], true
	case 2:
		return rel[0], rel[1], true
	default:
		return "", "", false
	}
}

func (b *BaseSQLSource) placeholder(n int) string {
	if b.Placeholder == nil {
		return "?"
	}
	return b.Placeholder(n)
}

// Lookup resolves a table through information_schema.tables for its kind
// and information_schema.columns for its schema. Partition columns come
// from configuration.
func (b *BaseSQLSource) Lookup(ctx context.Context, path core.TablePath) (*core.ResolvedTarget, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rel := path.Relative()
	schema, tableName, ok := ParseQualifiedName(rel, b.DefaultSchema)
	if !ok {
		return nil, nil
	}

	//nolint:gosec // Placeholders are safe - they come from the source's Placeholder func
	kindQuery := fmt.Sprintf(`
		SELECT table_type
		FROM information_schema.tables
		WHERE table_schema = %s AND table_name = %s
	`, b.placeholder(1), b.placeholder(2))

	var tableType string
	err := b.DB.QueryRowContext(ctx, kindQuery, schema, tableName).Scan(&tableType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query table metadata: %w", err)
	}

	//nolint:gosec // Placeholders are safe - they come from the source's Placeholder func
	columnQuery := fmt.Sprintf(`
		SELECT
			column_name,
			data_type
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, b.placeholder(1), b.placeholder(2))

	rows, err := b.DB.QueryContext(ctx, columnQuery, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	partitions := b.Cfg.PartitionsFor(rel)
	var columns []core.Column
	for rows.Next() {
		var col core.Column
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Partition = containsFold(partitions, col.Name)
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	return &core.ResolvedTarget{
		Path:    path,
		Source:  b.Cfg.Name,
		Kind:    b.tableKind(schema, tableType),
		Format:  b.Cfg.TableFormat(),
		Columns: columns,
	}, nil
}

func (b *BaseSQLSource) tableKind(schema, tableType string) core.TableKind {
	if containsFold(b.SystemSchemas, schema) {
		return core.TableKindSystem
	}
	switch strings.ToUpper(tableType) {
	case "BASE TABLE", "LOCAL TEMPORARY":
		return core.TableKindTable
	case "VIEW":
		return core.TableKindView
	default:
		return core.TableKindSystem
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
