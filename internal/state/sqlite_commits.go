package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapdml/pkg/core"
)

// GetCommit retrieves a commit. It returns nil, nil when none exists.
func (s *SQLiteStore) GetCommit(ctx context.Context, source, hash string) (*core.CommitInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	c, err := getCommit(ctx, s.db, source, hash)
	if errors.Is(err, errCommitNotFound) {
		return nil, nil
	}
	return c, err
}

// CommitTable records a new definition of a table on a branch. The commit
// becomes the branch head only if no other writer moved the branch since
// it was read; otherwise nothing is written and a concurrency conflict is
// returned.
func (s *SQLiteStore) CommitTable(ctx context.Context, source, branch string, def core.TableDef, message string) (*core.CommitInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if len(def.Path) == 0 {
		return nil, fmt.Errorf("table path can't be empty")
	}

	var commit core.CommitInfo
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		head, err := getRef(ctx, tx, source, branch)
		if err != nil {
			return err
		}
		if head == nil {
			return fmt.Errorf("branch %s not found in source %s", branch, source)
		}
		if head.Type != core.VersionBranch {
			return fmt.Errorf("%s in source %s is a %s; only branches accept commits", branch, source, head.Type)
		}

		commit = core.CommitInfo{
			Source:    source,
			Hash:      newCommitHash(),
			Parent:    head.CommitHash,
			Message:   message,
			CreatedAt: s.now(),
		}
		if err := insertCommit(ctx, tx, commit); err != nil {
			return err
		}
		if err := insertTableVersion(ctx, tx, commit.Hash, def); err != nil {
			return err
		}

		moved := *head
		moved.CommitHash = commit.Hash
		_, err = s.writeRef(ctx, tx, &moved)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("committed table",
		"source", source,
		"branch", branch,
		"path", def.Path.String(),
		"commit", commit.Hash)
	return &commit, nil
}

// TableAt returns the definition of path as of commit, walking back through
// the commit's ancestors. It returns nil, nil when the table does not exist
// at that commit.
func (s *SQLiteStore) TableAt(ctx context.Context, source, commit string, path core.TablePath) (*core.TableDef, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	for hash := commit; hash != ""; {
		def, err := tableVersion(ctx, s.db, hash, path)
		if err != nil {
			return nil, err
		}
		if def != nil {
			if def.Dropped {
				return nil, nil
			}
			return def, nil
		}

		c, err := getCommit(ctx, s.db, source, hash)
		if err != nil {
			return nil, err
		}
		hash = c.Parent
	}
	return nil, nil
}

// ListTablesAt returns every table visible at commit, ordered by path.
func (s *SQLiteStore) ListTablesAt(ctx context.Context, source, commit string) ([]core.TableDef, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		WITH RECURSIVE ancestry(hash) AS (
			SELECT hash FROM commits WHERE hash = ? AND source = ?
			UNION ALL
			SELECT c.parent FROM commits c JOIN ancestry a ON c.hash = a.hash
			WHERE c.parent != ''
		)
		SELECT tv.path FROM table_versions tv
		JOIN ancestry a ON tv.commit_hash = a.hash
		GROUP BY tv.path
		ORDER BY tv.path`,
		commit, source,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan table path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	_ = rows.Close()

	var defs []core.TableDef
	for _, p := range paths {
		path, err := core.ParsePath(p)
		if err != nil {
			return nil, fmt.Errorf("stored table path %q: %w", p, err)
		}
		def, err := s.TableAt(ctx, source, commit, path)
		if err != nil {
			return nil, err
		}
		if def != nil {
			defs = append(defs, *def)
		}
	}
	return defs, nil
}

var errCommitNotFound = errors.New("commit not found")

func getCommit(ctx context.Context, q querier, source, hash string) (*core.CommitInfo, error) {
	var (
		c         core.CommitInfo
		createdAt int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT hash, source, parent, message, created_at FROM commits WHERE hash = ? AND source = ?`,
		hash, source,
	).Scan(&c.Hash, &c.Source, &c.Parent, &c.Message, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s in source %s", errCommitNotFound, hash, source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}
	c.CreatedAt = fromMillis(createdAt)
	return &c, nil
}

func insertCommit(ctx context.Context, q querier, c core.CommitInfo) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO commits (hash, source, parent, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.Hash, c.Source, c.Parent, c.Message, millis(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create commit: %w", err)
	}
	return nil
}

func insertTableVersion(ctx context.Context, q querier, commit string, def core.TableDef) error {
	kind := def.Kind
	if kind == "" {
		kind = core.TableKindTable
	}
	format := def.Format
	if format == "" {
		format = core.FormatIceberg
	}

	path := def.Path.String()
	if _, err := q.ExecContext(ctx,
		`INSERT INTO table_versions (commit_hash, path, kind, format, dropped) VALUES (?, ?, ?, ?, ?)`,
		commit, path, string(kind), string(format), def.Dropped,
	); err != nil {
		return fmt.Errorf("failed to write table %s: %w", path, err)
	}

	for i, col := range def.Columns {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO table_columns (commit_hash, path, position, name, type, partition_col)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			commit, path, i, col.Name, col.Type, col.Partition,
		); err != nil {
			return fmt.Errorf("failed to write column %s of %s: %w", col.Name, path, err)
		}
	}
	return nil
}

func tableVersion(ctx context.Context, q querier, commit string, path core.TablePath) (*core.TableDef, error) {
	var (
		kind, format string
		dropped      bool
	)
	err := q.QueryRowContext(ctx,
		`SELECT kind, format, dropped FROM table_versions WHERE commit_hash = ? AND path = ?`,
		commit, path.String(),
	).Scan(&kind, &format, &dropped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s: %w", path, err)
	}

	def := &core.TableDef{
		Path:    path,
		Kind:    core.TableKind(kind),
		Format:  core.TableFormat(format),
		Dropped: dropped,
	}

	rows, err := q.QueryContext(ctx,
		`SELECT name, type, partition_col FROM table_columns
		 WHERE commit_hash = ? AND path = ? ORDER BY position`,
		commit, path.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns of %s: %w", path, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var col core.Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Partition); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		def.Columns = append(def.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return def, nil
}
