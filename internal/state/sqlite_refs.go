package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/internal/versioning"
	"github.com/leapstack-labs/leapdml/pkg/core"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// InitSource registers a versioned source and creates its default branch
// on an empty root commit. It is a no-op when the branch already exists.
func (s *SQLiteStore) InitSource(ctx context.Context, source, defaultBranch string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if defaultBranch == "" {
		return fmt.Errorf("default branch for source %s can't be empty", source)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sources (name, default_branch, created_at) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO NOTHING`,
			source, defaultBranch, millis(now),
		); err != nil {
			return fmt.Errorf("failed to register source: %w", err)
		}

		existing, err := getRef(ctx, tx, source, defaultBranch)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		root := core.CommitInfo{
			Source:    source,
			Hash:      newCommitHash(),
			Message:   "initial commit",
			CreatedAt: now,
		}
		if err := insertCommit(ctx, tx, root); err != nil {
			return err
		}

		ref := &core.Reference{Source: source, Name: defaultBranch, Type: core.VersionBranch, CommitHash: root.Hash}
		if _, err := s.writeRef(ctx, tx, ref); err != nil {
			return err
		}

		s.logger.Info("initialized versioned source", "source", source, "branch", defaultBranch, "commit", root.Hash)
		return nil
	})
}

// DefaultBranch returns the default branch registered for source.
func (s *SQLiteStore) DefaultBranch(ctx context.Context, source string) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}

	var branch string
	err := s.db.QueryRowContext(ctx, `SELECT default_branch FROM sources WHERE name = ?`, source).Scan(&branch)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("source %s is not initialized", source)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get default branch: %w", err)
	}
	return branch, nil
}

// CreateBranch creates a branch pointing at commitHash.
func (s *SQLiteStore) CreateBranch(ctx context.Context, source, name, commitHash string) (*core.Reference, error) {
	return s.createRef(ctx, source, name, core.VersionBranch, commitHash)
}

// CreateTag creates a tag pointing at commitHash.
func (s *SQLiteStore) CreateTag(ctx context.Context, source, name, commitHash string) (*core.Reference, error) {
	return s.createRef(ctx, source, name, core.VersionTag, commitHash)
}

func (s *SQLiteStore) createRef(ctx context.Context, source, name string, typ core.VersionType, commitHash string) (*core.Reference, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if name == "" {
		return nil, fmt.Errorf("reference name can't be empty")
	}

	ref := &core.Reference{Source: source, Name: name, Type: typ, CommitHash: commitHash}
	var written core.Reference
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := getRef(ctx, tx, source, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("reference %s already exists in source %s", name, source)
		}
		if _, err := getCommit(ctx, tx, source, commitHash); err != nil {
			return err
		}
		written, err = s.writeRef(ctx, tx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.reconcileRef(ref, written)
	return ref, nil
}

// SaveRef moves a reference to ref.CommitHash. ref must carry the version
// it was read at; a stale version fails with a concurrency conflict. On
// success ref is updated to the stored version.
func (s *SQLiteStore) SaveRef(ctx context.Context, ref *core.Reference) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var written core.Reference
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getCommit(ctx, tx, ref.Source, ref.CommitHash); err != nil {
			return err
		}
		var err error
		written, err = s.writeRef(ctx, tx, ref)
		return err
	})
	if err != nil {
		return err
	}

	s.reconcileRef(ref, written)
	return nil
}

// GetRef retrieves a reference. It returns nil, nil when none exists.
func (s *SQLiteStore) GetRef(ctx context.Context, source, name string) (*core.Reference, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	return getRef(ctx, s.db, source, name)
}

// ListRefs returns every reference of a source ordered by name.
func (s *SQLiteStore) ListRefs(ctx context.Context, source string) ([]core.Reference, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, name, type, commit_hash, version, updated_at
		 FROM refs WHERE source = ? ORDER BY name`,
		source,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list refs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var refs []core.Reference
	for rows.Next() {
		ref, err := scanRef(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, *ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating refs: %w", err)
	}
	return refs, nil
}

// writeRef persists a stamped copy of ref with a compare-and-swap on its
// version and returns the record as written. ref is not modified.
func (s *SQLiteStore) writeRef(ctx context.Context, q querier, ref *core.Reference) (core.Reference, error) {
	stamped := versioning.Stamp(versioning.References, ref)
	rec := stamped.Record
	rec.UpdatedAt = s.now()

	var (
		res sql.Result
		err error
	)
	if stamped.Expected == nil {
		res, err = q.ExecContext(ctx,
			`INSERT INTO refs (source, name, type, commit_hash, version, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(source, name) DO NOTHING`,
			rec.Source, rec.Name, string(rec.Type), rec.CommitHash, *rec.Version, millis(rec.UpdatedAt),
		)
	} else {
		res, err = q.ExecContext(ctx,
			`UPDATE refs SET type = ?, commit_hash = ?, version = ?, updated_at = ?
			 WHERE source = ? AND name = ? AND version = ?`,
			string(rec.Type), rec.CommitHash, *rec.Version, millis(rec.UpdatedAt),
			rec.Source, rec.Name, *stamped.Expected,
		)
	}
	if err != nil {
		return core.Reference{}, fmt.Errorf("failed to write ref %s: %w", rec.Name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return core.Reference{}, fmt.Errorf("failed to write ref %s: %w", rec.Name, err)
	}
	if n == 0 {
		return core.Reference{}, planerr.Conflict(nil,
			"Reference %s in source %s was changed by another writer; retry the operation.", rec.Name, rec.Source)
	}
	return rec, nil
}

func (s *SQLiteStore) reconcileRef(ref *core.Reference, written core.Reference) {
	versioning.References.SetVersion(ref, versioning.References.GetVersion(&written))
	ref.UpdatedAt = written.UpdatedAt
}

func getRef(ctx context.Context, q querier, source, name string) (*core.Reference, error) {
	row := q.QueryRowContext(ctx,
		`SELECT source, name, type, commit_hash, version, updated_at
		 FROM refs WHERE source = ? AND name = ?`,
		source, name,
	)
	ref, err := scanRef(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ref, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRef(sc scanner) (*core.Reference, error) {
	var (
		ref       core.Reference
		typ       string
		version   int64
		updatedAt int64
	)
	if err := sc.Scan(&ref.Source, &ref.Name, &typ, &ref.CommitHash, &version, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan ref: %w", err)
	}
	ref.Type = core.VersionType(typ)
	ref.Version = versioning.Ptr(version)
	ref.UpdatedAt = fromMillis(updatedAt)
	return &ref, nil
}
