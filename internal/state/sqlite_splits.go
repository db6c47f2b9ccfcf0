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

// SaveSplit writes a dataset split. A split with no version is created and
// must not exist yet; a versioned split is updated only while the stored
// version still matches. On success split carries the stored version.
func (s *SQLiteStore) SaveSplit(ctx context.Context, split *core.DatasetSplit) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	stamped := versioning.Stamp(versioning.Splits, split)
	rec := stamped.Record
	rec.UpdatedAt = s.now()

	var (
		res sql.Result
		err error
	)
	if stamped.Expected == nil {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO dataset_splits (dataset, split_key, row_count, size_bytes, version, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(dataset, split_key) DO NOTHING`,
			rec.Dataset, rec.SplitKey, rec.RowCount, rec.SizeBytes, *rec.Version, millis(rec.UpdatedAt),
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE dataset_splits SET row_count = ?, size_bytes = ?, version = ?, updated_at = ?
			 WHERE dataset = ? AND split_key = ? AND version = ?`,
			rec.RowCount, rec.SizeBytes, *rec.Version, millis(rec.UpdatedAt),
			rec.Dataset, rec.SplitKey, *stamped.Expected,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to save split %s/%s: %w", rec.Dataset, rec.SplitKey, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save split %s/%s: %w", rec.Dataset, rec.SplitKey, err)
	}
	if n == 0 {
		return planerr.Conflict(nil,
			"Split %s of dataset %s was changed by another writer; retry the operation.", rec.SplitKey, rec.Dataset)
	}

	versioning.Splits.SetVersion(split, versioning.Splits.GetVersion(&rec))
	split.UpdatedAt = rec.UpdatedAt
	return nil
}

// GetSplit retrieves a split. It returns nil, nil when none exists.
func (s *SQLiteStore) GetSplit(ctx context.Context, dataset, key string) (*core.DatasetSplit, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT dataset, split_key, row_count, size_bytes, version, updated_at
		 FROM dataset_splits WHERE dataset = ? AND split_key = ?`,
		dataset, key,
	)
	split, err := scanSplit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return split, err
}

// ListSplits returns every split of a dataset ordered by key.
func (s *SQLiteStore) ListSplits(ctx context.Context, dataset string) ([]core.DatasetSplit, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT dataset, split_key, row_count, size_bytes, version, updated_at
		 FROM dataset_splits WHERE dataset = ? ORDER BY split_key`,
		dataset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var splits []core.DatasetSplit
	for rows.Next() {
		split, err := scanSplit(rows)
		if err != nil {
			return nil, err
		}
		splits = append(splits, *split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating splits: %w", err)
	}
	return splits, nil
}

func scanSplit(sc scanner) (*core.DatasetSplit, error) {
	var (
		split     core.DatasetSplit
		version   int64
		updatedAt int64
	)
	if err := sc.Scan(&split.Dataset, &split.SplitKey, &split.RowCount, &split.SizeBytes, &version, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan split: %w", err)
	}
	split.Version = versioning.Ptr(version)
	split.UpdatedAt = fromMillis(updatedAt)
	return &split, nil
}
