package turso

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/emiliopalmerini/tmaps/internal/domain"
)

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save inserts the snapshot or replaces the one stored for the same id.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot domain.Snapshot) error {
	record, err := json.Marshal(snapshot.Record)
	if err != nil {
		return fmt.Errorf("failed to encode experiment record: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO experiment_snapshots (id, name, status, record, channel_count, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			record = excluded.record,
			channel_count = excluded.channel_count,
			fetched_at = excluded.fetched_at
	`,
		snapshot.Record.ID,
		snapshot.Record.Name,
		snapshot.Record.Status,
		string(record),
		len(snapshot.Record.Channels),
		snapshot.FetchedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) GetByID(ctx context.Context, id string) (*domain.Snapshot, error) {
	snapshot, err := withRetry(ctx, maxStreamRetries, func() (*domain.Snapshot, error) {
		row := r.db.QueryRowContext(ctx, `SELECT record, fetched_at FROM experiment_snapshots WHERE id = ?`, id)
		return scanSnapshot(row)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snapshot, nil
}

// List returns all snapshots ordered by experiment name.
func (r *SnapshotRepository) List(ctx context.Context) ([]domain.Snapshot, error) {
	rows, err := withRetry(ctx, maxStreamRetries, func() (*sql.Rows, error) {
		return r.db.QueryContext(ctx, `SELECT record, fetched_at FROM experiment_snapshots ORDER BY name, id`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *SnapshotRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM experiment_snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner) (*domain.Snapshot, error) {
	var record, fetchedAt string
	if err := s.Scan(&record, &fetchedAt); err != nil {
		return nil, err
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal([]byte(record), &snapshot.Record); err != nil {
		return nil, fmt.Errorf("failed to decode experiment record: %w", err)
	}
	at, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode fetched_at %q: %w", fetchedAt, err)
	}
	snapshot.FetchedAt = at
	return &snapshot, nil
}
