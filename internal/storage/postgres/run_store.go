package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/store"
)

// RunStore implements store.RunStore.
type RunStore struct {
	pool dbPool
}

// NewRunStore builds a RunStore on an existing pool.
func NewRunStore(pool dbPool) *RunStore {
	return &RunStore{pool: pool}
}

// Create implements store.RunStore.
func (s *RunStore) Create(ctx context.Context, run *jobs.RunRecord) error {
	counters, err := json.Marshal(run.Counters)
	if err != nil {
		return fmt.Errorf("marshal counters: %w", err)
	}
	query := `
		INSERT INTO runs (id, source_id, started_at, finished_at, status, counters, error_sample)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = s.pool.Exec(ctx, query,
		run.ID, run.SourceID, run.StartedAt, run.FinishedAt, string(run.Status), counters, run.ErrorSample)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// Update implements store.RunStore.
func (s *RunStore) Update(ctx context.Context, run *jobs.RunRecord) error {
	counters, err := json.Marshal(run.Counters)
	if err != nil {
		return fmt.Errorf("marshal counters: %w", err)
	}
	query := `
		UPDATE runs
		SET finished_at = $2, status = $3, counters = $4, error_sample = $5
		WHERE id = $1;
	`
	tag, err := s.pool.Exec(ctx, query, run.ID, run.FinishedAt, string(run.Status), counters, run.ErrorSample)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Get implements store.RunStore.
func (s *RunStore) Get(ctx context.Context, id uuid.UUID) (jobs.RunRecord, error) {
	query := `SELECT id, source_id, started_at, finished_at, status, counters, error_sample FROM runs WHERE id = $1;`
	run, err := scanRun(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return jobs.RunRecord{}, store.ErrNotFound
		}
		return jobs.RunRecord{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List implements store.RunStore.
func (s *RunStore) List(ctx context.Context, limit, offset int) ([]jobs.RunRecord, error) {
	query := `
		SELECT id, source_id, started_at, finished_at, status, counters, error_sample
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2;
	`
	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []jobs.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (jobs.RunRecord, error) {
	var (
		run      jobs.RunRecord
		status   string
		counters []byte
	)
	err := row.Scan(&run.ID, &run.SourceID, &run.StartedAt, &run.FinishedAt, &status, &counters, &run.ErrorSample)
	if err != nil {
		return jobs.RunRecord{}, err
	}
	run.Status = jobs.RunStatus(status)
	if err := json.Unmarshal(counters, &run.Counters); err != nil {
		return jobs.RunRecord{}, fmt.Errorf("unmarshal counters: %w", err)
	}
	return run, nil
}
