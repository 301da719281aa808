package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS veg_runs (
			run_id     UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			kind       TEXT NOT NULL,
			profile    TEXT,
			alpha      DOUBLE PRECISION,
			trials     INTEGER,
			seed       NUMERIC,
			weights    JSONB,
			results    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS veg_runs_kind_created_idx
			ON veg_runs (kind, created_at DESC)`)
	return err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const runColumns = `run_id, kind, profile, alpha, trials, seed, weights, results, created_at`

func (s *PostgresStore) CreateRun(ctx context.Context, run *Run) error {
	weightsJSON, _ := json.Marshal(run.Weights)
	resultsJSON, _ := json.Marshal(run.Results)

	return s.pool.QueryRow(ctx, `
		INSERT INTO veg_runs (kind, profile, alpha, trials, seed, weights, results)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING run_id, created_at`,
		run.Kind, run.Profile, run.Alpha, run.Trials, run.Seed, weightsJSON, resultsJSON,
	).Scan(&run.ID, &run.CreatedAt)
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	run, err := scanRun(s.pool.QueryRow(ctx, `
		SELECT `+runColumns+`
		FROM veg_runs WHERE run_id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM veg_runs WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Kind != nil {
		n++
		query += fmt.Sprintf(" AND kind = $%d", n)
		args = append(args, string(*filter.Kind))
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var profile *string
	var weightsJSON, resultsJSON []byte
	err := row.Scan(
		&run.ID, &run.Kind, &profile, &run.Alpha, &run.Trials, &run.Seed,
		&weightsJSON, &resultsJSON, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		run.Profile = *profile
	}
	if weightsJSON != nil {
		_ = json.Unmarshal(weightsJSON, &run.Weights)
	}
	if resultsJSON != nil {
		_ = json.Unmarshal(resultsJSON, &run.Results)
	}
	return run, nil
}
