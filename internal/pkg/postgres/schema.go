package postgres

import (
	"context"
	"fmt"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		stored_file TEXT NOT NULL,
		status TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		total_chunks INTEGER NOT NULL DEFAULT 0,
		audio_file TEXT,
		error TEXT,
		created TIMESTAMPTZ NOT NULL,
		updated TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_created ON jobs (created)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status)`,
	`CREATE TABLE IF NOT EXISTS gue_jobs (
		job_id TEXT NOT NULL PRIMARY KEY,
		priority SMALLINT NOT NULL,
		run_at TIMESTAMPTZ NOT NULL,
		job_type TEXT NOT NULL,
		args BYTEA NOT NULL,
		error_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		queue TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_gue_jobs_selector ON gue_jobs (queue, run_at, priority)`,
}

// Migrate creates tables if they do not exist
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range schema {
		if _, err := pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("can't migrate: %w", err)
		}
	}
	goapp.Log.Info().Int("statements", len(schema)).Msg("db schema ready")
	return nil
}
