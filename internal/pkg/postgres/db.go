package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airenas/docread/internal/pkg/persistence"
	"github.com/airenas/docread/internal/pkg/status"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobFields = `id, filename, stored_file, status, progress, total_chunks, audio_file, error, created, updated`

// DB provides operations with postgresql
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates DB instance
func NewDB(pool *pgxpool.Pool) (*DB, error) {
	res := &DB{pool: pool}
	return res, nil
}

// InsertJob inserts a new job into DB
func (db *DB) InsertJob(ctx context.Context, job *persistence.Job) error {
	_, err := db.pool.Exec(ctx, `INSERT INTO jobs(`+jobFields+`) 
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, job.ID, job.Filename, job.StoredFile, job.Status,
		job.Progress, job.TotalChunks, job.AudioFile, job.Error, job.Created, job.Updated,
	)
	if err != nil {
		return fmt.Errorf("can't insert job: %w", err)
	}
	return nil
}

// LoadJob loads job from DB, returns nil if there is no such job
func (db *DB) LoadJob(ctx context.Context, id string) (*persistence.Job, error) {
	res, err := scanJob(db.pool.QueryRow(ctx, `SELECT `+jobFields+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't load job: %w", err)
	}
	return res, nil
}

// ListJobs returns all jobs, oldest first
func (db *DB) ListJobs(ctx context.Context) ([]*persistence.Job, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+jobFields+` FROM jobs ORDER BY created, id`)
	if err != nil {
		return nil, fmt.Errorf("can't list jobs: %w", err)
	}
	return collect(rows)
}

// MarkProcessing moves the job from queued to processing.
// Returns false if the job is missing or not queued
func (db *DB) MarkProcessing(ctx context.Context, id string) (bool, error) {
	return db.transition(ctx, id, status.Processing, "")
}

// SetTotal saves the chunk count of a processing job
func (db *DB) SetTotal(ctx context.Context, id string, total int) error {
	cmd, err := db.pool.Exec(ctx, `UPDATE jobs SET total_chunks = $2, updated = $3 
	WHERE id = $1 AND status = $4`, id, total, time.Now(), status.Processing.String())
	if err != nil {
		return fmt.Errorf("can't set total: %w", err)
	}
	return expectOne(cmd.RowsAffected(), id)
}

// SetProgress saves synthesized chunk count, progress never decreases
func (db *DB) SetProgress(ctx context.Context, id string, progress int) error {
	cmd, err := db.pool.Exec(ctx, `UPDATE jobs SET progress = $2, updated = $3 
	WHERE id = $1 AND status = $4 AND progress <= $2 AND $2 <= total_chunks`, id, progress, time.Now(), status.Processing.String())
	if err != nil {
		return fmt.Errorf("can't set progress: %w", err)
	}
	return expectOne(cmd.RowsAffected(), id)
}

// MarkCompleted finishes the job with the audio file name
func (db *DB) MarkCompleted(ctx context.Context, id, audioFile string) error {
	ok, err := db.transition(ctx, id, status.Completed, audioFile)
	if err != nil {
		return err
	}
	return expectApplied(ok, id, status.Completed)
}

// MarkFailed finishes the job with the error message
func (db *DB) MarkFailed(ctx context.Context, id, errStr string) error {
	ok, err := db.transition(ctx, id, status.Failed, errStr)
	if err != nil {
		return err
	}
	return expectApplied(ok, id, status.Failed)
}

func (db *DB) transition(ctx context.Context, id string, to status.Status, value string) (bool, error) {
	var sql string
	args := []interface{}{id, to.String(), to.Previous().String(), time.Now()}
	switch to {
	case status.Completed:
		sql = `UPDATE jobs SET status = $2, audio_file = $5, updated = $4 WHERE id = $1 AND status = $3`
		args = append(args, value)
	case status.Failed:
		sql = `UPDATE jobs SET status = $2, error = $5, updated = $4 WHERE id = $1 AND status = $3`
		args = append(args, value)
	default:
		sql = `UPDATE jobs SET status = $2, updated = $4 WHERE id = $1 AND status = $3`
	}
	cmd, err := db.pool.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("can't set status %s: %w", to.String(), err)
	}
	return cmd.RowsAffected() == 1, nil
}

// Live returns no error if db is reachable and initialized
func (db *DB) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'gue_jobs')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}

func scanJob(row pgx.Row) (*persistence.Job, error) {
	var res persistence.Job
	err := row.Scan(&res.ID, &res.Filename, &res.StoredFile, &res.Status, &res.Progress, &res.TotalChunks,
		&res.AudioFile, &res.Error, &res.Created, &res.Updated)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func collect(rows pgx.Rows) ([]*persistence.Job, error) {
	defer rows.Close()
	res := []*persistence.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("can't read job: %w", err)
		}
		res = append(res, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read jobs: %w", err)
	}
	return res, nil
}

func expectOne(n int64, id string) error {
	if n != 1 {
		return fmt.Errorf("no processing job %s", id)
	}
	return nil
}

func expectApplied(ok bool, id string, to status.Status) error {
	if !ok {
		return fmt.Errorf("can't move job %s to %s", id, to.String())
	}
	return nil
}
