package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/airenas/docread/internal/pkg/persistence"
	"github.com/airenas/docread/internal/pkg/status"
	"github.com/airenas/go-app/pkg/goapp"
	_ "modernc.org/sqlite"
)

const jobFields = `id, filename, stored_file, status, progress, total_chunks, audio_file, error, created, updated`

// fixed width, so text order is time order
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const ddl = `
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    filename TEXT NOT NULL,
    stored_file TEXT NOT NULL,
    status TEXT NOT NULL,
    progress INTEGER NOT NULL DEFAULT 0,
    total_chunks INTEGER NOT NULL DEFAULT 0,
    audio_file TEXT,
    error TEXT,
    created TEXT NOT NULL,
    updated TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_created ON jobs(created);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// DB is a job store in a sqlite file
type DB struct {
	db    *sql.DB
	clock func() time.Time
}

// Open opens or creates the db file
func Open(ctx context.Context, path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("can't create data dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("can't open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("can't ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("can't init schema: %w", err)
	}
	goapp.Log.Info().Str("file", path).Msg("sqlite opened")
	return &DB{db: db, clock: time.Now}, nil
}

// Close releases the db
func (s *DB) Close() error {
	return s.db.Close()
}

// InsertJob inserts a new job
func (s *DB) InsertJob(ctx context.Context, job *persistence.Job) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO jobs(`+jobFields+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, job.ID, job.Filename, job.StoredFile, job.Status,
		job.Progress, job.TotalChunks, job.AudioFile, job.Error, toDB(job.Created), toDB(job.Updated))
	if err != nil {
		return fmt.Errorf("can't insert job: %w", err)
	}
	return nil
}

// LoadJob returns nil if there is no such job
func (s *DB) LoadJob(ctx context.Context, id string) (*persistence.Job, error) {
	res, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobFields+` FROM jobs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't load job: %w", err)
	}
	return res, nil
}

// ListJobs returns all jobs, oldest first
func (s *DB) ListJobs(ctx context.Context) ([]*persistence.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobFields+` FROM jobs ORDER BY created, rowid`)
	if err != nil {
		return nil, fmt.Errorf("can't list jobs: %w", err)
	}
	return collect(rows)
}

// GetQueued returns IDs of queued jobs, oldest first
func (s *DB) GetQueued(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM jobs WHERE status = ? ORDER BY created, rowid`,
		status.Queued.String())
	if err != nil {
		return nil, fmt.Errorf("can't select IDs: %w", err)
	}
	defer rows.Close()
	res := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("can't retrieve IDs: %w", err)
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

// MarkProcessing moves the job from queued to processing.
// Returns false if the job is missing or not queued
func (s *DB) MarkProcessing(ctx context.Context, id string) (bool, error) {
	n, err := s.exec(ctx, `UPDATE jobs SET status = ?, updated = ? WHERE id = ? AND status = ?`,
		status.Processing.String(), toDB(s.clock()), id, status.Processing.Previous().String())
	if err != nil {
		return false, fmt.Errorf("can't set status %s: %w", status.Processing.String(), err)
	}
	return n == 1, nil
}

// SetTotal saves the chunk count of a processing job
func (s *DB) SetTotal(ctx context.Context, id string, total int) error {
	n, err := s.exec(ctx, `UPDATE jobs SET total_chunks = ?, updated = ? WHERE id = ? AND status = ?`,
		total, toDB(s.clock()), id, status.Processing.String())
	if err != nil {
		return fmt.Errorf("can't set total: %w", err)
	}
	return expectOne(n, id)
}

// SetProgress saves synthesized chunk count, progress never decreases
func (s *DB) SetProgress(ctx context.Context, id string, progress int) error {
	n, err := s.exec(ctx, `UPDATE jobs SET progress = ?1, updated = ?2 
		WHERE id = ?3 AND status = ?4 AND progress <= ?1 AND ?1 <= total_chunks`,
		progress, toDB(s.clock()), id, status.Processing.String())
	if err != nil {
		return fmt.Errorf("can't set progress: %w", err)
	}
	return expectOne(n, id)
}

// MarkCompleted finishes the job with the audio file name
func (s *DB) MarkCompleted(ctx context.Context, id, audioFile string) error {
	return s.finish(ctx, id, status.Completed, `audio_file`, audioFile)
}

// MarkFailed finishes the job with the error message
func (s *DB) MarkFailed(ctx context.Context, id, errStr string) error {
	return s.finish(ctx, id, status.Failed, `error`, errStr)
}

func (s *DB) finish(ctx context.Context, id string, to status.Status, field, value string) error {
	n, err := s.exec(ctx, `UPDATE jobs SET status = ?, `+field+` = ?, updated = ? WHERE id = ? AND status = ?`,
		to.String(), value, toDB(s.clock()), id, to.Previous().String())
	if err != nil {
		return fmt.Errorf("can't set status %s: %w", to.String(), err)
	}
	if n != 1 {
		return fmt.Errorf("can't move job %s to %s", id, to.String())
	}
	return nil
}

// Clear deletes all jobs and returns the deleted records with their file names only.
// Returns persistence.ErrBusy if some job is processing and force is not set
func (s *DB) Clear(ctx context.Context, force bool) ([]*persistence.Job, error) {
	query := `DELETE FROM jobs
		WHERE NOT EXISTS (SELECT 1 FROM jobs WHERE status = ?) RETURNING id, stored_file, audio_file`
	args := []interface{}{status.Processing.String()}
	if force {
		query, args = `DELETE FROM jobs RETURNING id, stored_file, audio_file`, nil
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("can't delete jobs: %w", err)
	}
	defer rows.Close()
	res := []*persistence.Job{}
	for rows.Next() {
		var j persistence.Job
		if err := rows.Scan(&j.ID, &j.StoredFile, &j.AudioFile); err != nil {
			return nil, fmt.Errorf("can't read job: %w", err)
		}
		res = append(res, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read jobs: %w", err)
	}
	if len(res) == 0 && !force {
		var c int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE status = ?`,
			status.Processing.String()).Scan(&c); err != nil {
			return nil, fmt.Errorf("can't count jobs: %w", err)
		}
		if c > 0 {
			return nil, persistence.ErrBusy
		}
	}
	goapp.Log.Info().Int("rows", len(res)).Bool("force", force).Msg("deleted")
	return res, nil
}

// Live checks if the db is reachable
func (s *DB) Live(ctx context.Context) error {
	var c int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'jobs'`).Scan(&c); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if c == 0 {
		return fmt.Errorf("no migration done")
	}
	return nil
}

func (s *DB) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row scanner) (*persistence.Job, error) {
	var res persistence.Job
	var created, updated string
	err := row.Scan(&res.ID, &res.Filename, &res.StoredFile, &res.Status, &res.Progress, &res.TotalChunks,
		&res.AudioFile, &res.Error, &created, &updated)
	if err != nil {
		return nil, err
	}
	if res.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("can't parse created: %w", err)
	}
	if res.Updated, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("can't parse updated: %w", err)
	}
	return &res, nil
}

func toDB(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func collect(rows *sql.Rows) ([]*persistence.Job, error) {
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
