package postgres

import (
	"context"
	"fmt"

	"github.com/airenas/docread/internal/pkg/persistence"
	"github.com/airenas/docread/internal/pkg/status"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cleaner drops all job records
type Cleaner struct {
	pool *pgxpool.Pool
}

// NewCleaner creates Cleaner instance
func NewCleaner(pool *pgxpool.Pool) (*Cleaner, error) {
	res := &Cleaner{pool: pool}
	return res, nil
}

// Clear deletes all jobs and returns the deleted records.
// Nothing is deleted if some job is processing, unless force is set
func (db *Cleaner) Clear(ctx context.Context, force bool) ([]*persistence.Job, error) {
	rows, err := db.pool.Query(ctx, `DELETE FROM jobs 
	WHERE $2 OR NOT EXISTS (SELECT 1 FROM jobs WHERE status = $1) RETURNING `+jobFields,
		status.Processing.String(), force)
	if err != nil {
		return nil, fmt.Errorf("can't delete jobs: %w", err)
	}
	res, err := collect(rows)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 && !force {
		if err := db.checkBusy(ctx); err != nil {
			return nil, err
		}
	}
	goapp.Log.Info().Int("rows", len(res)).Bool("force", force).Msg("deleted")
	return res, nil
}

func (db *Cleaner) checkBusy(ctx context.Context) error {
	var c int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE status = $1`,
		status.Processing.String()).Scan(&c); err != nil {
		return fmt.Errorf("can't count jobs: %w", err)
	}
	if c > 0 {
		return persistence.ErrBusy
	}
	return nil
}
