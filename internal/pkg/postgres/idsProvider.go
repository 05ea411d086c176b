package postgres

import (
	"context"
	"fmt"

	"github.com/airenas/docread/internal/pkg/status"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBIdsProvider provides IDs of jobs waiting in the queue
type DBIdsProvider struct {
	pool *pgxpool.Pool
}

// NewDBIdsProvider creates provider instance
func NewDBIdsProvider(pool *pgxpool.Pool) (*DBIdsProvider, error) {
	res := &DBIdsProvider{pool: pool}
	return res, nil
}

// GetQueued returns IDs of queued jobs, oldest first
func (db *DBIdsProvider) GetQueued(ctx context.Context) ([]string, error) {
	goapp.Log.Info().Msg("selecting queued jobs...")
	rows, err := db.pool.Query(ctx, `SELECT id FROM jobs WHERE status = $1 ORDER BY created, id`, status.Queued.String())
	if err != nil {
		return nil, fmt.Errorf("can't select IDs: %w", err)
	}
	defer rows.Close()

	res := []string{}
	for rows.Next() {
		var id string
		err := rows.Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("can't retrieve IDs: %w", err)
		}
		res = append(res, id)
	}
	return res, rows.Err()
}
