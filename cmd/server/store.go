package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/airenas/docread/internal/pkg/clean"
	"github.com/airenas/docread/internal/pkg/postgres"
	"github.com/airenas/docread/internal/pkg/sqlite"
	"github.com/airenas/docread/internal/pkg/upload"
	"github.com/airenas/docread/internal/pkg/worker"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultDBPath = "data/docread.db"

type jobStore interface {
	upload.DB
	worker.DB
}

type queuedProvider interface {
	GetQueued(ctx context.Context) ([]string, error)
}

// store groups the job store implementations selected by db.url
type store struct {
	jobs    jobStore
	cleaner clean.Store
	queued  queuedProvider
	live    func(context.Context) error
	// pool is set for postgres only, gue queue needs it
	pool  *pgxpool.Pool
	close func()
}

func isPostgres(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

func openStore(ctx context.Context, url string) (*store, error) {
	if isPostgres(url) {
		return openPostgres(ctx, url)
	}
	path := strings.TrimPrefix(url, "sqlite://")
	if path == "" {
		path = defaultDBPath
	}
	goapp.Log.Info().Str("path", path).Msg("using sqlite store")
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return &store{jobs: db, cleaner: db, queued: db, live: db.Live, close: func() { _ = db.Close() }}, nil
}

func openPostgres(ctx context.Context, url string) (*store, error) {
	dbConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("can't parse db url: %w", err)
	}
	goapp.Log.Info().Int32("max_conn", dbConfig.MaxConns).Int32("min_conn", dbConfig.MinConns).Msg("db info")
	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("can't init db pool: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	db, err := postgres.NewDB(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	cleaner, err := postgres.NewCleaner(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	ids, err := postgres.NewDBIdsProvider(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &store{jobs: db, cleaner: cleaner, queued: ids, live: db.Live, pool: pool, close: pool.Close}, nil
}
