// Package db provides PostgreSQL persistence for match runs and their artifacts.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx connection pool. Everything the matcher persists goes
// through it: run records, per-stage artifacts, and the listing page cache.
type DB struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close releases the pool and all its connections.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
