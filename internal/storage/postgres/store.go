// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Connect opens a pgx pool using the provided config.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables and indexes when they do not exist.
func EnsureSchema(ctx context.Context, pool dbPool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			vendor TEXT NOT NULL,
			base_url TEXT NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			UNIQUE (name, vendor)
		)`,
		`CREATE TABLE IF NOT EXISTS postings (
			id UUID PRIMARY KEY,
			source_vendor TEXT NOT NULL,
			source_name TEXT NOT NULL,
			source_job_id TEXT NOT NULL,
			source_url TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			status TEXT NOT NULL,
			last_seen_at TIMESTAMPTZ NOT NULL,
			doc JSONB NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS postings_source_key
			ON postings (source_vendor, source_name, source_job_id)`,
		`CREATE INDEX IF NOT EXISTS postings_source_url ON postings (lower(source_url))`,
		`CREATE INDEX IF NOT EXISTS postings_fingerprint ON postings (fingerprint)`,
		`CREATE INDEX IF NOT EXISTS postings_staleness ON postings (source_vendor, source_name, status, last_seen_at)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			source_id UUID NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ,
			status TEXT NOT NULL,
			counters JSONB NOT NULL,
			error_sample TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
