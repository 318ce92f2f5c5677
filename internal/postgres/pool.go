// Package postgres builds the instrumented pgx connection pool and the
// query tracer that logs, traces and meters every statement.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Options tunes query logging on the pool.
type Options struct {
	// MinLogDuration suppresses log lines for successful queries faster than
	// this. Failed queries are always logged. 0 logs every query.
	MinLogDuration time.Duration

	// LogArgs includes bind arguments in query log lines.
	LogArgs bool
}

// NewPool connects with default Options.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	return NewPoolWithOptions(ctx, databaseURL, Options{})
}

// NewPoolWithOptions parses databaseURL, installs the otelpgx tracer wrapped
// with query logging, and pings before returning.
func NewPoolWithOptions(ctx context.Context, databaseURL string, opts Options) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.ConnConfig.Tracer = wrapQueryTracer(otelpgx.NewTracer(), opts)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}
