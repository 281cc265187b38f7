// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

// Package store provides database connectivity and schema management.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Pool sizing defaults. Storage saturation degrades to explicit
// acquisition timeouts instead of unbounded queuing.
const (
	DefaultMaxConns       = 50
	DefaultAcquireTimeout = 3 * time.Second
)

// Config holds database connection settings.
type Config struct {
	// URL is the PostgreSQL connection string.
	URL string

	// MaxConns bounds the connection pool. Zero means DefaultMaxConns.
	MaxConns int32

	// AcquireTimeout bounds how long a caller waits for a connection.
	// Zero means DefaultAcquireTimeout.
	AcquireTimeout time.Duration
}

// Store owns the shared connection pool. It is constructed once at
// startup and injected into every component that needs storage; nothing
// reaches for it as ambient global state.
type Store struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

// New connects to PostgreSQL with a bounded pool. The initial
// connectivity check is retried with fibonacci backoff so a database
// that is still starting up does not fail the process immediately.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, oops.Code("DB_CONFIG_INVALID").Errorf("database URL is required")
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	acquireTimeout := cfg.AcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").
			With("operation", "parse connection string").
			Wrap(err)
	}
	poolCfg.MaxConns = maxConns
	poolCfg.ConnConfig.ConnectTimeout = acquireTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "create pool").
			Wrap(err)
	}

	s := &Store{pool: pool, acquireTimeout: acquireTimeout}

	backoff := retry.WithMaxDuration(30*time.Second, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := s.Health(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "initial connectivity check").
			Wrap(err)
	}

	return s, nil
}

// Pool returns the shared connection pool for repository construction.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Health verifies the database answers a round-trip query. The check is
// bounded by the acquire timeout so a saturated pool reports a timeout
// rather than hanging the caller.
func (s *Store) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	var one int64
	if err := s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return oops.Code("DB_UNHEALTHY").
			With("operation", "health check query").
			Wrap(err)
	}
	if one != 1 {
		return oops.Code("DB_UNHEALTHY").Errorf("unexpected health check result: %d", one)
	}
	return nil
}
