// Package repository implements the domain repositories on PostgreSQL via
// pgx. Money columns are NUMERIC and scan directly into shopspring decimals.
package repository

import (
	"context"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiranakart/kirana-backend/db"
)

// NewPool opens a pgx pool with the decimal codec registered on every
// connection, so NUMERIC columns scan into decimal.Decimal without casts.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	return pool, nil
}

// RunMigrations applies the embedded schema. Statements use IF NOT EXISTS so
// reapplying on every start is safe.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
