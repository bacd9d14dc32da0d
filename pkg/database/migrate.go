package database

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations applies every *.up.sql file in files, in lexical order, that
// has not been applied before. Applied versions are recorded in a
// schema_migrations table, so the call is idempotent across restarts. The
// whole sequence is retried on transient connection errors; SQL errors abort
// immediately.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, files fs.FS, logger *slog.Logger) error {
	return retryTransient(ctx, logger, "apply migrations", func() error {
		return applyPending(ctx, pool, files, logger)
	})
}

func applyPending(ctx context.Context, pool *pgxpool.Pool, files fs.FS, logger *slog.Logger) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	// fs.Glob returns sorted names; numbered filename prefixes fix the order.
	names, err := fs.Glob(files, "*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	for _, name := range names {
		applied, err := versionApplied(ctx, pool, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := applyOne(ctx, pool, files, name); err != nil {
			return err
		}
		logger.Info("applied migration", slog.String("version", name))
	}
	return nil
}

func versionApplied(ctx context.Context, pool *pgxpool.Pool, name string) (bool, error) {
	var applied bool
	err := pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", name,
	).Scan(&applied)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return applied, nil
}

// applyOne runs a single migration file and records its version in the same
// transaction, so a multi-statement migration lands whole or not at all.
func applyOne(ctx context.Context, pool *pgxpool.Pool, files fs.FS, name string) error {
	sql, err := fs.ReadFile(files, name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}
