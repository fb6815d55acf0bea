// Package migrate runs embedded schema migrations at startup.
// It also provides the bounded wait used when the database container
// comes up slower than the API process.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for goose
	"github.com/pressly/goose/v3"

	"github.com/forkful/forkful/internal/migrations"
)

const pingInterval = time.Second

// WaitAndRun blocks until the database accepts connections (or the wait
// budget is exhausted), then applies all pending migrations.
func WaitAndRun(ctx context.Context, databaseURL string, wait time.Duration, logger *slog.Logger) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := waitForDB(ctx, db, wait, logger); err != nil {
		return err
	}

	return Run(ctx, db)
}

// Run applies all pending migrations against an open database handle.
func Run(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// waitForDB pings the database once per second until it responds.
func waitForDB(ctx context.Context, db *sql.DB, wait time.Duration, logger *slog.Logger) error {
	deadline := time.Now().Add(wait)

	for {
		pingCtx, cancel := context.WithTimeout(ctx, pingInterval)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("database not reachable after %s: %w", wait, err)
		}

		logger.Info("database unavailable, retrying", "error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pingInterval):
		}
	}
}
