package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// WaitForDatabase pings dbURL through database/sql until it answers or the
// retries are exhausted.
func WaitForDatabase(ctx context.Context, dbURL string, retries int, delay time.Duration, logger *slog.Logger) error {
	var err error
	for i := 0; i < retries; i++ {
		var db *sql.DB
		db, err = sql.Open("postgres", dbURL)
		if err == nil {
			err = db.PingContext(ctx)
			db.Close()
			if err == nil {
				logger.Info("Successfully connected to the database.")
				return nil
			}
		}
		logger.Warn("Failed to connect to database, retrying", "attempt", i+1, "retries", retries, "delay", delay.String(), "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("database not reachable after %d attempts: %w", retries, err)
}

// RunMigrations applies all pending migrations from source (e.g.
// "file://migrations") to the database at dbURL.
func RunMigrations(dbURL, source string, logger *slog.Logger) error {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to open DB connection for migration: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migration instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No database migrations to apply.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully.")
	return nil
}
