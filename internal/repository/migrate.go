package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/maxviazov/member-search-service/migrations"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// gooseLogger routes goose output through zerolog.
type gooseLogger struct{ log zerolog.Logger }

func (g gooseLogger) Printf(format string, v ...interface{}) { g.log.Info().Msgf(format, v...) }
func (g gooseLogger) Fatalf(format string, v ...interface{}) { g.log.Fatal().Msgf(format, v...) }

// MigrateDB applies every pending embedded migration to db.
func MigrateDB(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{log: logger.With().Str("component", "goose").Logger()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Migrate runs migrations over a database/sql view of the pool.
func (r *Repository) Migrate(ctx context.Context, logger zerolog.Logger) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()
	return MigrateDB(ctx, db, logger)
}
