// Package repository opens the URL store selected by configuration.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vadimbarashkov/redirector/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/redirector/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/redirector/internal/adapter/repository/sqlite"
	"github.com/vadimbarashkov/redirector/internal/config"
	"github.com/vadimbarashkov/redirector/internal/usecase"
	"github.com/vadimbarashkov/redirector/migrations"

	pgdb "github.com/vadimbarashkov/redirector/pkg/postgres"
)

// Store is an opened backend. Close releases its connections.
type Store struct {
	usecase.RecordStore
	Close func() error
}

// Open connects to the backend named in cfg.Storage.Backend and prepares its schema.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	const op = "adapter.repository.Open"

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := pgdb.New(
			ctx,
			cfg.Postgres.DSN(),
			pgdb.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			pgdb.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			pgdb.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			pgdb.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if err := pgdb.RunMigrations(migrations.FS, ".", cfg.Postgres.DSN()); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		logger.Info("using postgres storage", slog.String("target", cfg.Postgres.Target()))

		return &Store{RecordStore: postgres.NewURLRepository(db), Close: db.Close}, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%s: failed to get sql.DB instance: %w", op, err)
		}

		logger.Info("using sqlite storage", slog.String("path", cfg.SQLite.Path))

		return &Store{RecordStore: sqlite.NewURLRepository(db), Close: sqlDB.Close}, nil

	case config.BackendMemory:
		logger.Warn("using in-memory storage, urls will be lost on restart")

		return &Store{RecordStore: memory.NewURLRepository(), Close: func() error { return nil }}, nil

	default:
		return nil, fmt.Errorf("%s: %w: unknown storage backend %q", op, config.ErrInvalidConfig, cfg.Storage.Backend)
	}
}
