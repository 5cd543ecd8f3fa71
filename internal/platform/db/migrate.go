package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// ErrMigrate wraps every failure reported by the migration runner.
var ErrMigrate = errors.New("platform/db: migrate")

// Migration commands accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
)

// MigrateOptions configures Migrate.
type MigrateOptions struct {
	FS      fs.FS
	Dir     string
	Table   string
	Command string
}

// Migrate runs a goose command against pool using migrations embedded in opts.FS.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger, opts MigrateOptions) error {
	if opts.FS == nil {
		return fmt.Errorf("%w: migrations filesystem not provided", ErrMigrate)
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Command == "" {
		opts.Command = MigrateUp
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.ErrorContext(ctx, "close migration connection", slog.Any("error", err))
		}
	}()

	goose.SetBaseFS(opts.FS)
	goose.SetLogger(gooseLogger{logger: logger})
	if opts.Table != "" {
		goose.SetTableName(opts.Table)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrMigrate, err)
	}

	var err error
	switch opts.Command {
	case MigrateUp:
		err = goose.UpContext(ctx, sqlDB, opts.Dir)
	case MigrateDown:
		err = goose.DownContext(ctx, sqlDB, opts.Dir)
	case MigrateStatus:
		err = goose.StatusContext(ctx, sqlDB, opts.Dir)
	default:
		err = fmt.Errorf("unknown command %q", opts.Command)
	}
	if err != nil {
		return errors.Join(ErrMigrate, err)
	}
	return nil
}

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}
