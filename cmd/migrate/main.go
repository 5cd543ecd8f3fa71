package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samachar-news/samachar/internal/app"
	"github.com/samachar-news/samachar/internal/platform/db"
	"github.com/samachar-news/samachar/migrations"
)

func main() {
	command := flag.String("command", db.MigrateUp, "goose command: up, down or status")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, 2)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	err = db.Migrate(ctx, pool, logger, db.MigrateOptions{
		FS:      migrations.FS,
		Table:   cfg.MigrationsTable,
		Command: *command,
	})
	if err != nil {
		logger.Error("migrate", slog.String("command", *command), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrate done", slog.String("command", *command))
}
