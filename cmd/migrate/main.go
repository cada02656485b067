// cmd/migrate/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"paycheck-tracker/internal/config"
	"paycheck-tracker/internal/storage/postgres"
)

func main() {
	cfg := config.MustLoad()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if cfg.Store != config.StorePostgres {
		slog.Error("Migrations only apply to STORE=postgres", "store", cfg.Store)
		os.Exit(1)
	}
	if err := postgres.Migrate(context.Background(), cfg.DBConn); err != nil {
		slog.Error("Migrations failed", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Migrations applied")
}
