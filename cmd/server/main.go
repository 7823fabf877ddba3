package main

import (
	"log/slog"
	"os"

	"leavedesk/internal/app/server"
)

func main() {
	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}

	if err := server.Run(migrationsDir); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}
