package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/teamdeck/teamdeck/internal/config"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := goose.OpenDBWithDriver("pgx", cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		slog.Error("failed to set migration dialect", "error", err)
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = goose.UpContext(ctx, db, cfg.MigrationsDir)
	case "status":
		err = goose.StatusContext(ctx, db, cfg.MigrationsDir)
	case "down":
		err = goose.DownContext(ctx, db, cfg.MigrationsDir)
	default:
		slog.Error("unsupported command", "command", *command)
		os.Exit(1)
	}
	if err != nil {
		slog.Error("migration command failed", "command", *command, "error", err)
		os.Exit(1)
	}
}
