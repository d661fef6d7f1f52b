// Command migrate applies or reverts the embedded schema migrations.
//
//	migrate up     apply all pending migrations (default)
//	migrate down   revert the latest migration
package main

import (
	"fmt"
	"log/slog"
	"os"

	"classroll/internal/app"
	"classroll/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, logger, err := app.Init(os.Stdout)
	if err != nil {
		return err
	}

	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "up":
		err = store.Migrate(cfg.DatabaseDriver, cfg.DatabaseURL)
	case "down":
		err = store.Rollback(cfg.DatabaseDriver, cfg.DatabaseURL)
	default:
		return fmt.Errorf("unknown command %q (want up or down)", cmd)
	}
	if err != nil {
		return err
	}
	logger.Info("migrations done", slog.String("command", cmd), slog.String("driver", cfg.DatabaseDriver))
	return nil
}
