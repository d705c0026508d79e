// Command abasolve runs the CP-SAT pediatric-clinic scheduler from the
// command line: read a SolveRequest JSON document, solve it, write back the
// SolveResponse. See internal/platform/cli for the command tree.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/fiddlerhealth/abasolve/internal/shared/infrastructure/database/postgres"
	_ "github.com/fiddlerhealth/abasolve/internal/shared/infrastructure/database/sqlite"

	"github.com/fiddlerhealth/abasolve/internal/platform/cli"
	"github.com/fiddlerhealth/abasolve/internal/platform/config"
	"github.com/fiddlerhealth/abasolve/internal/platform/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "abasolve:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(logging.LogConfig{
		Level:          logging.LogLevel(cfg.App.LogLevel),
		Format:         logging.LogFormat(cfg.App.LogFormat),
		ServiceName:    "abasolve",
		ServiceVersion: cfg.App.Version,
	})
	ctx = logging.NewRequestContext(ctx, "")

	app := &cli.App{Config: cfg, Logger: logger}
	root := cli.NewRootCommand(app)
	root.SetContext(ctx)

	return root.Execute()
}
