package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fiddlerhealth/abasolve/internal/cache"
	"github.com/fiddlerhealth/abasolve/internal/platform/observability"
	"github.com/fiddlerhealth/abasolve/internal/shared/infrastructure/database"
)

func newHealthCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the configured cache and warm-start store backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd.Context(), app)
		},
	}
}

func runHealth(ctx context.Context, app *App) error {
	registry := observability.NewHealthRegistry()

	if app.Config.Cache.Enabled {
		solveCache, err := cache.NewSolveCache(app.Config.Cache.URL, app.Config.Cache.TTL, cache.DefaultBreakerConfig(), app.Logger)
		if err == nil {
			defer solveCache.Close()
			registry.Register(observability.NewFuncChecker("cache", solveCache.Ping))
		} else {
			registry.Register(observability.NewFuncChecker("cache", func(context.Context) error { return err }))
		}
	}

	dbCfg := database.Config{
		Driver:     database.Driver(app.Config.Database.Driver),
		URL:        app.Config.Database.URL,
		SQLitePath: app.Config.Database.SQLitePath,
	}
	conn, err := database.NewConnection(ctx, dbCfg)
	if err == nil {
		defer conn.Close()
		registry.Register(observability.NewFuncChecker("store", conn.Ping))
	} else {
		registry.Register(observability.NewFuncChecker("store", func(context.Context) error { return err }))
	}

	results := registry.CheckAll(ctx)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode health results: %w", err)
	}

	for _, result := range results {
		if result.Status != observability.HealthStatusUp {
			return fmt.Errorf("one or more dependencies unhealthy")
		}
	}
	return nil
}
