package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fiddlerhealth/abasolve/internal/cache"
	"github.com/fiddlerhealth/abasolve/internal/clinic/application"
	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/clinic/solve"
	"github.com/fiddlerhealth/abasolve/internal/eventbus"
	"github.com/fiddlerhealth/abasolve/internal/policy/registry"
	"github.com/fiddlerhealth/abasolve/internal/policy/runtime"
	"github.com/fiddlerhealth/abasolve/internal/shared/infrastructure/convert"
	"github.com/fiddlerhealth/abasolve/internal/shared/infrastructure/database"
	"github.com/fiddlerhealth/abasolve/internal/shared/infrastructure/security"
	"github.com/fiddlerhealth/abasolve/internal/store"
)

func newSolveCommand(app *App) *cobra.Command {
	var inputPath, outputPath string
	var warmStart bool

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve one day's schedule from a SolveRequest JSON document",
		Long: "Reads a SolveRequest JSON document (--input, or stdin if omitted),\n" +
			"runs the CP-SAT solver, and writes the resulting SolveResponse JSON\n" +
			"to stdout (or --output).",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd.Context(), app, inputPath, outputPath, warmStart)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to a SolveRequest JSON document (default: stdin)")
	cmd.Flags().StringVar(&outputPath, "output", "", "path to write the SolveResponse JSON document (default: stdout)")
	cmd.Flags().BoolVar(&warmStart, "warm-start", false, "hydrate InitialSchedule from the persisted store when the request omits one")

	return cmd
}

func runSolve(ctx context.Context, app *App, inputPath, outputPath string, warmStart bool) error {
	req, err := readSolveRequest(inputPath)
	if err != nil {
		return fmt.Errorf("read solve request: %w", err)
	}

	handler, cleanup, err := buildSolveHandler(ctx, app)
	if err != nil {
		return fmt.Errorf("build solve handler: %w", err)
	}
	defer cleanup()

	resp, err := handler.Handle(ctx, application.SolveQuery{Request: req, UseWarmStart: warmStart})
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}

	return writeSolveResponse(outputPath, resp)
}

func readSolveRequest(inputPath string) (domain.SolveRequest, error) {
	var r io.Reader = os.Stdin
	if inputPath != "" {
		f, err := security.SafeOpen(inputPath)
		if err != nil {
			return domain.SolveRequest{}, fmt.Errorf("validate input path: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req domain.SolveRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return domain.SolveRequest{}, fmt.Errorf("decode solve request: %w", err)
	}
	return req, nil
}

func writeSolveResponse(outputPath string, resp domain.SolveResponse) error {
	var w io.Writer = os.Stdout
	if outputPath != "" {
		cleanPath, err := security.ValidateFilePath(outputPath)
		if err != nil {
			return fmt.Errorf("validate output path: %w", err)
		}
		f, err := os.Create(cleanPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// buildSolveHandler wires the cache, store, event publisher, and policy
// runtime from app.Config, degrading each to its Noop implementation when
// disabled or unreachable rather than failing the solve.
func buildSolveHandler(ctx context.Context, app *App) (*application.SolveQueryHandler, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	cacheImpl, err := buildCache(app)
	if err != nil {
		app.Logger.Warn("solve cache unavailable, continuing without it", "error", err)
		cacheImpl = cache.NoopCache{}
	} else {
		cleanups = append(cleanups, func() { _ = cacheImpl.Close() })
	}

	storeImpl, err := buildStore(ctx, app)
	if err != nil {
		app.Logger.Warn("warm-start store unavailable, continuing without it", "error", err)
		storeImpl = store.NoopRepository{}
	} else {
		cleanups = append(cleanups, func() { _ = storeImpl.Close() })
	}

	publisher, err := buildPublisher(app)
	if err != nil {
		app.Logger.Warn("event publisher unavailable, continuing without it", "error", err)
		publisher = eventbus.NewNoopPublisher(app.Logger)
	} else {
		cleanups = append(cleanups, func() { _ = publisher.Close() })
	}

	policyRuntime, killPlugin, err := buildPolicy(app)
	if err != nil {
		app.Logger.Warn("policy unavailable, falling back to builtin default", "error", err)
		policyRuntime = runtime.NewExecutor(nil, runtime.DefaultConfig(), app.Logger)
	}
	if killPlugin != nil {
		cleanups = append(cleanups, killPlugin)
	}

	handler := application.NewSolveQueryHandler(application.SolveQueryHandler{
		Cache:     cacheImpl,
		Store:     storeImpl,
		Publisher: publisher,
		Policy:    policyRuntime,
		Params:    solve.Params{Logger: app.Logger, Workers: convert.IntToInt32Clamped(app.Config.Solver.Workers)},
		Logger:    app.Logger,
	})

	return handler, cleanup, nil
}

func buildCache(app *App) (cache.Cache, error) {
	if !app.Config.Cache.Enabled {
		return cache.NoopCache{}, nil
	}
	return cache.NewSolveCache(app.Config.Cache.URL, app.Config.Cache.TTL, cache.DefaultBreakerConfig(), app.Logger)
}

func buildStore(ctx context.Context, app *App) (store.Repository, error) {
	dbCfg := database.Config{
		Driver:     database.Driver(app.Config.Database.Driver),
		URL:        app.Config.Database.URL,
		SQLitePath: app.Config.Database.SQLitePath,
	}
	return store.NewRepository(ctx, dbCfg, app.Config.Database.EncryptionKey)
}

func buildPublisher(app *App) (eventbus.Publisher, error) {
	if !app.Config.Broker.Enabled {
		return eventbus.NewNoopPublisher(app.Logger), nil
	}
	return eventbus.NewRabbitMQPublisher(app.Config.Broker.URL, app.Logger)
}

func buildPolicy(app *App) (*runtime.Executor, func(), error) {
	reg := registry.New(app.Logger)

	if app.Config.Policy.PluginPath != "" {
		impl, kill, err := registry.LoadPlugin(app.Config.Policy.PluginPath, app.Logger)
		if err != nil {
			return nil, nil, err
		}
		if err := impl.Initialize(context.Background(), nil); err != nil {
			kill()
			return nil, nil, fmt.Errorf("initialize policy plugin: %w", err)
		}
		return runtime.NewExecutor(impl, runtime.DefaultConfig(), app.Logger), kill, nil
	}

	policy, err := reg.Resolve(context.Background(), app.Config.Policy.Name)
	if err != nil {
		return nil, nil, err
	}
	return runtime.NewExecutor(policy, runtime.DefaultConfig(), app.Logger), nil, nil
}
