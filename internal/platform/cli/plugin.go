package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fiddlerhealth/abasolve/internal/policy/registry"
)

func newPluginCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Inspect the configured objective-weight policy",
	}
	cmd.AddCommand(newPluginListCommand(app))
	return cmd
}

func newPluginListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Report the configured policy and its health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPluginList(cmd.Context(), app)
		},
	}
}

func runPluginList(ctx context.Context, app *App) error {
	if app.Config.Policy.PluginPath != "" {
		impl, kill, err := registry.LoadPlugin(app.Config.Policy.PluginPath, app.Logger)
		if err != nil {
			fmt.Printf("policy: plugin %s (load failed: %v)\n", app.Config.Policy.PluginPath, err)
			return nil
		}
		defer kill()

		meta := impl.Metadata()
		healthErr := impl.HealthCheck(ctx)
		status := "healthy"
		if healthErr != nil {
			status = fmt.Sprintf("unhealthy: %v", healthErr)
		}
		fmt.Printf("policy: %s (%s) v%s — %s — %s\n", meta.Name, meta.Type, meta.Version, app.Config.Policy.PluginPath, status)
		return nil
	}

	reg := registry.New(app.Logger)
	policy, err := reg.Resolve(ctx, app.Config.Policy.Name)
	if err != nil {
		return err
	}
	meta := policy.Metadata()
	fmt.Printf("policy: %s (%s) v%s — builtin\n", meta.Name, meta.Type, meta.Version)
	return nil
}
