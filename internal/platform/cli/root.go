// Package cli builds abasolve's cobra command tree: solve, plugin list, and
// health. Every RunE returns an error instead of calling os.Exit directly —
// cmd/abasolve/main.go is the only place that translates a returned error
// into a process exit code, the same separation the teacher's adapter/cli
// commands use.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fiddlerhealth/abasolve/internal/platform/config"
)

// App bundles the dependencies every subcommand needs.
type App struct {
	Config *config.Config
	Logger *slog.Logger
}

// NewRootCommand builds the top-level `abasolve` command and attaches its
// subcommands.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "abasolve",
		Short: "CP-SAT-based scheduler for ABA and allied-health pediatric clinics",
		Long: "abasolve solves one day's therapist-to-client schedule, balancing hard\n" +
			"coverage requirements against fairness and continuity objectives using\n" +
			"Google OR-Tools' CP-SAT solver.",
		SilenceUsage: true,
	}

	root.AddCommand(newSolveCommand(app))
	root.AddCommand(newPluginCommand(app))
	root.AddCommand(newHealthCommand(app))

	return root
}
