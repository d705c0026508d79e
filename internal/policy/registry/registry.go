// Package registry resolves a configured policy name to a builtin
// implementation or a loaded out-of-process plugin, falling back to
// builtin.Default when nothing is configured.
//
// Adapted from internal/engine/registry/registry.go's builtin-vs-factory
// registration and internal/engine/registry/loader.go's plugin.NewClient
// construction, redirected at go-plugin's net/rpc transport
// (internal/policy/rpcplugin) instead of the teacher's gRPC scaffolding.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/fiddlerhealth/abasolve/internal/policy/builtin"
	"github.com/fiddlerhealth/abasolve/internal/policy/rpcplugin"
	"github.com/fiddlerhealth/abasolve/internal/policy/sdk"
)

// Registry resolves policy names to sdk.Policy instances.
type Registry struct {
	builtins map[string]func() sdk.Policy
	logger   *slog.Logger
}

// New returns a Registry preloaded with the two builtin policies.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		builtins: map[string]func() sdk.Policy{
			"default":  builtin.Default,
			"balanced": builtin.Balanced,
		},
		logger: logger,
	}
}

// Resolve returns the named builtin, or builtin.Default if name is empty.
// An unrecognized name is an error; plugins are loaded with LoadPlugin.
func (r *Registry) Resolve(ctx context.Context, name string) (sdk.Policy, error) {
	if name == "" {
		return builtin.Default(), nil
	}
	if factory, ok := r.builtins[name]; ok {
		return factory(), nil
	}
	return nil, fmt.Errorf("policy: unknown builtin %q (known: default, balanced; use LoadPlugin for an external binary)", name)
}

// LoadPlugin launches binaryPath as a go-plugin net/rpc policy plugin and
// returns a client implementing sdk.Policy. The caller is responsible for
// calling the returned kill function when done with the plugin.
func LoadPlugin(binaryPath string, logger *slog.Logger) (sdk.Policy, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: rpcplugin.Handshake,
		Plugins:         rpcplugin.PluginMap,
		Cmd:             exec.Command(binaryPath),
		Logger:          hclog.FromStandardLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug), &hclog.LoggerOptions{}),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("policy: launching plugin %s: %w", binaryPath, err)
	}

	raw, err := rpcClient.Dispense("policy")
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("policy: dispensing plugin %s: %w", binaryPath, err)
	}

	impl, ok := raw.(sdk.Policy)
	if !ok {
		client.Kill()
		return nil, nil, fmt.Errorf("policy: plugin %s does not implement sdk.Policy", binaryPath)
	}

	return impl, client.Kill, nil
}
