// Command policyplugin is an example out-of-process objective-weight
// policy, demonstrating how a third party builds a weight policy for
// abasolve using the public internal/policy/sdk contract and
// internal/policy/rpcplugin's net/rpc transport. Modeled on the teacher's
// examples/engines/acme-eisenhower plugin: a small New() constructor plus a
// main that just calls the SDK's Serve helper.
//
// Usage:
//
//	go build -o holiday-policy ./cmd/policyplugin
//	ABASOLVE_POLICY_PLUGIN_PATH=./holiday-policy abasolve solve
package main

import (
	"context"
	"strings"

	"github.com/fiddlerhealth/abasolve/internal/policy/builtin"
	"github.com/fiddlerhealth/abasolve/internal/policy/rpcplugin"
	"github.com/fiddlerhealth/abasolve/internal/policy/sdk"
)

// HolidayPolicy loosens balance and team-tier penalties on a configured set
// of dates, on the theory that fair-share balance matters less on a day
// when a clinic is already running a reduced schedule.
type HolidayPolicy struct {
	holidays map[string]bool
}

// New creates a HolidayPolicy with no holidays configured; Initialize
// populates the holiday set from its config map.
func New() *HolidayPolicy {
	return &HolidayPolicy{holidays: map[string]bool{}}
}

// Metadata implements sdk.Policy.
func (p *HolidayPolicy) Metadata() sdk.Metadata {
	return sdk.Metadata{
		Type:        "weights",
		Name:        "acme.holiday",
		Version:     "1.0.0",
		Description: "Loosens balance and team-tier penalties on configured holiday dates",
	}
}

// Initialize reads a comma-separated "holidays" config value of
// "YYYY-MM-DD" dates.
func (p *HolidayPolicy) Initialize(ctx context.Context, config map[string]string) error {
	p.holidays = map[string]bool{}
	for _, date := range strings.Split(config["holidays"], ",") {
		date = strings.TrimSpace(date)
		if date != "" {
			p.holidays[date] = true
		}
	}
	return nil
}

// Weights returns the builtin balanced weights on a configured holiday,
// otherwise the builtin default weights.
func (p *HolidayPolicy) Weights(ctx context.Context, date string) (sdk.Weights, error) {
	if p.holidays[date] {
		return builtin.Balanced().Weights(ctx, date)
	}
	return builtin.Default().Weights(ctx, date)
}

// HealthCheck always succeeds; this policy holds no external connections.
func (p *HolidayPolicy) HealthCheck(ctx context.Context) error {
	return nil
}

// Shutdown is a no-op.
func (p *HolidayPolicy) Shutdown(ctx context.Context) error {
	return nil
}

func main() {
	rpcplugin.Serve(New())
}
