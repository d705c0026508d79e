// Package builtin ships the two in-process weight policies: Default (the
// §4.5 table verbatim) and Balanced (halves team-tier and balance weights
// for deployments that want coverage to dominate preference).
package builtin

import (
	"context"

	"github.com/fiddlerhealth/abasolve/internal/policy/sdk"
)

// DefaultWeights is the objective weight table from SPEC_FULL.md §4.5.
var DefaultWeights = sdk.Weights{
	CoverageGapPerSlot:   100000,
	BalanceExcessPerSlot: 10,
	TeamTier:             [4]int64{0, 500, 800, 1500},
	NoteCountPerSession:  500,
}

// BalancedWeights halves the team-tier and balance-excess weights so
// coverage dominates the search over therapist-preference shaping.
var BalancedWeights = sdk.Weights{
	CoverageGapPerSlot:   100000,
	BalanceExcessPerSlot: 5,
	TeamTier:             [4]int64{0, 250, 400, 750},
	NoteCountPerSession:  500,
}

// staticPolicy is a Policy that always returns the same Weights value.
type staticPolicy struct {
	meta    sdk.Metadata
	weights sdk.Weights
}

// Default is the builtin policy used when no plugin is configured.
func Default() sdk.Policy {
	return &staticPolicy{
		meta: sdk.Metadata{
			Type:        "builtin",
			Name:        "default",
			Version:     "1.0.0",
			Description: "the objective weight table from spec section 4.5",
		},
		weights: DefaultWeights,
	}
}

// Balanced is the builtin policy that biases coverage over preference.
func Balanced() sdk.Policy {
	return &staticPolicy{
		meta: sdk.Metadata{
			Type:        "builtin",
			Name:        "balanced",
			Version:     "1.0.0",
			Description: "halves team-tier and balance weights so coverage dominates",
		},
		weights: BalancedWeights,
	}
}

func (p *staticPolicy) Metadata() sdk.Metadata { return p.meta }

func (p *staticPolicy) Initialize(ctx context.Context, config map[string]string) error {
	return nil
}

func (p *staticPolicy) Weights(ctx context.Context, date string) (sdk.Weights, error) {
	return p.weights, nil
}

func (p *staticPolicy) HealthCheck(ctx context.Context) error { return nil }

func (p *staticPolicy) Shutdown(ctx context.Context) error { return nil }
