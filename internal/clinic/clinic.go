// Package clinic is the scheduling core's single entry point. Solve wires
// the leaf-to-root pipeline SPEC_FULL.md §2 describes: grid → eligibility
// → variables → constraints → objective → solve → extract.
package clinic

import (
	"context"
	"log/slog"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/clinic/eligibility"
	"github.com/fiddlerhealth/abasolve/internal/clinic/extract"
	"github.com/fiddlerhealth/abasolve/internal/clinic/grid"
	"github.com/fiddlerhealth/abasolve/internal/clinic/solve"
	"github.com/fiddlerhealth/abasolve/internal/policy/sdk"
)

// Deps are the caller-supplied collaborators Solve needs beyond the
// request itself: the objective weight policy and solver tunables. Both
// have zero values that behave reasonably (builtin.Default weights would
// be supplied by the caller; Params zero value falls back to §4.6's
// defaults inside internal/clinic/solve).
type Deps struct {
	Weights sdk.Weights
	Params  solve.Params
}

// Solve runs one complete scheduling attempt for req and returns the
// caller-facing response. It never mutates req.
func Solve(ctx context.Context, req domain.SolveRequest, deps Deps) (domain.SolveResponse, error) {
	if len(req.Clients) == 0 || len(req.Therapists) == 0 {
		return domain.SolveResponse{
			Schedule:      nil,
			Success:       true,
			StatusMessage: "No clients or therapists to schedule.",
		}, nil
	}

	g, err := grid.New(req.Config)
	if err != nil {
		return domain.SolveResponse{}, err
	}

	if deps.Params.Logger == nil {
		deps.Params.Logger = slog.Default()
	}

	elig := eligibility.Compute(req, g)

	out := solve.Run(ctx, req, g, elig, deps.Weights, deps.Params)

	return extract.FromOutcome(out, req, g), nil
}
