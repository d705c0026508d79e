// Package solve orchestrates one CP-SAT solve attempt per SPEC_FULL.md
// §4.6: the hard→soft two-phase retry, warm-start hint application,
// decision strategy, and solver parameter wiring.
//
// Grounded on original_source/solver/solver.py's build_and_solve control
// flow (phase retry, hint application loop), translated from Python's
// exception-flow style into Go's explicit result type, and from implicit
// float seconds into time.Duration.
package solve

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/or-tools/sat"

	"github.com/fiddlerhealth/abasolve/internal/clinic/constraints"
	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/clinic/eligibility"
	"github.com/fiddlerhealth/abasolve/internal/clinic/grid"
	"github.com/fiddlerhealth/abasolve/internal/clinic/objective"
	"github.com/fiddlerhealth/abasolve/internal/clinic/variables"
	"github.com/fiddlerhealth/abasolve/internal/policy/sdk"
)

// WallClockCap is the per-attempt solver time budget (§4.6).
const WallClockCap = 45 * time.Second

// DefaultWorkers is the search worker count used when the caller does not
// override it.
const DefaultWorkers = 4

// Params are the tunables §4.6 exposes beyond the fixed wall-clock cap.
type Params struct {
	Workers int32
	Logger  *slog.Logger
}

// Outcome is everything the extractor needs: the solved model, the arena
// it was built against, and which coverage mode ultimately ran.
type Outcome struct {
	Solver       *sat.CpSolver
	Status       sat.CpSolverStatus
	CoverageMode domain.CoverageMode
	Arena        *variables.Arena
}

// Run attempts the two-phase strategy described in §4.6 and returns the
// outcome of whichever phase produced a usable result.
func Run(ctx context.Context, req domain.SolveRequest, g grid.Grid, elig eligibility.Result, weights sdk.Weights, params Params) Outcome {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := params.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	if attemptHardFirst(req, g, elig) {
		if ctx.Err() != nil {
			return Outcome{Status: sat.Unknown, CoverageMode: domain.CoverageHard}
		}
		logger.Info("attempting hard coverage phase")
		out := attempt(ctx, req, g, elig, weights, objective.Hard, domain.CoverageHard, workers)
		if out.Status == sat.Optimal || out.Status == sat.Feasible {
			return out
		}
		logger.Info("hard coverage infeasible, retrying with soft coverage", "status", out.Status)
	}

	if ctx.Err() != nil {
		return Outcome{Status: sat.Unknown, CoverageMode: domain.CoverageSoft}
	}
	return attempt(ctx, req, g, elig, weights, objective.Soft, domain.CoverageSoft, workers)
}

// attemptHardFirst is the capacity precondition from §4.6: attempt hard
// coverage only if num_clients × num_slots ≤ num_therapists × (num_slots − 2).
func attemptHardFirst(req domain.SolveRequest, g grid.Grid, elig eligibility.Result) bool {
	if req.Day.IsWeekend() {
		return false
	}
	lhs := len(req.Clients) * g.NumSlots
	rhs := len(req.Therapists) * (g.NumSlots - 2)
	return lhs <= rhs
}

func attempt(ctx context.Context, req domain.SolveRequest, g grid.Grid, elig eligibility.Result, weights sdk.Weights, mode objective.Mode, coverageMode domain.CoverageMode, workers int32) Outcome {
	model := sat.NewCpModel()
	arena := variables.Build(model, req, g, elig)
	cres := constraints.Apply(model, req, g, elig, arena)
	objective.Build(ctx, model, req, g, elig, arena, cres, weights, mode)
	applyDecisionStrategy(model, arena)
	applyHints(model, arena, req, g)

	solver := sat.NewCpSolver()
	solver.Parameters.MaxTimeInSeconds = WallClockCap.Seconds()
	solver.Parameters.NumWorkers = workers
	solver.Parameters.LogSearchProgress = true
	solver.Parameters.LinearizationLevel = 2
	solver.Parameters.ProbingLevel = 2

	status := solver.Solve(model)

	return Outcome{
		Solver:       solver,
		Status:       status,
		CoverageMode: coverageMode,
		Arena:        arena,
	}
}

// applyDecisionStrategy biases the search toward activating ABA sessions
// first (§4.6): CHOOSE_FIRST variable selection, SELECT_MAX_VALUE domain
// reduction, over every ABA active boolean.
func applyDecisionStrategy(model *sat.CpModel, a *variables.Arena) {
	if len(a.ABASessions) == 0 {
		return
	}
	actives := make([]*sat.BoolVar, len(a.ABASessions))
	for i, s := range a.ABASessions {
		actives[i] = s.Active
	}
	model.AddDecisionStrategy(actives, sat.ChooseFirst, sat.SelectMaxValue)
}

// applyHints implements §4.6's warm-start: for each ABA entry with a valid
// client+therapist, hint the next unused (active=1, start, duration)
// triple for that pair, then hint every un-hinted pair to (active=0,
// duration=0); for each lunch entry, hint the therapist's lunch variables
// if within the window.
func applyHints(model *sat.CpModel, a *variables.Arena, req domain.SolveRequest, g grid.Grid) {
	if len(req.InitialSchedule) == 0 {
		return
	}

	clientIdx := make(map[string]int, len(req.Clients))
	for i, c := range req.Clients {
		clientIdx[c.ID] = i
	}
	therapistIdx := make(map[string]int, len(req.Therapists))
	for i, t := range req.Therapists {
		therapistIdx[t.ID] = i
	}

	usedCount := make(map[variables.PairKey]int)
	hinted := make(map[*sat.BoolVar]bool, len(a.ABASessions))

	for _, entry := range req.InitialSchedule {
		if entry.Day != req.Day {
			continue
		}
		switch entry.SessionType {
		case domain.SessionABA:
			ci, ok1 := clientIdx[entry.ClientID]
			ti, ok2 := therapistIdx[entry.TherapistID]
			if !ok1 || !ok2 {
				continue
			}
			sessions := a.SessionsForPair(ci, ti)
			key := variables.PairKey{ClientIdx: ci, TherapistIdx: ti}
			k := usedCount[key]
			if k >= len(sessions) {
				continue
			}
			s := sessions[k]
			usedCount[key]++

			startSlot := g.TimeToSlot(entry.StartTime)
			endSlot := g.TimeToSlot(entry.EndTime)
			duration := endSlot - startSlot
			if duration <= 0 {
				continue
			}

			model.AddHint(s.Active, 1)
			model.AddHint(s.Start, int64(startSlot))
			model.AddHint(s.Duration, int64(duration))
			hinted[s.Active] = true

		case domain.SessionIndirectTime:
			ti, ok := therapistIdx[entry.TherapistID]
			if !ok {
				continue
			}
			lunchIdx, ok := a.LunchIdxByTherapist[ti]
			if !ok {
				continue
			}
			startSlot := g.TimeToSlot(entry.StartTime)
			if startSlot < g.LunchWindowStart || startSlot > g.LunchWindowEnd {
				continue
			}
			l := a.Lunches[lunchIdx]
			model.AddHint(l.Active, 1)
			model.AddHint(l.Start, int64(startSlot))
		}
	}

	for _, s := range a.ABASessions {
		if hinted[s.Active] {
			continue
		}
		model.AddHint(s.Active, 0)
		model.AddHint(s.Duration, 0)
	}
}
