// Package objective builds the weighted minimization objective described
// by SPEC_FULL.md §4.5: coverage (hard equality or soft lower-bound plus
// penalty), balance excess, team tier, and note count.
//
// Grounded on original_source/solver/solver.py's objective-assembly block
// for structure (which terms exist, which quantities they multiply); every
// weight value comes from internal/policy (the builtin default matches
// SPEC_FULL.md §4.5, never that Python file's stale pre-spec constants).
package objective

import (
	"context"

	"github.com/google/or-tools/sat"

	"github.com/fiddlerhealth/abasolve/internal/clinic/constraints"
	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/clinic/eligibility"
	"github.com/fiddlerhealth/abasolve/internal/clinic/grid"
	"github.com/fiddlerhealth/abasolve/internal/clinic/variables"
	"github.com/fiddlerhealth/abasolve/internal/policy/sdk"
)

// Mode selects whether coverage is a hard equality constraint or a soft
// lower bound plus penalty term (§4.6's two-phase strategy).
type Mode int

const (
	Hard Mode = iota
	Soft
)

// AvailableSlots is avail_c from §4.5: a client's total available slots
// today, after subtracting callout blackout and Allied Health length,
// clipped to ≥ 0.
func AvailableSlots(req domain.SolveRequest, g grid.Grid, elig eligibility.Result, clientIdx int) int {
	ahLength := 0
	for _, need := range req.Clients[clientIdx].AlliedHealthNeeds {
		if !need.OccursOn(req.Day) {
			continue
		}
		startSlot := g.TimeToSlot(need.StartTime)
		endSlot := g.TimeToSlot(need.EndTime)
		if endSlot > startSlot {
			ahLength += endSlot - startSlot
		}
	}
	avail := g.NumSlots - elig.ClientBlockedSlots[clientIdx] - ahLength
	if avail < 0 {
		avail = 0
	}
	return avail
}

// CapacityRatio is min(1, total_therapist_capacity / total_client_available)
// from §4.5's soft-phase min_cov_c formula.
func CapacityRatio(req domain.SolveRequest, g grid.Grid, elig eligibility.Result) float64 {
	var totalTherapistCapacity, totalClientAvailable float64
	for ti := range req.Therapists {
		totalTherapistCapacity += float64(g.NumSlots - elig.TherapistBlockedSlots[ti])
	}
	for ci := range req.Clients {
		totalClientAvailable += float64(AvailableSlots(req, g, elig, ci))
	}
	if totalClientAvailable <= 0 {
		return 1
	}
	ratio := totalTherapistCapacity / totalClientAvailable
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

// MinCoverageSlots is min_cov_c from §4.5's soft phase.
func MinCoverageSlots(avail, remainingWeekly, minDurSlots int, capacityRatio float64) int {
	candidate := int(float64(avail) * capacityRatio * 0.85)
	if candidate < minDurSlots {
		candidate = minDurSlots
	}
	minCov := avail
	if remainingWeekly < minCov {
		minCov = remainingWeekly
	}
	if candidate < minCov {
		minCov = candidate
	}
	if minCov < 0 {
		minCov = 0
	}
	return minCov
}

// Build adds every objective term to model and calls model.Minimise. mode
// selects hard-equality or soft-lower-bound coverage (§4.6 decides which
// to attempt). weights comes from a loaded policy (§11.2), resolved once
// per solve before Build is called.
func Build(ctx context.Context, model *sat.CpModel, req domain.SolveRequest, g grid.Grid, elig eligibility.Result, a *variables.Arena, cres constraints.Result, weights sdk.Weights, mode Mode) {
	expr := model.NewLinearExpr()

	if !req.Day.IsWeekend() {
		addCoverage(model, req, g, elig, a, weights, mode, expr)
		addTeamTier(req, elig, a, weights, expr)
		addNoteCount(a, weights, expr)
	}
	addBalanceExcess(model, req, elig, a, cres, weights, expr)

	model.Minimise(expr)
}

func addCoverage(model *sat.CpModel, req domain.SolveRequest, g grid.Grid, elig eligibility.Result, a *variables.Arena, weights sdk.Weights, mode Mode, expr *sat.LinearExpr) {
	capacityRatio := CapacityRatio(req, g, elig)

	for ci := range req.Clients {
		avail := AvailableSlots(req, g, elig, ci)
		if avail <= 0 {
			continue
		}

		durationExpr := model.NewLinearExpr()
		for _, s := range a.ABASessions {
			if s.ClientIdx == ci {
				durationExpr.AddTerm(s.Duration, 1)
			}
		}

		switch mode {
		case Hard:
			model.AddEquality(durationExpr, model.NewConstant(int64(avail)))
		case Soft:
			minCov := MinCoverageSlots(avail, elig.RemainingWeeklySlots[ci], elig.MinDurSlots[ci], capacityRatio)
			model.AddGreaterOrEqual(durationExpr, model.NewConstant(int64(minCov)))

			uncov := model.NewIntVar(0, int64(avail), "uncov")
			uncovExpr := model.NewLinearExpr()
			uncovExpr.AddTerm(uncov, 1)
			for _, s := range a.ABASessions {
				if s.ClientIdx == ci {
					uncovExpr.AddTerm(s.Duration, 1)
				}
			}
			model.AddEquality(uncovExpr, model.NewConstant(int64(avail)))

			expr.AddTerm(uncov, weights.CoverageGapPerSlot)
		}
	}
}

func addTeamTier(req domain.SolveRequest, elig eligibility.Result, a *variables.Arena, weights sdk.Weights, expr *sat.LinearExpr) {
	for _, s := range a.ABASessions {
		localIdx, ok := elig.LocalIndexOf[s.ClientIdx][s.TherapistIdx]
		if !ok {
			continue
		}
		tier := elig.Tier[s.ClientIdx][localIdx]
		if tier < 0 || tier >= len(weights.TeamTier) {
			continue
		}
		w := weights.TeamTier[tier]
		if w != 0 {
			expr.AddTerm(s.Duration, w)
		}
	}
}

func addNoteCount(a *variables.Arena, weights sdk.Weights, expr *sat.LinearExpr) {
	if weights.NoteCountPerSession == 0 {
		return
	}
	for _, s := range a.ABASessions {
		expr.AddTerm(s.Active, weights.NoteCountPerSession)
	}
}

func addBalanceExcess(model *sat.CpModel, req domain.SolveRequest, elig eligibility.Result, a *variables.Arena, cres constraints.Result, weights sdk.Weights, expr *sat.LinearExpr) {
	if weights.BalanceExcessPerSlot == 0 {
		return
	}

	billableSlotsByTherapist := make(map[int]*sat.LinearExpr)
	for ti := range req.Therapists {
		te := model.NewLinearExpr()
		for _, s := range a.ABASessions {
			if s.TherapistIdx == ti {
				te.AddTerm(s.Duration, 1)
			}
		}
		for ci := range req.Clients {
			key := variables.PairKey{ClientIdx: ci, TherapistIdx: ti}
			if _, ok := cres.Providers[key]; ok {
				for _, need := range a.AHNeeds {
					if need.ClientIdx != ci {
						continue
					}
					for i := need.CandidateRange.Lo; i < need.CandidateRange.Hi; i++ {
						if a.AHCandidates[i].TherapistIdx == ti {
							te.AddTerm(a.AHCandidates[i].Chosen, int64(need.LengthSlots))
						}
					}
				}
			}
		}
		billableSlotsByTherapist[ti] = te
	}

	rank := make([]int, len(req.Therapists))
	for ti, t := range req.Therapists {
		rank[ti] = domain.RoleRank(t.Role, req.InsuranceQualifications, req.Config.DefaultRoleRank)
	}

	for i := range req.Therapists {
		for j := range req.Therapists {
			if rank[i] <= rank[j] {
				continue
			}
			excess := model.NewIntVar(0, int64(1<<20), "balance_excess")
			diffExpr := model.NewLinearExpr()
			diffExpr.AddLinearExpr(billableSlotsByTherapist[i], 1)
			diffExpr.AddLinearExpr(billableSlotsByTherapist[j], -1)

			model.AddMaxEquality(excess, []*sat.LinearExpr{diffExpr, model.NewLinearExpr()})
			expr.AddTerm(excess, weights.BalanceExcessPerSlot)
		}
	}
}
