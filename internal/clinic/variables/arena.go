// Package variables builds every CP-SAT decision variable for one solve
// into flat arenas, per SPEC_FULL.md §4.3 and the arena+index
// re-architecture note in §9: a (client, therapist) pair's session
// variables live in a contiguous slice range rather than a nested
// per-pair structure, so the constraint and objective builders can stream
// over one flat slice instead of walking nested maps.
//
// Grounded on the sat.NewBoolVar/model.NewIntVar-style API demonstrated in
// _examples/temirov-SummerCamp25/main.go, extended by analogy to the
// interval/cumulative/OnlyEnforceIf surface of the underlying OR-Tools
// CP-SAT library.
package variables

import (
	"fmt"

	"github.com/google/or-tools/sat"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/clinic/eligibility"
	"github.com/fiddlerhealth/abasolve/internal/clinic/grid"
)

// MaxSessionsPerPair is the number of session slots allocated per
// (client, therapist) pair (§4.3).
const MaxSessionsPerPair = 2

// PairKey identifies one (client, therapist) pair by index into the
// request's Clients/Therapists slices.
type PairKey struct {
	ClientIdx    int
	TherapistIdx int
}

// PairRange is a half-open [Lo, Hi) range into a flat arena slice.
type PairRange struct {
	Lo, Hi int
}

// ABASession is one candidate (client, therapist, session index) slot.
type ABASession struct {
	ClientIdx    int
	TherapistIdx int
	K            int

	Active   *sat.BoolVar
	Start    *sat.IntVar
	Duration *sat.IntVar
	End      *sat.IntVar
	Interval *sat.IntervalVar
}

// AlliedHealthCandidate is one (need, therapist) pairing: a therapist
// eligible to fill an Allied Health need, gated by its own Chosen boolean.
type AlliedHealthCandidate struct {
	NeedIdx      int // index into Arena.AHNeeds
	TherapistIdx int

	Chosen   *sat.BoolVar
	Interval *sat.IntervalVar
}

// AlliedHealthNeedVars is one need's fixed schedule plus the range of its
// candidates in Arena.AHCandidates.
type AlliedHealthNeedVars struct {
	ClientIdx             int
	NeedIdx               int // index into the client's AlliedHealthNeeds slice
	StartSlot             int
	LengthSlots           int
	CandidateRange        PairRange
	PreferredTherapistIdx int // index into AHCandidates, or -1
}

// LunchVar is one therapist's lunch interval.
type LunchVar struct {
	TherapistIdx int

	Active   *sat.BoolVar
	Start    *sat.IntVar
	End      *sat.IntVar
	Interval *sat.IntervalVar
}

// Arena holds every decision variable for one solve, flat and indexable.
type Arena struct {
	Model *sat.CpModel

	ABASessions []ABASession
	PairRanges  map[PairKey]PairRange

	AHCandidates []AlliedHealthCandidate
	AHNeeds      []AlliedHealthNeedVars

	Lunches             []LunchVar
	LunchIdxByTherapist map[int]int
}

// Build allocates every variable described by §4.3 against model, using g
// for time conversion and elig for the frozen eligible-therapist lists and
// duration/budget bounds.
func Build(model *sat.CpModel, req domain.SolveRequest, g grid.Grid, elig eligibility.Result) *Arena {
	a := &Arena{
		Model:               model,
		PairRanges:          make(map[PairKey]PairRange),
		LunchIdxByTherapist: make(map[int]int),
	}

	if !req.Day.IsWeekend() {
		buildABASessions(a, model, req, g, elig)
	}
	buildAlliedHealth(a, model, req, g, elig)
	buildLunches(a, model, req, g)

	return a
}

func buildABASessions(a *Arena, model *sat.CpModel, req domain.SolveRequest, g grid.Grid, elig eligibility.Result) {
	for ci, client := range req.Clients {
		if elig.RemainingWeeklySlots[ci] <= 0 {
			continue
		}
		minDur := int64(elig.MinDurSlots[ci])
		maxDur := int64(elig.MaxDurSlots[ci])

		for _, ti := range elig.Eligible[ci] {
			lo := len(a.ABASessions)
			for k := 0; k < MaxSessionsPerPair; k++ {
				name := fmt.Sprintf("aba_%s_%s_%d", client.ID, req.Therapists[ti].ID, k)
				active := model.NewBoolVar(name + "_active")
				start := model.NewIntVar(0, int64(g.NumSlots), name+"_start")
				duration := model.NewIntVar(0, maxDur, name+"_dur")
				end := model.NewIntVar(0, int64(g.NumSlots), name+"_end")

				endExpr := model.NewLinearExpr()
				endExpr.AddTerm(start, 1)
				endExpr.AddTerm(duration, 1)
				model.AddEquality(end, endExpr)

				model.AddGreaterOrEqual(duration, model.NewConstant(minDur)).OnlyEnforceIf(active)
				model.AddLessOrEqual(duration, model.NewConstant(maxDur)).OnlyEnforceIf(active)
				model.AddEquality(duration, model.NewConstant(0)).OnlyEnforceIf(active.Not())

				interval := model.NewOptionalIntervalVar(start, duration, end, active, name+"_iv")

				a.ABASessions = append(a.ABASessions, ABASession{
					ClientIdx:    ci,
					TherapistIdx: ti,
					K:            k,
					Active:       active,
					Start:        start,
					Duration:     duration,
					End:          end,
					Interval:     interval,
				})
			}
			hi := len(a.ABASessions)
			a.PairRanges[PairKey{ClientIdx: ci, TherapistIdx: ti}] = PairRange{Lo: lo, Hi: hi}
		}
	}
}

func buildAlliedHealth(a *Arena, model *sat.CpModel, req domain.SolveRequest, g grid.Grid, elig eligibility.Result) {
	for ci, client := range req.Clients {
		for ni, need := range client.AlliedHealthNeeds {
			if !need.OccursOn(req.Day) {
				continue
			}
			startSlot := g.TimeToSlot(need.StartTime)
			endSlot := g.TimeToSlot(need.EndTime)
			lengthSlots := endSlot - startSlot
			if startSlot < 0 || endSlot > g.NumSlots || lengthSlots <= 0 {
				continue
			}
			// Drop the need entirely once it would push the client over
			// their weekly Allied Health minutes budget, mirroring the
			// "Check weekly minutes" skip in the original solver rather
			// than forcing an assignment the weekly-minutes constraint
			// would then have to fight.
			if lengthSlots > elig.RemainingWeeklySlots[ci] {
				continue
			}

			preferredIdx := -1
			lo := len(a.AHCandidates)
			needIdx := len(a.AHNeeds)
			for ti, therapist := range req.Therapists {
				if string(need.Type) != therapist.Role {
					continue
				}
				name := fmt.Sprintf("ah_%s_%d_%s", client.ID, ni, therapist.ID)
				chosen := model.NewBoolVar(name + "_chosen")
				startConst := model.NewConstant(int64(startSlot))
				durConst := model.NewConstant(int64(lengthSlots))
				endConst := model.NewConstant(int64(endSlot))
				interval := model.NewOptionalIntervalVar(startConst, durConst, endConst, chosen, name+"_iv")

				a.AHCandidates = append(a.AHCandidates, AlliedHealthCandidate{
					NeedIdx:      needIdx,
					TherapistIdx: ti,
					Chosen:       chosen,
					Interval:     interval,
				})
				if need.PreferredProviderID != nil && *need.PreferredProviderID == therapist.ID {
					preferredIdx = len(a.AHCandidates) - 1
				}
			}
			hi := len(a.AHCandidates)

			a.AHNeeds = append(a.AHNeeds, AlliedHealthNeedVars{
				ClientIdx:             ci,
				NeedIdx:               ni,
				StartSlot:             startSlot,
				LengthSlots:           lengthSlots,
				CandidateRange:        PairRange{Lo: lo, Hi: hi},
				PreferredTherapistIdx: preferredIdx,
			})

			if hi > lo {
				candidates := make([]*sat.BoolVar, 0, hi-lo)
				for i := lo; i < hi; i++ {
					candidates = append(candidates, a.AHCandidates[i].Chosen)
				}
				model.AddLinearConstraint(candidates, 1, 1)
				if preferredIdx >= 0 {
					model.AddHint(a.AHCandidates[preferredIdx].Chosen, 1)
				}
			}
		}
	}
}

func buildLunches(a *Arena, model *sat.CpModel, req domain.SolveRequest, g grid.Grid) {
	for ti, therapist := range req.Therapists {
		name := fmt.Sprintf("lunch_%s", therapist.ID)
		active := model.NewBoolVar(name + "_active")
		start := model.NewIntVar(int64(g.LunchWindowStart), int64(g.LunchWindowEnd), name+"_start")
		end := model.NewIntVar(0, int64(g.NumSlots), name+"_end")

		endExpr := model.NewLinearExpr()
		endExpr.AddTerm(start, 1)
		endExpr.AddConstant(int64(grid.LunchSlots))
		model.AddEquality(end, endExpr)

		durationConst := model.NewConstant(int64(grid.LunchSlots))
		interval := model.NewOptionalIntervalVar(start, durationConst, end, active, name+"_iv")

		a.Lunches = append(a.Lunches, LunchVar{
			TherapistIdx: ti,
			Active:       active,
			Start:        start,
			End:          end,
			Interval:     interval,
		})
		a.LunchIdxByTherapist[ti] = len(a.Lunches) - 1
	}
}

// SessionsForPair returns the ABASession slice for one (client, therapist)
// pair, or nil if the pair has no sessions (client had no budget, or
// therapist was ineligible).
func (a *Arena) SessionsForPair(clientIdx, therapistIdx int) []ABASession {
	r, ok := a.PairRanges[PairKey{ClientIdx: clientIdx, TherapistIdx: therapistIdx}]
	if !ok {
		return nil
	}
	return a.ABASessions[r.Lo:r.Hi]
}
