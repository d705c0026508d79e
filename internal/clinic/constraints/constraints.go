// Package constraints assembles every CP-SAT constraint described by
// SPEC_FULL.md §4.4 over an already-built variable arena.
//
// Grounded on original_source/solver/solver.py's constraint-emission block
// (no-overlap calls, the back-to-back btb_* ordering variables, the
// add_max_equality-shaped lunch-iff-billable linkage); the cumulative
// constraint's demand/capacity/time-table framing is cross-grounded
// against the Cumulative struct documentation in
// _examples/other_examples/578775d8_gitrdm-gokando__pkg-minikanren-cumulative.go.go,
// the only pack file that explains a time-table cumulative constraint in
// Go prose.
package constraints

import (
	"github.com/google/or-tools/sat"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/clinic/eligibility"
	"github.com/fiddlerhealth/abasolve/internal/clinic/grid"
	"github.com/fiddlerhealth/abasolve/internal/clinic/variables"
)

// MaxNotesPerTherapist caps how many billable units (ABA sessions plus
// Allied Health assignments) one therapist may carry in a day (§4.4).
const MaxNotesPerTherapist = 4

// Provider is the per-(client, therapist) "did this pair do any work
// today" boolean used by the max-providers-per-client constraint and
// reused by the objective's balance-excess term.
type Provider struct {
	ClientIdx    int
	TherapistIdx int
	Var          *sat.BoolVar
}

// Result carries constraint-assembly byproducts the objective builder
// needs but that are not themselves stored on the arena (providers,
// per-therapist billable indicators).
type Result struct {
	// Providers[clientIdx][therapistIdx] is the prov_{c,t} boolean.
	Providers map[variables.PairKey]*sat.BoolVar

	// Billable[therapistIdx] is has_billable_t, the OR of everything that
	// consumes that therapist today.
	Billable []*sat.BoolVar
}

// Apply builds every constraint in §4.4 against model and returns the
// providers/billable indicators the objective builder needs.
func Apply(model *sat.CpModel, req domain.SolveRequest, g grid.Grid, elig eligibility.Result, a *variables.Arena) Result {
	res := Result{
		Providers: make(map[variables.PairKey]*sat.BoolVar),
		Billable:  make([]*sat.BoolVar, len(req.Therapists)),
	}

	calloutIntervals := buildCalloutIntervals(model, req, g)

	noOverlapPerTherapist(model, req, a, calloutIntervals)
	noOverlapPerClient(model, req, a, calloutIntervals)
	maxProvidersPerClient(model, req, elig, a, &res)
	weeklyMinutes(model, req, g, elig, a)
	symmetryBreaking(model, a)
	lunchStaggering(model, req, a)
	lunchIffBillable(model, req, a, &res)
	maxNotesPerTherapist(model, req, a)

	return res
}

type calloutInterval struct {
	entityType domain.CalloutEntityType
	entityIdx  int
	interval   *sat.IntervalVar
}

// buildCalloutIntervals materializes every callout on the selected date as
// a mandatory fixed interval, for inclusion in the relevant no-overlap
// pool.
func buildCalloutIntervals(model *sat.CpModel, req domain.SolveRequest, g grid.Grid) []calloutInterval {
	clientIdx := make(map[string]int, len(req.Clients))
	for i, c := range req.Clients {
		clientIdx[c.ID] = i
	}
	therapistIdx := make(map[string]int, len(req.Therapists))
	for i, t := range req.Therapists {
		therapistIdx[t.ID] = i
	}

	var out []calloutInterval
	for _, callout := range req.Callouts {
		if callout.StartDate != "" && req.SelectedDate < callout.StartDate {
			continue
		}
		if callout.EndDate != "" && req.SelectedDate > callout.EndDate {
			continue
		}

		startSlot, endSlot := 0, g.NumSlots
		if callout.StartTime != "" && callout.EndTime != "" && callout.StartDate == callout.EndDate {
			startSlot = g.Clamp(g.TimeToSlot(callout.StartTime))
			endSlot = g.Clamp(g.TimeToSlot(callout.EndTime))
			if endSlot <= startSlot {
				startSlot, endSlot = 0, g.NumSlots
			}
		}

		startConst := model.NewConstant(int64(startSlot))
		durConst := model.NewConstant(int64(endSlot - startSlot))
		endConst := model.NewConstant(int64(endSlot))
		interval := model.NewIntervalVar(startConst, durConst, endConst, "callout_blackout")

		switch callout.EntityType {
		case domain.CalloutClient:
			if idx, ok := clientIdx[callout.EntityID]; ok {
				out = append(out, calloutInterval{entityType: domain.CalloutClient, entityIdx: idx, interval: interval})
			}
		case domain.CalloutTherapist:
			if idx, ok := therapistIdx[callout.EntityID]; ok {
				out = append(out, calloutInterval{entityType: domain.CalloutTherapist, entityIdx: idx, interval: interval})
			}
		}
	}
	return out
}

func noOverlapPerTherapist(model *sat.CpModel, req domain.SolveRequest, a *variables.Arena, callouts []calloutInterval) {
	pools := make([][]*sat.IntervalVar, len(req.Therapists))
	for _, s := range a.ABASessions {
		pools[s.TherapistIdx] = append(pools[s.TherapistIdx], s.Interval)
	}
	for _, c := range a.AHCandidates {
		pools[c.TherapistIdx] = append(pools[c.TherapistIdx], c.Interval)
	}
	for _, l := range a.Lunches {
		pools[l.TherapistIdx] = append(pools[l.TherapistIdx], l.Interval)
	}
	for _, co := range callouts {
		if co.entityType == domain.CalloutTherapist {
			pools[co.entityIdx] = append(pools[co.entityIdx], co.interval)
		}
	}
	for _, pool := range pools {
		if len(pool) > 1 {
			model.AddNoOverlap(pool)
		}
	}
}

func noOverlapPerClient(model *sat.CpModel, req domain.SolveRequest, a *variables.Arena, callouts []calloutInterval) {
	pools := make([][]*sat.IntervalVar, len(req.Clients))
	for _, s := range a.ABASessions {
		pools[s.ClientIdx] = append(pools[s.ClientIdx], s.Interval)
	}
	for _, need := range a.AHNeeds {
		for i := need.CandidateRange.Lo; i < need.CandidateRange.Hi; i++ {
			pools[need.ClientIdx] = append(pools[need.ClientIdx], a.AHCandidates[i].Interval)
		}
	}
	for _, co := range callouts {
		if co.entityType == domain.CalloutClient {
			pools[co.entityIdx] = append(pools[co.entityIdx], co.interval)
		}
	}
	for _, pool := range pools {
		if len(pool) > 1 {
			model.AddNoOverlap(pool)
		}
	}
}

func maxProvidersPerClient(model *sat.CpModel, req domain.SolveRequest, elig eligibility.Result, a *variables.Arena, res *Result) {
	// AH-only-eligible therapists: any therapist who appears as an AH
	// candidate for this client but never as an ABA-eligible therapist.
	ahOnlyByClient := make(map[int]map[int]bool)
	for _, need := range a.AHNeeds {
		for i := need.CandidateRange.Lo; i < need.CandidateRange.Hi; i++ {
			cand := a.AHCandidates[i]
			if ahOnlyByClient[need.ClientIdx] == nil {
				ahOnlyByClient[need.ClientIdx] = make(map[int]bool)
			}
			ahOnlyByClient[need.ClientIdx][cand.TherapistIdx] = true
		}
	}

	qualByID := make(map[string]domain.InsuranceQualification, len(req.InsuranceQualifications))
	for _, q := range req.InsuranceQualifications {
		qualByID[q.ID] = q
	}

	for ci, client := range req.Clients {
		therapistSet := make(map[int]bool)
		for _, ti := range elig.Eligible[ci] {
			therapistSet[ti] = true
		}
		for ti := range ahOnlyByClient[ci] {
			therapistSet[ti] = true
		}

		var providers []*sat.BoolVar
		for ti := range therapistSet {
			lits := activityLiterals(a, ci, ti)
			if len(lits) == 0 {
				continue
			}
			provVar := model.NewBoolVar("prov")
			model.AddBoolOr(lits).OnlyEnforceIf(provVar)
			for _, lit := range lits {
				model.AddImplication(lit, provVar)
			}
			key := variables.PairKey{ClientIdx: ci, TherapistIdx: ti}
			res.Providers[key] = provVar
			providers = append(providers, provVar)
		}

		maxTherapists := maxTherapistsPerDay(client, qualByID)
		if maxTherapists != nil && len(providers) > 0 {
			model.AddLinearConstraint(providers, 0, int64(*maxTherapists))
		}
	}
}

func activityLiterals(a *variables.Arena, clientIdx, therapistIdx int) []*sat.BoolVar {
	var lits []*sat.BoolVar
	for _, s := range a.SessionsForPair(clientIdx, therapistIdx) {
		lits = append(lits, s.Active)
	}
	for _, need := range a.AHNeeds {
		if need.ClientIdx != clientIdx {
			continue
		}
		for i := need.CandidateRange.Lo; i < need.CandidateRange.Hi; i++ {
			if a.AHCandidates[i].TherapistIdx == therapistIdx {
				lits = append(lits, a.AHCandidates[i].Chosen)
			}
		}
	}
	return lits
}

func maxTherapistsPerDay(client domain.Client, quals map[string]domain.InsuranceQualification) *int {
	var tightest *int
	for _, reqID := range client.InsuranceRequirements {
		q, ok := quals[reqID]
		if !ok || q.MaxTherapistsPerDay == nil {
			continue
		}
		if tightest == nil || *q.MaxTherapistsPerDay < *tightest {
			v := *q.MaxTherapistsPerDay
			tightest = &v
		}
	}
	return tightest
}

func weeklyMinutes(model *sat.CpModel, req domain.SolveRequest, g grid.Grid, elig eligibility.Result, a *variables.Arena) {
	for ci := range req.Clients {
		budget := elig.RemainingWeeklySlots[ci]
		if budget >= g.NumSlots*variables.MaxSessionsPerPair {
			continue
		}

		expr := model.NewLinearExpr()
		for _, s := range a.ABASessions {
			if s.ClientIdx == ci {
				expr.AddTerm(s.Duration, 1)
			}
		}
		for _, need := range a.AHNeeds {
			if need.ClientIdx != ci {
				continue
			}
			for i := need.CandidateRange.Lo; i < need.CandidateRange.Hi; i++ {
				expr.AddTerm(a.AHCandidates[i].Chosen, int64(need.LengthSlots))
			}
		}
		model.AddLessOrEqual(expr, model.NewConstant(int64(budget)))
	}
}

func symmetryBreaking(model *sat.CpModel, a *variables.Arena) {
	for _, pairRange := range a.PairRanges {
		sessions := a.ABASessions[pairRange.Lo:pairRange.Hi]
		if len(sessions) != variables.MaxSessionsPerPair {
			continue
		}
		s0, s1 := sessions[0], sessions[1]

		model.AddImplication(s1.Active, s0.Active)

		both := model.NewBoolVar("both")
		model.AddBoolAnd([]*sat.BoolVar{s0.Active, s1.Active}).OnlyEnforceIf(both)
		model.AddImplication(both, s0.Active)
		model.AddImplication(both, s1.Active)
		bothLink := model.NewLinearExpr()
		bothLink.AddTerm(s0.Active, 1)
		bothLink.AddTerm(s1.Active, 1)
		bothLink.AddTerm(both, -1)
		model.AddLessOrEqual(bothLink, model.NewConstant(1))

		expr := model.NewLinearExpr()
		expr.AddTerm(s0.Start, 1)
		expr.AddTerm(s0.Duration, 1)
		expr.AddConstant(1)
		model.AddGreaterOrEqual(s1.Start, expr).OnlyEnforceIf(both)
	}
}

func lunchStaggering(model *sat.CpModel, req domain.SolveRequest, a *variables.Arena) {
	if len(a.Lunches) == 0 {
		return
	}
	intervals := make([]*sat.IntervalVar, 0, len(a.Lunches))
	demands := make([]int64, 0, len(a.Lunches))
	for _, l := range a.Lunches {
		intervals = append(intervals, l.Interval)
		demands = append(demands, 1)
	}
	capacity := int64(len(req.Therapists)) / 4
	if capacity < 1 {
		capacity = 1
	}
	model.AddCumulative(intervals, demands, capacity)
}

func lunchIffBillable(model *sat.CpModel, req domain.SolveRequest, a *variables.Arena, res *Result) {
	litsByTherapist := make([][]*sat.BoolVar, len(req.Therapists))
	for _, s := range a.ABASessions {
		litsByTherapist[s.TherapistIdx] = append(litsByTherapist[s.TherapistIdx], s.Active)
	}
	for _, c := range a.AHCandidates {
		litsByTherapist[c.TherapistIdx] = append(litsByTherapist[c.TherapistIdx], c.Chosen)
	}

	for ti := range req.Therapists {
		lits := litsByTherapist[ti]
		billable := model.NewBoolVar("billable")
		if len(lits) == 0 {
			model.AddEquality(billable, model.NewConstant(0))
		} else {
			model.AddBoolOr(lits).OnlyEnforceIf(billable)
			for _, lit := range lits {
				model.AddImplication(lit, billable)
			}
		}
		res.Billable[ti] = billable

		lunchIdx, ok := a.LunchIdxByTherapist[ti]
		if !ok {
			continue
		}
		lunchActive := a.Lunches[lunchIdx].Active
		model.AddImplication(billable, lunchActive)
		model.AddImplication(lunchActive, billable)
	}
}

func maxNotesPerTherapist(model *sat.CpModel, req domain.SolveRequest, a *variables.Arena) {
	litsByTherapist := make([][]*sat.BoolVar, len(req.Therapists))
	for _, s := range a.ABASessions {
		litsByTherapist[s.TherapistIdx] = append(litsByTherapist[s.TherapistIdx], s.Active)
	}
	for _, c := range a.AHCandidates {
		litsByTherapist[c.TherapistIdx] = append(litsByTherapist[c.TherapistIdx], c.Chosen)
	}
	for _, lits := range litsByTherapist {
		if len(lits) > 0 {
			model.AddLinearConstraint(lits, 0, MaxNotesPerTherapist)
		}
	}
}
