// Package eligibility computes, once per solve and frozen before any
// variable is created, which therapists may serve which clients and in
// what search order.
//
// Grounded on original_source/solver/solver.py's eligibility precompute
// block (get_role_rank, meets_insurance) and the team-tier function in
// SPEC_FULL.md §3.
package eligibility

import (
	"sort"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/clinic/grid"
)

// Result is the frozen eligibility precompute for one solve.
type Result struct {
	// Eligible[clientIdx] is an ordered list of therapist indices into the
	// request's Therapists slice, for ABA scheduling only (role not OT/SLP).
	Eligible [][]int

	// Tier[clientIdx][localIdx] is the team-affinity tier (domain.Tier) of
	// Eligible[clientIdx][localIdx], kept parallel to Eligible.
	Tier [][]int

	// LocalIndexOf[clientIdx][therapistIdx] reverses Eligible: given a
	// therapist's index into the request's Therapists slice, yields its
	// position within Eligible[clientIdx]. Absent entries mean ineligible.
	LocalIndexOf []map[int]int

	// BlockedSlots[entityIdx] is the total slot count this client or
	// therapist has blacked out by callouts today, used for pruning and for
	// avail_c (§4.5).
	ClientBlockedSlots    []int
	TherapistBlockedSlots []int

	// MinDurSlots[clientIdx] and MaxDurSlots[clientIdx] bound a single ABA
	// session's duration (§4.3): ceil(max over the client's insurance
	// requirements of minSessionDurationMinutes) and floor(min over the
	// same of maxSessionDurationMinutes), defaulting to 4 and 12 slots.
	MinDurSlots []int
	MaxDurSlots []int

	// RemainingWeeklySlots[clientIdx] is the slot budget left this week
	// after subtracting otherDayMinutesPerClient from the tightest
	// maxHoursPerWeek cap across the client's insurance requirements; a
	// client with no such cap gets g.NumSlots (today is the only bound).
	RemainingWeeklySlots []int
}

// pair is a (therapist index, tier, role rank) tuple used only to sort one
// client's eligible list.
type pair struct {
	therapistIdx int
	tier         int
	roleRank     int
}

// Compute builds the eligibility Result for one solve. g is used to convert
// callout time ranges into slot spans, and its NumSlots is the
// callout-blackout pruning threshold (§4.2): a therapist whose blackout
// total covers the whole day is dropped from every client's list.
func Compute(req domain.SolveRequest, g grid.Grid) Result {
	numSlots := g.NumSlots
	clientBlocked := blockedSlotsByClient(req, g)
	therapistBlocked := blockedSlotsByTherapist(req, g)

	fullyBlockedTherapist := make([]bool, len(req.Therapists))
	for i, blocked := range therapistBlocked {
		if blocked >= numSlots {
			fullyBlockedTherapist[i] = true
		}
	}

	res := Result{
		Eligible:              make([][]int, len(req.Clients)),
		Tier:                  make([][]int, len(req.Clients)),
		LocalIndexOf:          make([]map[int]int, len(req.Clients)),
		ClientBlockedSlots:    clientBlocked,
		TherapistBlockedSlots: therapistBlocked,
		MinDurSlots:           make([]int, len(req.Clients)),
		MaxDurSlots:           make([]int, len(req.Clients)),
		RemainingWeeklySlots:  make([]int, len(req.Clients)),
	}

	qualByID := make(map[string]domain.InsuranceQualification, len(req.InsuranceQualifications))
	for _, q := range req.InsuranceQualifications {
		qualByID[q.ID] = q
	}

	for ci, client := range req.Clients {
		res.MinDurSlots[ci], res.MaxDurSlots[ci] = durationBoundsSlots(client, qualByID, g)
		res.RemainingWeeklySlots[ci] = remainingWeeklySlots(client, req.OtherDayMinutesPerClient, qualByID, g)
	}

	for ci, client := range req.Clients {
		var pairs []pair
		for ti, therapist := range req.Therapists {
			if fullyBlockedTherapist[ti] {
				continue
			}
			if therapist.Role == domain.RoleOT || therapist.Role == string(domain.OccupationalTherapy) {
				continue
			}
			if therapist.Role == domain.RoleSLP || therapist.Role == string(domain.SpeechLanguagePathology) {
				continue
			}
			if !meetsInsurance(therapist, client.InsuranceRequirements, req.InsuranceQualifications, req.Config.DefaultRoleRank) {
				continue
			}
			tier := domain.Tier(therapist.Role, therapist.TeamID, client.TeamID)
			if tier == domain.TierExcluded {
				continue
			}
			pairs = append(pairs, pair{
				therapistIdx: ti,
				tier:         tier,
				roleRank:     domain.RoleRank(therapist.Role, req.InsuranceQualifications, req.Config.DefaultRoleRank),
			})
		}

		sort.SliceStable(pairs, func(a, b int) bool {
			if pairs[a].tier != pairs[b].tier {
				return pairs[a].tier < pairs[b].tier
			}
			return pairs[a].roleRank < pairs[b].roleRank
		})

		eligible := make([]int, len(pairs))
		tiers := make([]int, len(pairs))
		localIndex := make(map[int]int, len(pairs))
		for i, p := range pairs {
			eligible[i] = p.therapistIdx
			tiers[i] = p.tier
			localIndex[p.therapistIdx] = i
		}

		res.Eligible[ci] = eligible
		res.Tier[ci] = tiers
		res.LocalIndexOf[ci] = localIndex
	}

	return res
}

// meetsInsurance reports whether therapist satisfies every one of a
// client's insurance requirement ids (§4.2): a requirement is met if its id
// is in the therapist's qualifications, OR the therapist's role rank
// dominates the requirement's role-hierarchy rank (both known), OR the
// therapist's role name equals the requirement id directly.
func meetsInsurance(therapist domain.Therapist, requirementIDs []string, allQuals []domain.InsuranceQualification, defaultRank map[string]int) bool {
	hasQual := make(map[string]bool, len(therapist.Qualifications))
	for _, q := range therapist.Qualifications {
		hasQual[q] = true
	}
	therapistRank := domain.RoleRank(therapist.Role, allQuals, defaultRank)

	for _, reqID := range requirementIDs {
		if hasQual[reqID] {
			continue
		}
		if therapist.Role == reqID {
			continue
		}
		reqRank := domain.RoleRank(reqID, allQuals, defaultRank)
		if therapistRank != domain.UnknownRoleRank && reqRank != domain.UnknownRoleRank && therapistRank >= reqRank {
			continue
		}
		return false
	}
	return true
}

const (
	defaultMinDurSlots = 4
	defaultMaxDurSlots = 12
)

// durationBoundsSlots computes min_dur_slots[c]/max_dur_slots[c] (§4.3):
// ceil(max over requirements of minSessionDurationMinutes), floor(min over
// requirements of maxSessionDurationMinutes), defaulting when a client has
// no requirement carrying that bound.
func durationBoundsSlots(client domain.Client, quals map[string]domain.InsuranceQualification, g grid.Grid) (int, int) {
	var maxOfMins, minOfMaxs *int
	for _, reqID := range client.InsuranceRequirements {
		q, ok := quals[reqID]
		if !ok {
			continue
		}
		if q.MinSessionDurationMinutes != nil {
			if maxOfMins == nil || *q.MinSessionDurationMinutes > *maxOfMins {
				v := *q.MinSessionDurationMinutes
				maxOfMins = &v
			}
		}
		if q.MaxSessionDurationMinutes != nil {
			if minOfMaxs == nil || *q.MaxSessionDurationMinutes < *minOfMaxs {
				v := *q.MaxSessionDurationMinutes
				minOfMaxs = &v
			}
		}
	}

	minSlots := defaultMinDurSlots
	if maxOfMins != nil {
		minSlots = g.CeilSlots(*maxOfMins)
	}
	maxSlots := defaultMaxDurSlots
	if minOfMaxs != nil {
		maxSlots = g.FloorSlots(*minOfMaxs)
	}
	if maxSlots < minSlots {
		maxSlots = minSlots
	}
	return minSlots, maxSlots
}

// remainingWeeklySlots computes remaining_weekly_slots[c]: the tightest
// maxHoursPerWeek cap across the client's insurance requirements, converted
// to slots and reduced by minutes already spent on other days this week. A
// client with no such cap is bounded only by today's grid.
func remainingWeeklySlots(client domain.Client, otherDayMinutes map[string]float64, quals map[string]domain.InsuranceQualification, g grid.Grid) int {
	var capMinutes *float64
	for _, reqID := range client.InsuranceRequirements {
		q, ok := quals[reqID]
		if !ok || q.MaxHoursPerWeek == nil {
			continue
		}
		weekMinutes := *q.MaxHoursPerWeek * 60
		if capMinutes == nil || weekMinutes < *capMinutes {
			v := weekMinutes
			capMinutes = &v
		}
	}
	if capMinutes == nil {
		return g.NumSlots
	}
	used := otherDayMinutes[client.ID]
	remainingMinutes := *capMinutes - used
	if remainingMinutes <= 0 {
		return 0
	}
	remaining := g.FloorSlots(int(remainingMinutes))
	if remaining > g.NumSlots {
		remaining = g.NumSlots
	}
	return remaining
}

func blockedSlotsByClient(req domain.SolveRequest, g grid.Grid) []int {
	idx := make(map[string]int, len(req.Clients))
	for i, c := range req.Clients {
		idx[c.ID] = i
	}
	blocked := make([]int, len(req.Clients))
	applyCallouts(req, domain.CalloutClient, idx, blocked, g)
	return blocked
}

func blockedSlotsByTherapist(req domain.SolveRequest, g grid.Grid) []int {
	idx := make(map[string]int, len(req.Therapists))
	for i, t := range req.Therapists {
		idx[t.ID] = i
	}
	blocked := make([]int, len(req.Therapists))
	applyCallouts(req, domain.CalloutTherapist, idx, blocked, g)
	return blocked
}

func applyCallouts(req domain.SolveRequest, entityType domain.CalloutEntityType, idx map[string]int, blocked []int, g grid.Grid) {
	for _, callout := range req.Callouts {
		if callout.EntityType != entityType {
			continue
		}
		i, ok := idx[callout.EntityID]
		if !ok {
			continue
		}
		if !calloutCoversDate(callout, req.SelectedDate) {
			continue
		}
		blocked[i] += calloutSlotSpan(callout, g)
	}
}

// calloutCoversDate reports whether callout's [StartDate, EndDate] range
// includes selectedDate. Dates are "YYYY-MM-DD" and compare lexically.
func calloutCoversDate(callout domain.Callout, selectedDate string) bool {
	if callout.StartDate != "" && selectedDate < callout.StartDate {
		return false
	}
	if callout.EndDate != "" && selectedDate > callout.EndDate {
		return false
	}
	return true
}

// calloutSlotSpan converts a callout's time-of-day range into a slot count
// for the selected date. A callout spanning multiple calendar days, or with
// no time range at all, blocks the entire operating day on any date it
// covers — only a callout whose date range is exactly the selected date and
// which carries a time range blocks a partial day.
func calloutSlotSpan(callout domain.Callout, g grid.Grid) int {
	if callout.StartTime == "" || callout.EndTime == "" {
		return g.NumSlots
	}
	if callout.StartDate != callout.EndDate {
		return g.NumSlots
	}
	start := g.Clamp(g.TimeToSlot(callout.StartTime))
	end := g.Clamp(g.TimeToSlot(callout.EndTime))
	if end <= start {
		return g.NumSlots
	}
	return end - start
}
