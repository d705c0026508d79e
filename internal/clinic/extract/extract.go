// Package extract decodes a solved (or partially solved) CP-SAT model into
// the wire-level []domain.ScheduleEntry the caller receives, per
// SPEC_FULL.md §4.7.
//
// Grounded on original_source/solver/solver.py's extraction loop,
// specifically its ScheduleEntry(id=f"cpsat-{uuid.uuid4().hex[:12]}", ...)
// id format.
package extract

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/or-tools/sat"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/clinic/grid"
	"github.com/fiddlerhealth/abasolve/internal/clinic/solve"
)

// FromOutcome builds the final domain.SolveResponse from a solve.Outcome.
// On Infeasible or Unknown it returns success=false with an empty
// schedule, per §4.7.
func FromOutcome(out solve.Outcome, req domain.SolveRequest, g grid.Grid) domain.SolveResponse {
	switch out.Status {
	case sat.Optimal, sat.Feasible:
		// fall through to extraction below
	default:
		return domain.SolveResponse{
			Schedule:      nil,
			Success:       false,
			StatusMessage: statusMessage(out.Status),
			CoverageMode:  out.CoverageMode,
		}
	}

	var entries []domain.ScheduleEntry
	entries = append(entries, extractABA(out, req, g)...)
	entries = append(entries, extractAlliedHealth(out, req, g)...)
	entries = append(entries, extractLunches(out, req, g)...)

	objVal := int64(out.Solver.ObjectiveValue())

	return domain.SolveResponse{
		Schedule:         entries,
		Success:          true,
		StatusMessage:    statusMessage(out.Status),
		SolveTimeSeconds: out.Solver.WallTime(),
		ObjectiveValue:   &objVal,
		CoverageMode:     out.CoverageMode,
	}
}

func statusMessage(status sat.CpSolverStatus) string {
	switch status {
	case sat.Optimal:
		return "Optimal!"
	case sat.Feasible:
		return "Feasible (time limit reached)."
	case sat.Infeasible:
		return "Infeasible: no schedule satisfies the hard constraints."
	case sat.ModelInvalid:
		return "Model invalid: the solver rejected the constructed model."
	default:
		return "Unknown: the solver could not determine feasibility in time."
	}
}

func extractABA(out solve.Outcome, req domain.SolveRequest, g grid.Grid) []domain.ScheduleEntry {
	var entries []domain.ScheduleEntry
	for _, s := range out.Arena.ABASessions {
		if !out.Solver.BooleanValue(s.Active) {
			continue
		}
		start := out.Solver.Value(s.Start)
		duration := out.Solver.Value(s.Duration)

		client := req.Clients[s.ClientIdx]
		therapist := req.Therapists[s.TherapistIdx]

		entries = append(entries, domain.ScheduleEntry{
			ID:            newID(),
			ClientID:      client.ID,
			ClientName:    client.Name,
			TherapistID:   therapist.ID,
			TherapistName: therapist.Name,
			Day:           req.Day,
			StartTime:     g.SlotToTime(int(start)),
			EndTime:       g.SlotToTime(int(start + duration)),
			SessionType:   domain.SessionABA,
		})
	}
	return entries
}

func extractAlliedHealth(out solve.Outcome, req domain.SolveRequest, g grid.Grid) []domain.ScheduleEntry {
	var entries []domain.ScheduleEntry
	for _, need := range out.Arena.AHNeeds {
		client := req.Clients[need.ClientIdx]
		sessionType := domain.SessionAlliedHealthOT
		if len(client.AlliedHealthNeeds) > need.NeedIdx && client.AlliedHealthNeeds[need.NeedIdx].Type == domain.SpeechLanguagePathology {
			sessionType = domain.SessionAlliedHealthSLP
		}

		var chosenTherapistID, chosenTherapistName string
		for i := need.CandidateRange.Lo; i < need.CandidateRange.Hi; i++ {
			cand := out.Arena.AHCandidates[i]
			if out.Solver.BooleanValue(cand.Chosen) {
				therapist := req.Therapists[cand.TherapistIdx]
				chosenTherapistID = therapist.ID
				chosenTherapistName = therapist.Name
				break
			}
		}

		entries = append(entries, domain.ScheduleEntry{
			ID:            newID(),
			ClientID:      client.ID,
			ClientName:    client.Name,
			TherapistID:   chosenTherapistID,
			TherapistName: chosenTherapistName,
			Day:           req.Day,
			StartTime:     g.SlotToTime(need.StartSlot),
			EndTime:       g.SlotToTime(need.StartSlot + need.LengthSlots),
			SessionType:   sessionType,
		})
	}
	return entries
}

func extractLunches(out solve.Outcome, req domain.SolveRequest, g grid.Grid) []domain.ScheduleEntry {
	var entries []domain.ScheduleEntry
	for _, l := range out.Arena.Lunches {
		if !out.Solver.BooleanValue(l.Active) {
			continue
		}
		start := out.Solver.Value(l.Start)
		therapist := req.Therapists[l.TherapistIdx]

		entries = append(entries, domain.ScheduleEntry{
			ID:            newID(),
			TherapistID:   therapist.ID,
			TherapistName: therapist.Name,
			Day:           req.Day,
			StartTime:     g.SlotToTime(int(start)),
			EndTime:       g.SlotToTime(int(start) + grid.LunchSlots),
			SessionType:   domain.SessionIndirectTime,
		})
	}
	return entries
}

// newID generates a "cpsat-<12 hex chars>" id, equivalent to truncating a
// UUID's hex form to 12 characters but drawn directly from 6 random bytes.
func newID() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("extract: crypto/rand unavailable: %v", err))
	}
	return "cpsat-" + hex.EncodeToString(b[:])
}
