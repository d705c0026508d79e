package clinic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/policy/builtin"
)

func baseConfig() domain.SolverConfig {
	return domain.SolverConfig{
		OperatingHoursStart:        "08:00",
		OperatingHoursEnd:          "17:00",
		IdealLunchWindowStart:      "11:30",
		IdealLunchWindowEndForStart: "13:00",
		SlotSizeMinutes:            15,
		DefaultRoleRank: map[string]int{
			domain.RoleBCBA: 3,
			domain.RoleBT:   1,
			domain.RoleRBT:  1,
		},
	}
}

func TestSolveEmptyProblem(t *testing.T) {
	resp, err := Solve(context.Background(), domain.SolveRequest{Day: domain.Monday}, Deps{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Schedule)
	assert.Equal(t, "No clients or therapists to schedule.", resp.StatusMessage)
}

func TestSolveRejectsMalformedConfig(t *testing.T) {
	req := domain.SolveRequest{
		Clients:    []domain.Client{{ID: "c1"}},
		Therapists: []domain.Therapist{{ID: "t1", Role: domain.RoleBT}},
		Day:        domain.Monday,
		Config: domain.SolverConfig{
			OperatingHoursStart: "not-a-time",
			OperatingHoursEnd:   "17:00",
		},
	}

	_, err := Solve(context.Background(), req, Deps{})
	assert.Error(t, err)
}

func TestSolveSingleClientSingleTherapist(t *testing.T) {
	policy := builtin.Default()
	w, err := policy.Weights(context.Background(), "2026-07-31")
	require.NoError(t, err)

	req := domain.SolveRequest{
		Clients: []domain.Client{{ID: "c1"}},
		Therapists: []domain.Therapist{
			{ID: "t1", Role: domain.RoleBT},
		},
		SelectedDate: "2026-07-31",
		Day:          domain.Monday,
		Config:       baseConfig(),
	}

	resp, err := Solve(context.Background(), req, Deps{Weights: w})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.StatusMessage)
	assert.Contains(t, []domain.CoverageMode{domain.CoverageHard, domain.CoverageSoft}, resp.CoverageMode)
}

func TestSolveIgnoresWarmStartEntriesFromOtherDays(t *testing.T) {
	policy := builtin.Default()
	w, err := policy.Weights(context.Background(), "2026-07-31")
	require.NoError(t, err)

	req := domain.SolveRequest{
		Clients: []domain.Client{{ID: "c1"}},
		Therapists: []domain.Therapist{
			{ID: "t1", Role: domain.RoleBT},
		},
		SelectedDate: "2026-07-31",
		Day:          domain.Monday,
		Config:       baseConfig(),
		// Entirely from a different day than the one being solved: per
		// §4.6 these must be ignored rather than hinted against Monday's
		// variables.
		InitialSchedule: []domain.ScheduleEntry{
			{ClientID: "c1", TherapistID: "t1", Day: domain.Tuesday, StartTime: "09:00", EndTime: "10:00", SessionType: domain.SessionABA},
		},
	}

	resp, err := Solve(context.Background(), req, Deps{Weights: w})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.StatusMessage)
	assert.Contains(t, []domain.CoverageMode{domain.CoverageHard, domain.CoverageSoft}, resp.CoverageMode)
}

func TestSolveWeekendSkipsABA(t *testing.T) {
	policy := builtin.Default()
	w, err := policy.Weights(context.Background(), "2026-08-01")
	require.NoError(t, err)

	req := domain.SolveRequest{
		Clients:      []domain.Client{{ID: "c1"}},
		Therapists:   []domain.Therapist{{ID: "t1", Role: domain.RoleBT}},
		SelectedDate: "2026-08-01",
		Day:          domain.Saturday,
		Config:       baseConfig(),
	}

	resp, err := Solve(context.Background(), req, Deps{Weights: w})
	require.NoError(t, err)
	for _, entry := range resp.Schedule {
		assert.NotEqual(t, domain.SessionABA, entry.SessionType)
	}
}
