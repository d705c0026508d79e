package constraints

import (
	"testing"

	"github.com/google/or-tools/sat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/clinic/eligibility"
	"github.com/fiddlerhealth/abasolve/internal/clinic/grid"
	"github.com/fiddlerhealth/abasolve/internal/clinic/variables"
)

func testGrid(t *testing.T) grid.Grid {
	t.Helper()
	g, err := grid.New(domain.SolverConfig{
		OperatingHoursStart:        "08:00",
		OperatingHoursEnd:          "17:00",
		IdealLunchWindowStart:      "11:30",
		IdealLunchWindowEndForStart: "13:00",
		SlotSizeMinutes:            15,
	})
	require.NoError(t, err)
	return g
}

func TestApplyProducesOneProviderPerEligiblePair(t *testing.T) {
	req := domain.SolveRequest{
		Clients:    []domain.Client{{ID: "c1"}},
		Therapists: []domain.Therapist{{ID: "t1", Role: domain.RoleBT}},
		Day:        domain.Monday,
	}
	g := testGrid(t)
	elig := eligibility.Compute(req, g)

	model := sat.NewCpModel()
	a := variables.Build(model, req, g, elig)
	res := Apply(model, req, g, elig, a)

	provVar, ok := res.Providers[variables.PairKey{ClientIdx: 0, TherapistIdx: 0}]
	require.True(t, ok)
	assert.NotNil(t, provVar)
}

func TestApplyBillableCoversEveryTherapist(t *testing.T) {
	req := domain.SolveRequest{
		Clients:    []domain.Client{{ID: "c1"}},
		Therapists: []domain.Therapist{{ID: "t1", Role: domain.RoleBT}, {ID: "t2", Role: domain.RoleBCBA}},
		Day:        domain.Monday,
	}
	g := testGrid(t)
	elig := eligibility.Compute(req, g)

	model := sat.NewCpModel()
	a := variables.Build(model, req, g, elig)
	res := Apply(model, req, g, elig, a)

	require.Len(t, res.Billable, 2)
	assert.NotNil(t, res.Billable[0])
	assert.NotNil(t, res.Billable[1])
}

func TestApplyHandlesWeekendWithNoABASessions(t *testing.T) {
	req := domain.SolveRequest{
		Clients:    []domain.Client{{ID: "c1"}},
		Therapists: []domain.Therapist{{ID: "t1", Role: domain.RoleBT}},
		Day:        domain.Saturday,
	}
	g := testGrid(t)
	elig := eligibility.Compute(req, g)

	model := sat.NewCpModel()
	a := variables.Build(model, req, g, elig)

	assert.NotPanics(t, func() {
		Apply(model, req, g, elig, a)
	})
}
