package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/eventbus"
	"github.com/fiddlerhealth/abasolve/internal/platform/observability"
	"github.com/fiddlerhealth/abasolve/internal/store"
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

func TestSolveQueryHandler_Handle(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	handler := NewSolveQueryHandler(SolveQueryHandler{Metrics: metrics})

	req := domain.SolveRequest{
		Clients:      []domain.Client{{ID: "c1"}},
		Therapists:   []domain.Therapist{{ID: "t1", Role: domain.RoleBT}},
		SelectedDate: "2026-07-31",
		Day:          domain.Monday,
		Config:       baseConfig(),
	}

	resp, err := handler.Handle(context.Background(), SolveQuery{Request: req})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.StatusMessage)

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricCacheMisses))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricSolveTotal,
		observability.T("day", "Monday"), observability.T("coverage_mode", string(resp.CoverageMode))))
}

func TestSolveQueryHandler_WarmStart(t *testing.T) {
	repo := &recordingRepository{}
	handler := NewSolveQueryHandler(SolveQueryHandler{Store: repo})

	req := domain.SolveRequest{
		Clients:      []domain.Client{{ID: "c1"}},
		Therapists:   []domain.Therapist{{ID: "t1", Role: domain.RoleBT}},
		SelectedDate: "2026-07-31",
		Day:          domain.Monday,
		Config:       baseConfig(),
	}

	_, err := handler.Handle(context.Background(), SolveQuery{Request: req, UseWarmStart: true})
	require.NoError(t, err)
	assert.True(t, repo.loadCalled)
}

func TestSolveQueryHandler_PublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	handler := NewSolveQueryHandler(SolveQueryHandler{Publisher: pub})

	req := domain.SolveRequest{
		Clients:      []domain.Client{{ID: "c1"}},
		Therapists:   []domain.Therapist{{ID: "t1", Role: domain.RoleBT}},
		SelectedDate: "2026-07-31",
		Day:          domain.Monday,
		Config:       baseConfig(),
	}

	_, err := handler.Handle(context.Background(), SolveQuery{Request: req})
	require.NoError(t, err)
	assert.Equal(t, eventbus.RoutingKeyScheduleSolved, pub.routingKey)
}

type recordingRepository struct {
	store.NoopRepository
	loadCalled bool
}

func (r *recordingRepository) LoadSchedule(ctx context.Context, selectedDate string, day domain.Weekday) ([]domain.ScheduleEntry, bool, error) {
	r.loadCalled = true
	return nil, false, nil
}

type recordingPublisher struct {
	routingKey string
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.routingKey = routingKey
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
