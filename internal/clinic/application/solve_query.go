// Package application wires internal/clinic's solver core to the domain
// stack (cache, warm-start store, event bus, policy runtime), following the
// teacher's internal/shared/application Command/Query split: a schedule
// solve reads caller input and produces a result without itself being the
// system of record, so it is modeled as a Query rather than a Command.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fiddlerhealth/abasolve/internal/cache"
	"github.com/fiddlerhealth/abasolve/internal/clinic"
	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/clinic/solve"
	"github.com/fiddlerhealth/abasolve/internal/eventbus"
	"github.com/fiddlerhealth/abasolve/internal/platform/observability"
	"github.com/fiddlerhealth/abasolve/internal/policy/runtime"
	sharedapp "github.com/fiddlerhealth/abasolve/internal/shared/application"
	"github.com/fiddlerhealth/abasolve/internal/store"
)

// Compile-time proof that SolveQuery/SolveQueryHandler satisfy the shared
// generic Query/QueryHandler contract, not just its method shape.
var (
	_ sharedapp.Query                                          = SolveQuery{}
	_ sharedapp.QueryHandler[SolveQuery, domain.SolveResponse] = (*SolveQueryHandler)(nil)
)

// SolveQuery asks for a schedule covering req's clients and therapists on
// req.Day. It implements internal/shared/application.Query.
type SolveQuery struct {
	Request domain.SolveRequest
	// UseWarmStart loads the last persisted schedule for
	// (Request.SelectedDate, Request.Day) as Request.InitialSchedule when
	// Request.InitialSchedule is empty.
	UseWarmStart bool
}

// QueryName implements application.Query.
func (SolveQuery) QueryName() string { return "clinic.Solve" }

// SolveQueryHandler implements application.QueryHandler[SolveQuery,
// domain.SolveResponse], orchestrating the cache, warm-start store, policy
// runtime, and event bus around internal/clinic.Solve.
type SolveQueryHandler struct {
	Cache     cache.Cache
	Store     store.Repository
	Publisher eventbus.Publisher
	Policy    *runtime.Executor
	Metrics   observability.Metrics
	Params    solve.Params
	Logger    *slog.Logger
}

// NewSolveQueryHandler builds a handler with Noop collaborators for any
// field left nil, so a caller can opt into only the pieces it has wired up
// (a CLI run with no Redis configured still works, just without caching).
func NewSolveQueryHandler(h SolveQueryHandler) *SolveQueryHandler {
	if h.Cache == nil {
		h.Cache = cache.NoopCache{}
	}
	if h.Store == nil {
		h.Store = store.NoopRepository{}
	}
	if h.Publisher == nil {
		h.Publisher = eventbus.NewNoopPublisher(h.Logger)
	}
	if h.Policy == nil {
		h.Policy = runtime.NewExecutor(nil, runtime.DefaultConfig(), h.Logger)
	}
	if h.Metrics == nil {
		h.Metrics = observability.NoopMetrics{}
	}
	if h.Logger == nil {
		h.Logger = slog.Default()
	}
	return &h
}

// Handle runs one solve: cache lookup, optional warm-start hydration,
// solver invocation, cache population, warm-start persistence, and a
// schedule.solved event — in that order, logging and counting each phase
// the way the teacher's application handlers do.
func (h *SolveQueryHandler) Handle(ctx context.Context, query SolveQuery) (domain.SolveResponse, error) {
	req := query.Request

	if cached, ok, err := h.Cache.Get(ctx, req); err != nil {
		h.Logger.WarnContext(ctx, "solve cache lookup failed", "error", err)
	} else if ok {
		h.Metrics.Counter(observability.MetricCacheHits, 1)
		h.Logger.DebugContext(ctx, "solve cache hit", "selected_date", req.SelectedDate, "day", req.Day)
		return cached, nil
	} else {
		h.Metrics.Counter(observability.MetricCacheMisses, 1)
	}

	if query.UseWarmStart && len(req.InitialSchedule) == 0 {
		if warm, ok, err := h.Store.LoadSchedule(ctx, req.SelectedDate, req.Day); err != nil {
			h.Logger.WarnContext(ctx, "warm-start load failed", "error", err)
		} else if ok {
			req.InitialSchedule = warm
		}
	}

	weights := h.Policy.Weights(ctx, req.SelectedDate)

	resp, err := observability.TimeOperationResult(ctx, h.Logger, h.Metrics, observability.MetricSolveDuration,
		func() (domain.SolveResponse, error) {
			return clinic.Solve(ctx, req, clinic.Deps{Weights: weights, Params: h.Params})
		},
		observability.T("day", string(req.Day)),
	)
	if err != nil {
		h.Metrics.Counter(observability.MetricSolveErrors, 1)
		return domain.SolveResponse{}, fmt.Errorf("solve: %w", err)
	}

	h.Metrics.Counter(observability.MetricSolveTotal, 1, observability.T("day", string(req.Day)), observability.T("coverage_mode", string(resp.CoverageMode)))
	h.Metrics.Gauge(observability.MetricScheduleEntries, float64(len(resp.Schedule)), observability.T("day", string(req.Day)))

	if err := h.Cache.Set(ctx, req, resp); err != nil {
		h.Logger.WarnContext(ctx, "solve cache store failed", "error", err)
	}

	if resp.Success && len(resp.Schedule) > 0 {
		if err := h.Store.SaveSchedule(ctx, req.SelectedDate, req.Day, resp.Schedule); err != nil {
			h.Logger.WarnContext(ctx, "warm-start save failed", "error", err)
		}
	}

	if err := eventbus.PublishScheduleSolved(ctx, h.Publisher, req, resp); err != nil {
		h.Logger.WarnContext(ctx, "schedule.solved publish failed", "error", err)
	} else {
		h.Metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", eventbus.RoutingKeyScheduleSolved))
	}

	return resp, nil
}
