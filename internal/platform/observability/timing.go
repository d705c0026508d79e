package observability

import (
	"context"
	"log/slog"
	"time"
)

// Timer measures elapsed wall time for one operation and records it to a
// Metrics backend when stopped.
type Timer struct {
	metrics   Metrics
	name      string
	tags      []Tag
	startedAt time.Time
}

// StartTimer begins timing an operation.
func StartTimer(metrics Metrics, name string, tags ...Tag) *Timer {
	return &Timer{metrics: metrics, name: name, tags: tags, startedAt: time.Now()}
}

// Stop records the elapsed duration and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.startedAt)
	if t.metrics != nil {
		t.metrics.Timing(t.name, elapsed, t.tags...)
	}
	return elapsed
}

// TimeOperation runs fn, recording its duration under name, and logs a
// debug line with the elapsed time.
func TimeOperation(ctx context.Context, logger *slog.Logger, metrics Metrics, name string, fn func() error, tags ...Tag) error {
	timer := StartTimer(metrics, name, tags...)
	err := fn()
	elapsed := timer.Stop()

	if logger != nil {
		logger.DebugContext(ctx, "operation timed", "operation", name, "duration", elapsed.String())
	}
	return err
}

// TimeOperationResult is TimeOperation for a function that also returns a
// value, as internal/clinic.Solve does.
func TimeOperationResult[T any](ctx context.Context, logger *slog.Logger, metrics Metrics, name string, fn func() (T, error), tags ...Tag) (T, error) {
	timer := StartTimer(metrics, name, tags...)
	result, err := fn()
	elapsed := timer.Stop()

	if logger != nil {
		logger.DebugContext(ctx, "operation timed", "operation", name, "duration", elapsed.String())
	}
	return result, err
}

// Span is a lightweight tracing span that records its own duration on
// completion. Unlike Timer it also carries a name for nested spans in log
// output; abasolve does not ship a tracing exporter, so Span only logs.
type Span struct {
	logger    *slog.Logger
	name      string
	startedAt time.Time
	attrs     []any
}

// StartSpan begins a span, logging its start at debug level.
func StartSpan(ctx context.Context, logger *slog.Logger, name string, attrs ...any) *Span {
	s := &Span{logger: logger, name: name, startedAt: time.Now(), attrs: attrs}
	if logger != nil {
		logger.DebugContext(ctx, "span started", append([]any{"span", name}, attrs...)...)
	}
	return s
}

// End logs the span's elapsed duration.
func (s *Span) End(ctx context.Context) time.Duration {
	elapsed := time.Since(s.startedAt)
	if s.logger != nil {
		s.logger.DebugContext(ctx, "span ended", append([]any{"span", s.name, "duration", elapsed.String()}, s.attrs...)...)
	}
	return elapsed
}
