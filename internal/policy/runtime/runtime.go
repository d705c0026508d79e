// Package runtime wraps a loaded policy plugin in a circuit breaker so a
// misbehaving out-of-process weight policy degrades to the builtin default
// rather than hanging or repeatedly failing a solve.
//
// Adapted from internal/engine/runtime/executor.go's getBreaker/execute
// pattern, redirected at a single Policy call instead of four
// per-engine-type RPCs.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fiddlerhealth/abasolve/internal/policy/builtin"
	"github.com/fiddlerhealth/abasolve/internal/policy/sdk"
)

// Config mirrors the teacher's ExecutorConfig shape, narrowed to what a
// single-call policy executor needs.
type Config struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	FailureRatio float64
}

// DefaultConfig matches DefaultExecutorConfig's values in the teacher.
func DefaultConfig() Config {
	return Config{
		MaxRequests:  5,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
	}
}

// Executor calls a Policy's Weights method through a circuit breaker,
// falling back to builtin.Default when the breaker is open or the call
// fails.
type Executor struct {
	policy  sdk.Policy
	breaker *gobreaker.CircuitBreaker[sdk.Weights]
	logger  *slog.Logger
	fallback sdk.Policy
}

// NewExecutor wraps policy. If policy is nil, every call goes straight to
// the builtin default without a breaker.
func NewExecutor(policy sdk.Policy, cfg Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{policy: policy, logger: logger, fallback: builtin.Default()}
	if policy == nil {
		return e
	}

	settings := gobreaker.Settings{
		Name:        "policy-weights",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("policy circuit breaker state change", "name", name, "from", from, "to", to)
		},
	}
	e.breaker = gobreaker.NewCircuitBreaker[sdk.Weights](settings)
	return e
}

// Weights returns the policy's weight table for date, or the builtin
// default's if the breaker is open, the policy is nil, or the call fails.
func (e *Executor) Weights(ctx context.Context, date string) sdk.Weights {
	if e.policy == nil || e.breaker == nil {
		w, _ := e.fallback.Weights(ctx, date)
		return w
	}

	w, err := e.breaker.Execute(func() (sdk.Weights, error) {
		return e.policy.Weights(ctx, date)
	})
	if err != nil {
		e.logger.Warn("policy weights call failed, falling back to builtin default", "error", err)
		fallback, _ := e.fallback.Weights(ctx, date)
		return fallback
	}
	return w
}
