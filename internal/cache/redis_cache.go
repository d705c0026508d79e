package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
)

// DefaultTTL is how long a cached solve result stays valid before a repeat
// request re-solves, matching SPEC_FULL's 10-minute default.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "abasolve:solve:"

// BreakerConfig mirrors internal/policy/runtime.Config's shape, applied
// here to Redis calls instead of policy-plugin calls.
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

// DefaultBreakerConfig matches internal/policy/runtime.DefaultConfig.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  5,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
	}
}

// SolveCache is a Redis-backed Cache wrapped in a circuit breaker, so a
// Redis outage degrades to always-miss instead of failing the solve.
type SolveCache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewSolveCache connects to a Redis instance at url (e.g.
// "redis://localhost:6379/0") and wraps Get/Set in a circuit breaker per
// cfg.
func NewSolveCache(url string, ttl time.Duration, cfg BreakerConfig, logger *slog.Logger) (*SolveCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	settings := gobreaker.Settings{
		Name:        "solve-cache",
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
			logger.Warn("solve cache circuit breaker state change", "name", name, "from", from, "to", to)
		},
	}

	return &SolveCache{
		client:  client,
		ttl:     ttl,
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}, nil
}

// Get returns the cached response for req, if present and unexpired.
func (c *SolveCache) Get(ctx context.Context, req domain.SolveRequest) (domain.SolveResponse, bool, error) {
	key, err := Key(req)
	if err != nil {
		return domain.SolveResponse{}, false, err
	}

	payload, err := c.breaker.Execute(func() ([]byte, error) {
		return c.client.Get(ctx, keyPrefix+key).Bytes()
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SolveResponse{}, false, nil
		}
		c.logger.Warn("solve cache get failed, treating as miss", "error", err)
		return domain.SolveResponse{}, false, nil
	}

	var resp domain.SolveResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return domain.SolveResponse{}, false, fmt.Errorf("unmarshal cached solve response: %w", err)
	}
	return resp, true, nil
}

// Set stores resp for req with the cache's TTL.
func (c *SolveCache) Set(ctx context.Context, req domain.SolveRequest, resp domain.SolveResponse) error {
	key, err := Key(req)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal solve response: %w", err)
	}

	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, keyPrefix+key, payload, c.ttl).Err()
	})
	if err != nil {
		c.logger.Warn("solve cache set failed", "error", err)
		return nil
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *SolveCache) Close() error {
	return c.client.Close()
}

// Ping reports whether Redis is reachable, for `abasolve health`.
func (c *SolveCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
