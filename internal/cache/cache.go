// Package cache caches solve results keyed by request content, so repeated
// solves for the same day's inputs within a short window skip the CP-SAT
// run entirely. Adapted from the teacher's database/eventbus pattern of a
// small interface plus a real backend and a Noop fallback, and from
// internal/policy/runtime's gobreaker wrapping for the backend call itself.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
)

// Cache stores a SolveResponse keyed by its SolveRequest, so a CLI run (or
// an embedding service) can skip re-solving identical inputs.
type Cache interface {
	Get(ctx context.Context, req domain.SolveRequest) (domain.SolveResponse, bool, error)
	Set(ctx context.Context, req domain.SolveRequest, resp domain.SolveResponse) error
	Close() error
}

// Key canonicalizes req to JSON and returns the hex SHA-256 digest, so
// field-order-insensitive equal requests share a cache entry.
func Key(req domain.SolveRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal solve request: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// NoopCache never hits, used for local/offline CLI runs with no Redis URL
// configured.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, req domain.SolveRequest) (domain.SolveResponse, bool, error) {
	return domain.SolveResponse{}, false, nil
}

func (NoopCache) Set(ctx context.Context, req domain.SolveRequest, resp domain.SolveResponse) error {
	return nil
}

func (NoopCache) Close() error { return nil }
