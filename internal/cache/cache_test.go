package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
)

func TestKeyIsDeterministic(t *testing.T) {
	req := domain.SolveRequest{
		SelectedDate: "2026-08-03",
		Day:          domain.Monday,
		Clients:      []domain.Client{{ID: "c1"}},
	}

	k1, err := Key(req)
	require.NoError(t, err)
	k2, err := Key(req)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64) // hex-encoded sha256

	other := req
	other.SelectedDate = "2026-08-04"
	k3, err := Key(other)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestNoopCache(t *testing.T) {
	var c Cache = NoopCache{}
	req := domain.SolveRequest{SelectedDate: "2026-08-03"}

	_, ok, err := c.Get(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, ok)

	err = c.Set(context.Background(), req, domain.SolveResponse{Success: true})
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}
