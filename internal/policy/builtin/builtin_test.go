package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecTable(t *testing.T) {
	w, err := Default().Weights(context.Background(), "2026-07-31")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), w.CoverageGapPerSlot)
	assert.Equal(t, int64(10), w.BalanceExcessPerSlot)
	assert.Equal(t, [4]int64{0, 500, 800, 1500}, w.TeamTier)
	assert.Equal(t, int64(500), w.NoteCountPerSession)
}

func TestBalancedHalvesTierAndBalanceWeights(t *testing.T) {
	w, err := Balanced().Weights(context.Background(), "2026-07-31")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), w.CoverageGapPerSlot)
	assert.Equal(t, int64(5), w.BalanceExcessPerSlot)
	assert.Equal(t, [4]int64{0, 250, 400, 750}, w.TeamTier)
}

func TestMetadataDistinguishesPolicies(t *testing.T) {
	assert.NotEqual(t, Default().Metadata().Name, Balanced().Metadata().Name)
}
