package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEmptyNameFallsBackToDefault(t *testing.T) {
	r := New(nil)
	p, err := r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "default", p.Metadata().Name)
}

func TestResolveBalanced(t *testing.T) {
	r := New(nil)
	p, err := r.Resolve(context.Background(), "balanced")
	require.NoError(t, err)
	assert.Equal(t, "balanced", p.Metadata().Name)
}

func TestResolveUnknownNameErrors(t *testing.T) {
	r := New(nil)
	_, err := r.Resolve(context.Background(), "nonexistent")
	assert.Error(t, err)
}
