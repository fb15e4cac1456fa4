package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry(time.Hour, func() *Controller { return NewController(Options{}) })

	id, c := r.Create()
	require.NotNil(t, c)
	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = r.Get(uuid.New())
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistrySweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(time.Hour, func() *Controller { return NewController(Options{}) })
	r.now = func() time.Time { return now }

	stale, _ := r.Create()
	now = now.Add(50 * time.Minute)
	fresh, _ := r.Create()

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 1, r.Sweep())

	_, ok := r.Get(stale)
	assert.False(t, ok)
	_, ok = r.Get(fresh)
	assert.True(t, ok)

	// Get refreshed the fresh session.
	now = now.Add(59 * time.Minute)
	assert.Equal(t, 0, r.Sweep())
}

func TestRegistryRunStopsWithContext(t *testing.T) {
	r := NewRegistry(time.Nanosecond, func() *Controller { return NewController(Options{}) })
	r.Create()

	ctx, cancel := context.WithCancel(context.Background())
	swept := make(chan int, 1)
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, time.Millisecond, func(n int) { swept <- n }) }()

	select {
	case n := <-swept:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never ran")
	}
	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, 0, r.Len())
}
