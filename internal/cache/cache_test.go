package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Temp float64 `json:"temp"`
	Cond string  `json:"cond"`
}

func TestMemoryStore_RoundTripAndMiss(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var got payload
	found, err := s.Get(ctx, "weather:v2:32.1:34.8", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "weather:v2:32.1:34.8", payload{Temp: 21.5, Cond: "Clear"}, time.Minute))

	found, err = s.Get(ctx, "weather:v2:32.1:34.8", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Temp: 21.5, Cond: "Clear"}, got)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", 1, 5*time.Minute))

	var v int
	found, _ := s.Get(ctx, "k", &v)
	assert.True(t, found)

	now = now.Add(5 * time.Minute)
	found, _ = s.Get(ctx, "k", &v)
	assert.False(t, found)
	assert.Zero(t, s.Len())
}

func TestMemoryStore_DecodeError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "k", "not a number", 0))

	var v int
	_, err := s.Get(ctx, "k", &v)
	assert.Error(t, err)
}

func TestMemoryStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.Set(ctx, fmt.Sprintf("k%d", i%5), i, time.Minute)
		}(i)
		go func(i int) {
			defer wg.Done()
			var v int
			_, _ = s.Get(ctx, fmt.Sprintf("k%d", i%5), &v)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, s.Len())
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	ctx := context.Background()

	assert.IsType(t, &MemoryStore{}, Open(ctx, "", nil))
	assert.IsType(t, &MemoryStore{}, Open(ctx, "not-a-url", nil))
}

func TestMemoryStore_SetSweepsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		require.NoError(t, s.Set(ctx, fmt.Sprintf("busyness:v1:%d", i), i, time.Millisecond))
	}
	require.NoError(t, s.Set(ctx, "forever", "x", 0))
	require.NoError(t, s.Set(ctx, "later", "y", time.Hour))
	assert.Equal(t, 1002, s.Len())

	now = now.Add(20 * time.Millisecond)
	require.NoError(t, s.Set(ctx, "fresh", "z", time.Minute))
	assert.Equal(t, 3, s.Len())

	var v string
	found, err := s.Get(ctx, "forever", &v)
	require.NoError(t, err)
	assert.True(t, found)
	found, _ = s.Get(ctx, "later", &v)
	assert.True(t, found)

	// the next sweep waits for the earliest remaining expiry
	now = now.Add(2 * time.Minute)
	require.NoError(t, s.Set(ctx, "another", "w", time.Minute))
	assert.Equal(t, 3, s.Len())
}
