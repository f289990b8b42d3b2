package analyzers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_TTLBoundary(t *testing.T) {
	store := NewMemoryStore(16)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 50*time.Millisecond))

	data, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), data)

	time.Sleep(60 * time.Millisecond)

	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry past its TTL must read as a miss")
}

func TestMemoryStore_MissOnUnknownKey(t *testing.T) {
	store := NewMemoryStore(16)
	_, ok, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_PrunesPastBound(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, store.Set(ctx, k, []byte(k), time.Minute))
	}

	store.mu.Lock()
	size := len(store.entries)
	store.mu.Unlock()
	assert.LessOrEqual(t, size, 4, "writes past the bound must evict")

	// The most recent write always survives
	_, ok, err := store.Get(ctx, "e")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCache_RoundTrip(t *testing.T) {
	cache := NewCache("test", time.Minute, NewMemoryStore(16))
	ctx := context.Background()

	type payload struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}

	key := cache.Key(map[string]string{"q": "demand"})
	cache.Set(ctx, key, payload{Name: "demand", Score: 0.7})

	var got payload
	require.True(t, cache.Get(ctx, key, &got))
	assert.Equal(t, payload{Name: "demand", Score: 0.7}, got)
}

func TestCache_KeyIsStable(t *testing.T) {
	cache := NewCache("test", time.Minute, NewMemoryStore(16))

	in := map[string]interface{}{"industry": "tech", "revenue": 5.0}
	assert.Equal(t, cache.Key(in), cache.Key(map[string]interface{}{"industry": "tech", "revenue": 5.0}))
	assert.NotEqual(t, cache.Key(in), cache.Key(map[string]interface{}{"industry": "retail"}))
}
