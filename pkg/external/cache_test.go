package external

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thyroid-lit-analyzer/internal/domain"
	"github.com/thyroid-lit-analyzer/internal/logging"
)

func newMemoryCache(t *testing.T, size int) *NarrativeCache {
	t.Helper()
	cache, err := NewNarrativeCache(domain.CacheConfig{Size: size})
	require.NoError(t, err)
	return cache
}

func TestNarrativeCache_Key(t *testing.T) {
	cache := newMemoryCache(t, 4)
	labData := map[domain.TestName]float64{domain.TSH: 5.2, domain.FreeT4: 1.0}

	key := cache.Key("question", labData)

	assert.True(t, strings.HasPrefix(key, defaultKeyPrefix))
	assert.Equal(t, key, cache.Key("  question ", map[domain.TestName]float64{domain.FreeT4: 1.0, domain.TSH: 5.2}))
	assert.NotEqual(t, key, cache.Key("question", map[domain.TestName]float64{domain.TSH: 5.3, domain.FreeT4: 1.0}))
	assert.NotEqual(t, key, cache.Key("other", labData))
}

func TestNarrativeCache_MemoryTier(t *testing.T) {
	cache := newMemoryCache(t, 2)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", "one"))
	require.NoError(t, cache.Set(ctx, "b", "two"))
	require.NoError(t, cache.Set(ctx, "c", "three"))

	_, ok := cache.Get(ctx, "a")
	assert.False(t, ok, "least recently used entry is evicted")
	value, ok := cache.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, "three", value)
	assert.Equal(t, 2, cache.Len())
	assert.NoError(t, cache.Close())
}

func TestNewNarrativeCache_InvalidRedisURL(t *testing.T) {
	_, err := NewNarrativeCache(domain.CacheConfig{RedisURL: "not-a-url"})

	assert.ErrorContains(t, err, "failed to parse Redis URL")
}

type countingProvider struct {
	calls int
	reply string
	err   error
}

func (p *countingProvider) Narrate(context.Context, string, map[domain.TestName]float64) (string, error) {
	p.calls++
	return p.reply, p.err
}

func TestCachedNarrator(t *testing.T) {
	labData := map[domain.TestName]float64{domain.TSH: 5.2}

	t.Run("second call is served from cache", func(t *testing.T) {
		provider := &countingProvider{reply: "narrative"}
		narrator := NewCachedNarrator(newMemoryCache(t, 8), provider, logging.Discard())

		first, err := narrator.Narrate(context.Background(), "q", labData)
		require.NoError(t, err)
		second, err := narrator.Narrate(context.Background(), "q", labData)
		require.NoError(t, err)

		assert.Equal(t, "narrative", first)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, provider.calls)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		provider := &countingProvider{err: errors.New("unavailable")}
		cache := newMemoryCache(t, 8)
		narrator := NewCachedNarrator(cache, provider, logging.Discard())

		_, err := narrator.Narrate(context.Background(), "q", labData)
		assert.Error(t, err)
		_, err = narrator.Narrate(context.Background(), "q", labData)
		assert.Error(t, err)

		assert.Equal(t, 2, provider.calls)
		assert.Equal(t, 0, cache.Len())
	})
}
