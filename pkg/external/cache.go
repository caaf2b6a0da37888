package external

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 24 * time.Hour
	defaultKeyPrefix = "thyroid:narrative:"
)

// NarrativeCache keeps narratives in an in-process LRU and, when configured,
// in Redis so that replicas share them.
type NarrativeCache struct {
	memory    *lru.Cache[string, string]
	redis     *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// NewNarrativeCache creates the cache. An empty RedisURL keeps it in memory.
func NewNarrativeCache(config domain.CacheConfig) (*NarrativeCache, error) {
	size := config.Size
	if size <= 0 {
		size = defaultCacheSize
	}
	memory, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	cache := &NarrativeCache{
		memory:    memory,
		ttl:       config.DefaultTTL,
		keyPrefix: config.KeyPrefix,
	}
	if cache.ttl == 0 {
		cache.ttl = defaultCacheTTL
	}
	if cache.keyPrefix == "" {
		cache.keyPrefix = defaultKeyPrefix
	}

	if config.RedisURL == "" {
		return cache, nil
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache.redis = client
	return cache, nil
}

// Key derives the cache key from the question and the lab values.
func (c *NarrativeCache) Key(question string, labData map[domain.TestName]float64) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(question))
	for _, test := range domain.AllTestNames() {
		if value, ok := labData[test]; ok {
			b.WriteString("|")
			b.WriteString(string(test))
			b.WriteString("=")
			b.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
		}
	}
	sum := sha256.Sum256([]byte(b.String()))
	return c.keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns a cached narrative. Redis errors count as misses.
func (c *NarrativeCache) Get(ctx context.Context, key string) (string, bool) {
	if value, ok := c.memory.Get(key); ok {
		return value, true
	}
	if c.redis == nil {
		return "", false
	}

	value, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	c.memory.Add(key, value)
	return value, true
}

// Set stores a narrative in every tier.
func (c *NarrativeCache) Set(ctx context.Context, key, value string) error {
	c.memory.Add(key, value)
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write Redis cache: %w", err)
	}
	return nil
}

// Len returns the number of narratives held in memory.
func (c *NarrativeCache) Len() int {
	return c.memory.Len()
}

// Close releases the Redis connection, if any.
func (c *NarrativeCache) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}
