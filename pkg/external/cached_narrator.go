package external

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// CachedNarrator serves repeated questions from the cache and falls through
// to the provider on a miss. Only successful narratives are cached.
type CachedNarrator struct {
	cache    *NarrativeCache
	provider domain.NarrativeProvider
	logger   *logrus.Logger
}

// NewCachedNarrator composes cache and provider.
func NewCachedNarrator(cache *NarrativeCache, provider domain.NarrativeProvider, logger *logrus.Logger) *CachedNarrator {
	return &CachedNarrator{cache: cache, provider: provider, logger: logger}
}

// Narrate implements domain.NarrativeProvider.
func (n *CachedNarrator) Narrate(ctx context.Context, question string, labData map[domain.TestName]float64) (string, error) {
	key := n.cache.Key(question, labData)
	if narrative, ok := n.cache.Get(ctx, key); ok {
		n.logger.WithField("cache_key", key).Debug("Narrative cache hit")
		return narrative, nil
	}

	narrative, err := n.provider.Narrate(ctx, question, labData)
	if err != nil {
		return "", err
	}

	if err := n.cache.Set(ctx, key, narrative); err != nil {
		n.logger.WithError(err).Warn("Failed to cache narrative")
	}
	return narrative, nil
}
