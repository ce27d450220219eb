package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/killmete/aroihub-sub000/internal/db"
	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
	"github.com/killmete/aroihub-sub000/internal/usecase/reconcile"
)

const cacheKeyPrefix = "aroihub:corpus_cache:"

// store is the consumer interface for the corpus cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cached answers corpus queries from a key-value cache before falling
// through to the inner provider. Entries expire on a bounded TTL, so a
// stale cache self-heals without explicit invalidation.
type Cached struct {
	inner      reconcile.CorpusProvider
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// NewCached creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func NewCached(
	inner reconcile.CorpusProvider,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Query returns cached results for the filter or calls the inner provider.
// Cache failures degrade to the inner provider, never to an error.
func (c *Cached) Query(ctx context.Context, f filter.Filter) ([]domain.Restaurant, error) {
	key := c.cacheKey(f)

	if results, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return results, nil
	}
	c.incCache("miss")

	results, err := c.inner.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query corpus: %w", err)
	}

	c.putToCache(ctx, key, results)
	return results, nil
}

func (c *Cached) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey hashes the filter's serialized form. Equal filters serialize
// identically, so they share an entry regardless of construction order.
func (c *Cached) cacheKey(f filter.Filter) string {
	h := sha256.Sum256([]byte(f.Values().Encode()))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *Cached) getFromCache(ctx context.Context, key string) ([]domain.Restaurant, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached corpus", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	var results []domain.Restaurant
	if err := json.Unmarshal(data, &results); err != nil {
		c.logger.Warn("Failed to parse cached corpus", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return results, true
}

func (c *Cached) putToCache(ctx context.Context, key string, results []domain.Restaurant) {
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Warn("Failed to encode corpus for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache corpus", zap.String("key", key), zap.Error(err))
	}
}
