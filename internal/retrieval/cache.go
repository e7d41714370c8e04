package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "retrieval:"

// CachedGateway caches successful query results in Redis with a TTL. Cache
// failures degrade to the wrapped gateway, never to a request failure.
type CachedGateway struct {
	next   Gateway
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedGateway wraps a gateway with a Redis query cache.
func NewCachedGateway(next Gateway, client *redis.Client, ttl time.Duration) *CachedGateway {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &CachedGateway{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: log.New(log.Writer(), "[RETRIEVAL-CACHE] ", log.LstdFlags),
	}
}

func (g *CachedGateway) Query(ctx context.Context, text string, topK int) ([]Match, error) {
	key := cacheKey(text, topK)
	if val, err := g.client.Get(ctx, key).Result(); err == nil {
		var matches []Match
		if err := json.Unmarshal([]byte(val), &matches); err == nil && len(matches) > 0 {
			return matches, nil
		}
	}

	matches, err := g.next.Query(ctx, text, topK)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(matches); err == nil {
		if err := g.client.Set(ctx, key, data, g.ttl).Err(); err != nil {
			g.logger.Printf("cache set failed: %v", err)
		}
	}
	return matches, nil
}

// Upsert forwards to the wrapped gateway when it supports indexing.
func (g *CachedGateway) Upsert(ctx context.Context, docs []Document) error {
	up, ok := g.next.(Upserter)
	if !ok {
		return fmt.Errorf("wrapped gateway does not support indexing")
	}
	return up.Upsert(ctx, docs)
}

func cacheKey(text string, topK int) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s%x:%d", cacheKeyPrefix, sum[:8], topK)
}
