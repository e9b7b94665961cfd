package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"helpro-nlp/internal/nlp"
)

// AnalysisCache stores analysis results in Redis keyed by the locale hint
// and the raw message. Results are stored without their request id.
type AnalysisCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewAnalysisCache(client redis.Cmdable, prefix string, ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{client: client, prefix: prefix, ttl: ttl}
}

// Key is <prefix>:<hex sha256 of "hint|message">.
func (c *AnalysisCache) Key(hint nlp.Locale, message string) string {
	sum := sha256.Sum256([]byte(string(hint) + "|" + message))
	return c.prefix + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached result. ok is false on a miss.
func (c *AnalysisCache) Get(ctx context.Context, hint nlp.Locale, message string) (result *nlp.AnalysisResult, ok bool, err error) {
	raw, err := c.client.Get(ctx, c.Key(hint, message)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var res nlp.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &res, true, nil
}

// Set stores result under the request's key with the cache TTL.
func (c *AnalysisCache) Set(ctx context.Context, hint nlp.Locale, message string, result nlp.AnalysisResult) error {
	result.RequestID = nil
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.Key(hint, message), string(data), c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Ping checks the backing store.
func (c *AnalysisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
