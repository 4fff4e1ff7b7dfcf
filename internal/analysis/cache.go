package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scamshield/scamshield/pkg/logging"
)

const cacheTTL = 24 * time.Hour

// Cache is the content-addressed verdict cache for text-only submissions.
// Keys embed the prompt version, so any classifier-contract change
// auto-invalidates all prior entries.
type Cache struct {
	redis         *redis.Client
	promptVersion string
	ttl           time.Duration
	logger        *logging.Logger
}

// NewCache creates a Cache. redisClient may be nil (cache disabled); cache
// failures are fail-open since a cache is an optimization.
func NewCache(redisClient *redis.Client, promptVersion string, ttl time.Duration, logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = cacheTTL
	}
	return &Cache{redis: redisClient, promptVersion: promptVersion, ttl: ttl, logger: logger}
}

// Key returns the content-addressed key: v{PROMPT_VERSION}:sha256(text).
func (c *Cache) Key(text string) string {
	return fmt.Sprintf("v%s:%x", c.promptVersion, sha256.Sum256([]byte(text)))
}

func (c *Cache) redisKey(text string) string {
	return "scam:analysis:" + c.Key(text)
}

// Get returns the cached result for text, or nil on miss or store error.
func (c *Cache) Get(ctx context.Context, text string) *Result {
	if c.redis == nil {
		return nil
	}
	data, err := c.redis.Get(ctx, c.redisKey(text)).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		c.logger.Warn("analysis cache read failed", "error", err)
		return nil
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("analysis cache entry corrupt", "error", err)
		return nil
	}
	return &result
}

// Set stores the result for text. Errors are logged and swallowed.
func (c *Cache) Set(ctx context.Context, text string, result *Result) {
	if c.redis == nil || result == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.redisKey(text), data, c.ttl).Err(); err != nil {
		c.logger.Warn("analysis cache write failed", "error", err)
	}
}
