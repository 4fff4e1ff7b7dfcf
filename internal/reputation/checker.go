package reputation

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scamshield/scamshield/pkg/logging"
)

const (
	// Malicious entries are re-checked sooner than clean ones: a takedown
	// should be noticed within the hour, while a clean URL turning bad is
	// caught on the 6h cycle.
	maliciousTTL = 1 * time.Hour
	cleanTTL     = 6 * time.Hour
)

// URLCheck is the verdict for a single URL.
type URLCheck struct {
	URL       string   `json:"url"`
	Malicious bool     `json:"isMalicious"`
	Sources   []string `json:"sources"`
}

// Checker fans a URL batch out to all providers concurrently and unions the
// successes. One provider failing never suppresses another's result.
type Checker struct {
	providers []Provider
	redis     *redis.Client
	timeout   time.Duration
	logger    *logging.Logger
}

// NewChecker creates a Checker. redisClient may be nil (cache disabled).
func NewChecker(providers []Provider, redisClient *redis.Client, timeout time.Duration, logger *logging.Logger) *Checker {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = providerTimeout
	}
	return &Checker{providers: providers, redis: redisClient, timeout: timeout, logger: logger}
}

func cacheKey(rawURL string) string {
	return fmt.Sprintf("scam:urlrep:%x", sha256.Sum256([]byte(rawURL)))
}

// Check returns a result for every input URL. Cached verdicts are served
// without touching providers; the remainder is looked up in one batch per
// provider. Provider errors degrade to "no signal" for that provider.
func (c *Checker) Check(ctx context.Context, urls []string) []URLCheck {
	if len(urls) == 0 {
		return nil
	}

	results := make(map[string]*URLCheck, len(urls))
	var misses []string
	for _, u := range urls {
		if cached := c.cacheGet(ctx, u); cached != nil {
			results[u] = cached
			continue
		}
		results[u] = &URLCheck{URL: u}
		misses = append(misses, u)
	}

	if len(misses) > 0 {
		c.lookupAll(ctx, misses, results)
		for _, u := range misses {
			c.cacheSet(ctx, results[u])
		}
	}

	out := make([]URLCheck, 0, len(urls))
	for _, u := range urls {
		out = append(out, *results[u])
	}
	return out
}

func (c *Checker) lookupAll(ctx context.Context, urls []string, results map[string]*URLCheck) {
	type providerResult struct {
		name     string
		verdicts map[string]bool
	}

	ch := make(chan providerResult, len(c.providers))
	var wg sync.WaitGroup
	for _, p := range c.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			verdicts, err := p.Lookup(pctx, urls)
			if err != nil {
				c.logger.Warn("reputation provider failed", "provider", p.Name(), "error", err)
				return
			}
			ch <- providerResult{name: p.Name(), verdicts: verdicts}
		}(p)
	}
	wg.Wait()
	close(ch)

	for pr := range ch {
		for u, malicious := range pr.verdicts {
			r, ok := results[u]
			if !ok || !malicious {
				continue
			}
			r.Malicious = true
			r.Sources = append(r.Sources, pr.name)
		}
	}
}

func (c *Checker) cacheGet(ctx context.Context, rawURL string) *URLCheck {
	if c.redis == nil {
		return nil
	}
	data, err := c.redis.Get(ctx, cacheKey(rawURL)).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		c.logger.Warn("reputation cache read failed", "error", err)
		return nil
	}
	var check URLCheck
	if err := json.Unmarshal(data, &check); err != nil {
		return nil
	}
	return &check
}

func (c *Checker) cacheSet(ctx context.Context, check *URLCheck) {
	if c.redis == nil || check == nil {
		return
	}
	data, err := json.Marshal(check)
	if err != nil {
		return
	}
	ttl := cleanTTL
	if check.Malicious {
		ttl = maliciousTTL
	}
	if err := c.redis.Set(ctx, cacheKey(check.URL), data, ttl).Err(); err != nil {
		c.logger.Warn("reputation cache write failed", "error", err)
	}
}
