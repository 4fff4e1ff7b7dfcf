// Package ratelimit implements sliding-window abuse control over Redis:
// two tiers for anonymous callers and a daily quota per API key.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/scamshield/scamshield/pkg/logging"
)

const (
	burstWindow = 1 * time.Hour
	dailyWindow = 24 * time.Hour

	// TierBurst and TierDaily name the anonymous tiers; TierAPIKey the
	// authenticated quota. Decision.Tier reports which tier denied.
	TierBurst  = "burst"
	TierDaily  = "daily"
	TierAPIKey = "api_key"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
	Tier       string
}

// Limiter evaluates sliding-window counters in Redis. When the store is
// unreachable it fails open in development and closed in production, a
// deliberate safety-over-availability choice.
type Limiter struct {
	redis       *redis.Client
	salt        string
	burstLimit  int
	dailyLimit  int
	apiKeyLimit int
	failClosed  bool
	logger      *logging.Logger
	now         func() time.Time
}

// Config holds limiter construction parameters.
type Config struct {
	Redis       *redis.Client
	Salt        string
	BurstLimit  int
	DailyLimit  int
	APIKeyLimit int
	FailClosed  bool
	Logger      *logging.Logger
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.BurstLimit <= 0 {
		cfg.BurstLimit = 3
	}
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = 10
	}
	if cfg.APIKeyLimit <= 0 {
		cfg.APIKeyLimit = 100
	}
	return &Limiter{
		redis:       cfg.Redis,
		salt:        cfg.Salt,
		burstLimit:  cfg.BurstLimit,
		dailyLimit:  cfg.DailyLimit,
		apiKeyLimit: cfg.APIKeyLimit,
		failClosed:  cfg.FailClosed,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// Identity derives the anonymous caller key from IP and user agent. The raw
// IP is hashed with the salt and never persisted.
func (l *Limiter) Identity(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(l.salt + ip + ":" + userAgent))
	return fmt.Sprintf("%x", sum)
}

// Check evaluates the anonymous tiers: burst first (cheaper, stricter), then
// daily. The first violated tier's reset time is returned. The request is
// recorded in both windows only when allowed.
func (l *Limiter) Check(ctx context.Context, identity string) Decision {
	if l.redis == nil {
		return l.storeUnavailable(TierBurst, nil)
	}

	burst, err := l.windowState(ctx, l.burstKey(identity), burstWindow, l.burstLimit)
	if err != nil {
		return l.storeUnavailable(TierBurst, err)
	}
	if !burst.Allowed {
		burst.Tier = TierBurst
		return burst
	}

	daily, err := l.windowState(ctx, l.dailyKey(identity), dailyWindow, l.dailyLimit)
	if err != nil {
		return l.storeUnavailable(TierDaily, err)
	}
	if !daily.Allowed {
		daily.Tier = TierDaily
		return daily
	}

	if err := l.record(ctx, identity); err != nil {
		return l.storeUnavailable(TierBurst, err)
	}

	remaining := burst.Remaining - 1
	if daily.Remaining-1 < remaining {
		remaining = daily.Remaining - 1
	}
	return Decision{Allowed: true, Remaining: remaining, Tier: TierBurst}
}

// CheckAPIKey evaluates the per-API-key daily quota: a single fixed UTC-day
// counter, keyed by the hashed API key with a day suffix.
func (l *Limiter) CheckAPIKey(ctx context.Context, apiKey string) Decision {
	if l.redis == nil {
		return l.storeUnavailable(TierAPIKey, nil)
	}

	now := l.now().UTC()
	key := l.apiKeyKey(apiKey, now)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return l.storeUnavailable(TierAPIKey, err)
	}
	if count == 1 {
		// 48h expiry outlives the day the counter covers.
		if err := l.redis.Expire(ctx, key, 48*time.Hour).Err(); err != nil {
			l.logger.Warn("rate limit expire failed", "error", err)
		}
	}

	resetAt := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	if count > int64(l.apiKeyLimit) {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: resetAt.Sub(now),
			ResetAt:    resetAt,
			Tier:       TierAPIKey,
		}
	}
	return Decision{Allowed: true, Remaining: l.apiKeyLimit - int(count), Tier: TierAPIKey}
}

func (l *Limiter) burstKey(identity string) string {
	return "scam:rl:burst:" + identity
}

func (l *Limiter) dailyKey(identity string) string {
	return "scam:rl:daily:" + identity
}

func (l *Limiter) apiKeyKey(apiKey string, now time.Time) string {
	sum := sha256.Sum256([]byte(l.salt + apiKey))
	return fmt.Sprintf("scam:rl:apikey:%x:%s", sum, now.Format("2006-01-02"))
}

// windowState trims expired events and reports whether another request fits.
func (l *Limiter) windowState(ctx context.Context, key string, window time.Duration, limit int) (Decision, error) {
	now := l.now()
	cutoff := now.Add(-window)

	if err := l.redis.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", cutoff.UnixNano())).Err(); err != nil {
		return Decision{}, fmt.Errorf("ratelimit: trim window: %w", err)
	}
	count, err := l.redis.ZCard(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: count window: %w", err)
	}

	if count >= int64(limit) {
		oldest, err := l.redis.ZRangeWithScores(ctx, key, 0, 0).Result()
		if err != nil {
			return Decision{}, fmt.Errorf("ratelimit: read oldest: %w", err)
		}
		resetAt := now.Add(window)
		if len(oldest) > 0 {
			resetAt = time.Unix(0, int64(oldest[0].Score)).Add(window)
		}
		retryAfter := resetAt.Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter, ResetAt: resetAt}, nil
	}

	return Decision{Allowed: true, Remaining: limit - int(count)}, nil
}

// record adds the event to both sliding windows.
func (l *Limiter) record(ctx context.Context, identity string) error {
	now := l.now()
	member := uuid.NewString()
	for key, window := range map[string]time.Duration{
		l.burstKey(identity): burstWindow,
		l.dailyKey(identity): dailyWindow,
	} {
		if err := l.redis.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member}).Err(); err != nil {
			return fmt.Errorf("ratelimit: record event: %w", err)
		}
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return fmt.Errorf("ratelimit: expire window: %w", err)
		}
	}
	return nil
}

// storeUnavailable applies the environment fail policy.
func (l *Limiter) storeUnavailable(tier string, err error) Decision {
	if err != nil {
		l.logger.Warn("rate limit store unavailable", "tier", tier, "error", err)
	}
	if l.failClosed {
		return Decision{Allowed: false, RetryAfter: time.Minute, Tier: tier}
	}
	return Decision{Allowed: true, Remaining: 1, Tier: tier}
}
