package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamshield/scamshield/pkg/logging"
)

func testLimiter(t *testing.T, cfg Config) (*Limiter, *time.Time) {
	t.Helper()
	if cfg.Redis == nil {
		mr := miniredis.RunT(t)
		cfg.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}
	cfg.Logger = logging.New("error")
	l := New(cfg)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestBurstLimitDeniesNPlusOne(t *testing.T) {
	l, _ := testLimiter(t, Config{BurstLimit: 3, DailyLimit: 10})
	ctx := context.Background()
	id := l.Identity("203.0.113.5", "test-agent")

	for i := 0; i < 3; i++ {
		d := l.Check(ctx, id)
		assert.True(t, d.Allowed, "call %d should be allowed", i+1)
	}

	d := l.Check(ctx, id)
	assert.False(t, d.Allowed)
	assert.Equal(t, TierBurst, d.Tier)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Hour)
}

func TestBurstWindowSlides(t *testing.T) {
	l, now := testLimiter(t, Config{BurstLimit: 3, DailyLimit: 10})
	ctx := context.Background()
	id := l.Identity("203.0.113.5", "test-agent")

	for i := 0; i < 3; i++ {
		require.True(t, l.Check(ctx, id).Allowed)
	}
	require.False(t, l.Check(ctx, id).Allowed)

	*now = now.Add(61 * time.Minute)
	assert.True(t, l.Check(ctx, id).Allowed, "burst window should have slid past the old events")
}

func TestDailyLimitAfterBurstRecovery(t *testing.T) {
	l, now := testLimiter(t, Config{BurstLimit: 3, DailyLimit: 5})
	ctx := context.Background()
	id := l.Identity("203.0.113.5", "test-agent")

	// Exhaust daily (5) across two burst windows.
	for i := 0; i < 3; i++ {
		require.True(t, l.Check(ctx, id).Allowed)
	}
	*now = now.Add(2 * time.Hour)
	for i := 0; i < 2; i++ {
		require.True(t, l.Check(ctx, id).Allowed)
	}

	d := l.Check(ctx, id)
	assert.False(t, d.Allowed)
	assert.Equal(t, TierDaily, d.Tier)
}

func TestIdentitiesAreIndependent(t *testing.T) {
	l, _ := testLimiter(t, Config{BurstLimit: 1, DailyLimit: 10})
	ctx := context.Background()

	a := l.Identity("203.0.113.5", "agent-a")
	b := l.Identity("203.0.113.6", "agent-b")
	require.NotEqual(t, a, b)

	require.True(t, l.Check(ctx, a).Allowed)
	assert.False(t, l.Check(ctx, a).Allowed)
	assert.True(t, l.Check(ctx, b).Allowed, "other identity must be unaffected")
}

func TestIdentityHidesRawIP(t *testing.T) {
	l, _ := testLimiter(t, Config{Salt: "pepper"})
	id := l.Identity("203.0.113.5", "agent")
	assert.NotContains(t, id, "203.0.113.5")
	assert.Len(t, id, 64)
}

func TestAPIKeyDailyQuota(t *testing.T) {
	l, _ := testLimiter(t, Config{APIKeyLimit: 2})
	ctx := context.Background()

	d := l.CheckAPIKey(ctx, "key-123")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	require.True(t, l.CheckAPIKey(ctx, "key-123").Allowed)

	d = l.CheckAPIKey(ctx, "key-123")
	assert.False(t, d.Allowed)
	assert.Equal(t, TierAPIKey, d.Tier)
	// Reset at the next UTC midnight.
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), d.ResetAt)
}

func TestAPIKeyQuotaResetsNextDay(t *testing.T) {
	l, now := testLimiter(t, Config{APIKeyLimit: 1})
	ctx := context.Background()

	require.True(t, l.CheckAPIKey(ctx, "key-123").Allowed)
	require.False(t, l.CheckAPIKey(ctx, "key-123").Allowed)

	*now = now.Add(24 * time.Hour)
	assert.True(t, l.CheckAPIKey(ctx, "key-123").Allowed, "new UTC day starts a fresh counter")
}

func TestStoreDownFailOpenInDevelopment(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l, _ := testLimiter(t, Config{Redis: rdb, FailClosed: false})
	mr.Close()

	d := l.Check(context.Background(), "some-identity")
	assert.True(t, d.Allowed)
}

func TestStoreDownFailClosedInProduction(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l, _ := testLimiter(t, Config{Redis: rdb, FailClosed: true})
	mr.Close()

	d := l.Check(context.Background(), "some-identity")
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}
