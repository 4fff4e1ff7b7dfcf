package analysis

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

func testCache(t *testing.T, promptVersion string) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewCache(rdb, promptVersion, 24*time.Hour, logging.New("error"))
}

func TestCacheRoundTrip(t *testing.T) {
	mr, c := testCache(t, "1")
	ctx := context.Background()

	result := &Result{Verdict: VerdictHighRisk, Confidence: 0.9, Summary: "classic phishing"}
	c.Set(ctx, "some suspicious text", result)

	got := c.Get(ctx, "some suspicious text")
	require.NotNil(t, got)
	assert.Equal(t, result, got)

	// Different text, different key.
	assert.Nil(t, c.Get(ctx, "different text"))

	// Entries expire after the TTL.
	mr.FastForward(24*time.Hour + time.Minute)
	assert.Nil(t, c.Get(ctx, "some suspicious text"))
}

func TestCacheKeyFormat(t *testing.T) {
	_, c := testCache(t, "3")
	key := c.Key("hello")
	assert.Regexp(t, `^v3:[0-9a-f]{64}$`, key)
}

func TestCacheKeyChangesWithPromptVersion(t *testing.T) {
	_, c1 := testCache(t, "1")
	_, c2 := testCache(t, "2")
	assert.NotEqual(t, c1.Key("same text"), c2.Key("same text"))
}

func TestCachePromptVersionInvalidatesEntries(t *testing.T) {
	mr, c1 := testCache(t, "1")
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c2 := NewCache(rdb, "2", 24*time.Hour, logging.New("error"))
	ctx := context.Background()

	c1.Set(ctx, "text", &Result{Verdict: VerdictSafe})
	assert.NotNil(t, c1.Get(ctx, "text"))
	assert.Nil(t, c2.Get(ctx, "text"), "bumped prompt version must miss old entries")
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache(nil, "1", 0, nil)
	ctx := context.Background()
	c.Set(ctx, "text", &Result{Verdict: VerdictSafe})
	assert.Nil(t, c.Get(ctx, "text"))
}
