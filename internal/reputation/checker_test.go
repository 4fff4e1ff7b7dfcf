package reputation

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamshield/scamshield/pkg/logging"
)

type fakeProvider struct {
	name     string
	verdicts map[string]bool
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Lookup(_ context.Context, urls []string) (map[string]bool, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]bool, len(urls))
	for _, u := range urls {
		out[u] = f.verdicts[u]
	}
	return out, nil
}

func testRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCheckUnionsProviders(t *testing.T) {
	p1 := &fakeProvider{name: "alpha", verdicts: map[string]bool{"https://bad.example.com": true}}
	p2 := &fakeProvider{name: "beta", verdicts: map[string]bool{"https://bad.example.com": true}}
	c := NewChecker([]Provider{p1, p2}, nil, time.Second, logging.New("error"))

	results := c.Check(context.Background(), []string{"https://bad.example.com", "https://ok.example.com"})

	require.Len(t, results, 2)
	assert.Equal(t, "https://bad.example.com", results[0].URL)
	assert.True(t, results[0].Malicious)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, results[0].Sources)
	assert.False(t, results[1].Malicious)
	assert.Empty(t, results[1].Sources)
}

func TestCheckToleratesProviderFailure(t *testing.T) {
	failing := &fakeProvider{name: "alpha", err: errors.New("boom")}
	working := &fakeProvider{name: "beta", verdicts: map[string]bool{"https://bad.example.com": true}}
	c := NewChecker([]Provider{failing, working}, nil, time.Second, logging.New("error"))

	results := c.Check(context.Background(), []string{"https://bad.example.com", "https://ok.example.com"})

	// Every input URL still gets a result.
	require.Len(t, results, 2)
	assert.True(t, results[0].Malicious)
	assert.Equal(t, []string{"beta"}, results[0].Sources)
	assert.False(t, results[1].Malicious)
}

func TestCheckCachesResults(t *testing.T) {
	mr, rdb := testRedis(t)
	p := &fakeProvider{name: "alpha", verdicts: map[string]bool{"https://bad.example.com": true}}
	c := NewChecker([]Provider{p}, rdb, time.Second, logging.New("error"))

	first := c.Check(context.Background(), []string{"https://bad.example.com"})
	second := c.Check(context.Background(), []string{"https://bad.example.com"})

	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.calls, "second check must come from cache")

	// Malicious entries expire on the shorter TTL.
	mr.FastForward(maliciousTTL + time.Minute)
	c.Check(context.Background(), []string{"https://bad.example.com"})
	assert.Equal(t, 2, p.calls)
}

func TestCheckCleanTTLOutlivesMaliciousTTL(t *testing.T) {
	mr, rdb := testRedis(t)
	p := &fakeProvider{name: "alpha", verdicts: map[string]bool{}}
	c := NewChecker([]Provider{p}, rdb, time.Second, logging.New("error"))

	c.Check(context.Background(), []string{"https://ok.example.com"})
	mr.FastForward(maliciousTTL + time.Minute)
	c.Check(context.Background(), []string{"https://ok.example.com"})
	assert.Equal(t, 1, p.calls, "clean entry must still be cached after the malicious TTL")

	mr.FastForward(cleanTTL)
	c.Check(context.Background(), []string{"https://ok.example.com"})
	assert.Equal(t, 2, p.calls)
}

func TestCheckEmptyInput(t *testing.T) {
	c := NewChecker(nil, nil, time.Second, logging.New("error"))
	assert.Nil(t, c.Check(context.Background(), nil))
}
