package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamshield/scamshield/internal/analysis"
	"github.com/scamshield/scamshield/internal/http/handlers"
	"github.com/scamshield/scamshield/internal/store"
	"github.com/scamshield/scamshield/pkg/logging"
)

type stubEngine struct{}

func (stubEngine) Analyze(_ context.Context, _ analysis.Submission) (*analysis.Outcome, error) {
	return &analysis.Outcome{
		Result: &analysis.Result{Verdict: analysis.VerdictSafe, Confidence: 0.9},
	}, nil
}

type stubStats struct{}

func (stubStats) RecentStats(_ context.Context, _ int) ([]store.DailyStat, error) {
	return []store.DailyStat{{Day: "2026-09-01", Verdict: analysis.VerdictSafe, Total: 4}}, nil
}

func testRouter(rateLimit func(http.Handler) http.Handler) http.Handler {
	logger := logging.New("error")
	return New(&Config{
		Logger:         logger,
		AnalyzeHandler: handlers.NewAnalyzeHandler(stubEngine{}, nil, logger),
		StatsHandler:   handlers.NewStatsHandler(stubStats{}, logger),
		HealthHandler:  handlers.NewHealthHandler(logger),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		RateLimit: rateLimit,
	})
}

func TestRouterHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestRouterMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterAnalyze(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"text": "hi"}`))
	rec := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"SAFE"`)
}

func TestRouterStats(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"2026-09-01"`)
}

func TestRouterRateLimitGuardsAPIOnly(t *testing.T) {
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		})
	}
	router := testRouter(deny)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"text": "hi"}`)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Health stays reachable when quotas are exhausted.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
