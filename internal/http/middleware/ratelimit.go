package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/scamshield/scamshield/internal/httpx"
	"github.com/scamshield/scamshield/internal/ratelimit"
	"github.com/scamshield/scamshield/pkg/logging"
)

// RateLimitMetrics receives one observation per denied request.
type RateLimitMetrics interface {
	ObserveRateLimited(tier string)
}

// Limiter is the subset of the Redis rate limiter the middleware uses.
type Limiter interface {
	Identity(ip, userAgent string) string
	Check(ctx context.Context, identity string) ratelimit.Decision
	CheckAPIKey(ctx context.Context, apiKey string) ratelimit.Decision
}

// RateLimit enforces quotas before requests reach the analysis pipeline.
// Requests carrying X-API-Key use the key's daily quota; everything else is
// limited per anonymized client identity.
func RateLimit(limiter Limiter, m RateLimitMetrics, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var decision ratelimit.Decision
			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				decision = limiter.CheckAPIKey(r.Context(), apiKey)
			} else {
				identity := limiter.Identity(clientIP(r), r.UserAgent())
				decision = limiter.Check(r.Context(), identity)
			}

			if !decision.Allowed {
				quota := &httpx.QuotaExceededError{Tier: decision.Tier, RetryAfter: decision.RetryAfter}
				if m != nil {
					m.ObserveRateLimited(quota.Tier)
				}
				logger.Warn("request rate limited", "path", r.URL.Path, "error", quota)
				writeQuotaExceeded(w, quota)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// writeQuotaExceeded renders the 429 denial. Retry-After is floored at one
// second so clients never get a zero back-off.
func writeQuotaExceeded(w http.ResponseWriter, quota *httpx.QuotaExceededError) {
	retryAfter := int(quota.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "rate limit exceeded",
		"tier":  quota.Tier,
	})
}

// clientIP prefers the address set by chi's RealIP middleware and strips
// any port.
func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
