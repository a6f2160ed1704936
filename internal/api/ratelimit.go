package api

import (
	"net/http"

	"golang.org/x/time/rate"

	"bermudago/internal/metrics"
)

// newLimiter creates the shared request limiter; non-positive values fall back to defaults.
func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 20
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// limit rejects requests with 429 once the token bucket is empty.
func limit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				metrics.RateLimited.Inc()
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
