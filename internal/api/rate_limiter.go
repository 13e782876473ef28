package api

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter manages per-caller rate limiting for API requests
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex

	// Requests per second for authenticated vs anonymous callers
	authedLimit    rate.Limit
	anonymousLimit rate.Limit

	burstSize int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(authedRPS, anonymousRPS int) *RateLimiter {
	return &RateLimiter{
		limiters:       make(map[string]*rate.Limiter),
		authedLimit:    rate.Limit(authedRPS),
		anonymousLimit: rate.Limit(anonymousRPS),
		burstSize:      10,
	}
}

// getLimiter returns the rate limiter for a caller key
func (rl *RateLimiter) getLimiter(key string, authed bool) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	limit := rl.anonymousLimit
	if authed {
		limit = rl.authedLimit
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check in case another goroutine created it
	if limiter, exists := rl.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(limit, rl.burstSize)
	rl.limiters[key] = limiter

	return limiter
}

// RateLimitMiddleware creates a middleware that enforces rate limiting.
// Authenticated callers are keyed by bearer token, anonymous callers by
// remote address with a stricter limit.
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, authed := bearerToken(r)
			if !authed {
				key = r.RemoteAddr
			}

			limiter := rl.getLimiter(key, authed)

			if !limiter.Allow() {
				respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
					"Rate limit exceeded. Please try again later.", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
