// Package ratelimit provides per-user request rate limiting. Limiters
// are kept in an expiring cache so idle users do not accumulate state.
package ratelimit

import (
	"net"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/harperclay/recollect/internal/metrics"
)

// Config contains settings for the per-user rate limiter.
type Config struct {
	RequestsPerMinute int           // Sustained rate per user
	Burst             int           // Burst size per user
	TTL               time.Duration // Idle limiter eviction
}

// Limiter applies a token bucket per user key.
type Limiter struct {
	limiters *gocache.Cache
	rate     rate.Limit
	burst    int
}

// New creates a per-user rate limiter.
func New(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &Limiter{
		limiters: gocache.New(cfg.TTL, cfg.TTL*2),
		rate:     rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		burst:    cfg.Burst,
	}
}

// Allow reports whether a request for the given key may proceed.
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	if cached, found := l.limiters.Get(key); found {
		if limiter, ok := cached.(*rate.Limiter); ok {
			l.limiters.SetDefault(key, limiter)
			return limiter
		}
	}

	limiter := rate.NewLimiter(l.rate, l.burst)
	l.limiters.SetDefault(key, limiter)
	return limiter
}

// Middleware returns an HTTP middleware that rejects requests over the
// limit with 429. The user header keys the bucket; requests without it
// fall back to the client address.
func (l *Limiter) Middleware(userHeader string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(userHeader)
			if key == "" {
				key = remoteHost(r.RemoteAddr)
			}

			if !l.Allow(key) {
				metrics.RateLimitRejections.Inc()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err == nil && host != "" {
		return host
	}
	return addr
}
