package main

import (
	"log/slog"
	"net/http"

	"github.com/harperclay/recollect/internal/api"
	"github.com/harperclay/recollect/internal/config"
	"github.com/harperclay/recollect/internal/metrics"
	"github.com/harperclay/recollect/internal/observability"
	"github.com/harperclay/recollect/internal/ratelimit"
)

// buildMiddlewareStack assembles the outer middleware chain. Request
// IDs wrap everything so the limiter and metrics see tagged requests.
func buildMiddlewareStack(cfg *config.Config, logger *slog.Logger) func(http.Handler) http.Handler {
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.BurstSize,
		})
		logger.Info("rate limiting enabled",
			"requests_per_minute", cfg.RateLimit.RequestsPerMinute,
			"burst", cfg.RateLimit.BurstSize,
		)
	}

	return func(next http.Handler) http.Handler {
		handler := next
		if limiter != nil {
			handler = limiter.Middleware(api.UserHeader)(handler)
		}
		handler = metrics.Middleware(handler)
		handler = observability.RequestIDMiddleware(handler)
		return handler
	}
}
