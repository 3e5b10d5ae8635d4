package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

const readyTimeout = 2 * time.Second

// Pinger checks connectivity to a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz handles GET /healthz. The process is up.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readyz returns a readiness handler that checks the memory store.
func (h *Handler) Readyz(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"status": "unavailable",
					"reason": "memory store unreachable",
				})
				return
			}
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}
