package api

import "net/http"

// RegisterRoutes registers the API endpoints on the given mux. The
// readiness probe checks the memory store when a pinger is supplied.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, pinger Pinger) {
	mux.HandleFunc("POST /chat", h.Chat)
	mux.HandleFunc("GET /memories", h.ListMemories)
	mux.HandleFunc("POST /memories", h.CreateMemory)
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.Handle("GET /readyz", h.Readyz(pinger))
}
