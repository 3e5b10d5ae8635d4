package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/harperclay/recollect/internal/extract"
	"github.com/harperclay/recollect/internal/memory"
	recallerrors "github.com/harperclay/recollect/pkg/errors"
)

// apiContext tags memories created through the management endpoint.
const apiContext = "api"

// MemoriesResponse is the payload of GET /memories.
type MemoriesResponse struct {
	Memories []*memory.Memory `json:"memories"`
	Count    int              `json:"count"`
}

// MemoryResponse is the payload of POST /memories.
type MemoryResponse struct {
	Memory *memory.Memory `json:"memory"`
}

// ListMemories handles GET /memories. With ?q= it searches; without it
// returns the most recent memories. ?limit= caps the result.
func (h *Handler) ListMemories(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)

	limit := h.cfg.ListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var (
		memories []*memory.Memory
		err      error
	)
	if query := r.URL.Query().Get("q"); query != "" {
		memories, err = h.store.Search(r.Context(), userID, query, limit)
	} else {
		memories, err = h.store.GetRecent(r.Context(), userID, limit)
	}
	if err != nil {
		h.logger.Error("memory listing failed", "user_id", userID, "error", err)
		h.writeError(w, r, err)
		return
	}

	if memories == nil {
		memories = []*memory.Memory{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(MemoriesResponse{Memories: memories, Count: len(memories)}); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// CreateMemory handles POST /memories: a direct write that bypasses
// intent classification. Category and tags are derived from the
// content when the caller leaves them out.
func (h *Handler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	var draft memory.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.writeError(w, r, recallerrors.NewMalformedInputError("api.create_memory", "invalid JSON: "+err.Error()))
		return
	}

	draft.Content = strings.TrimSpace(draft.Content)
	if draft.Content == "" {
		h.writeError(w, r, recallerrors.NewMalformedInputError("api.create_memory", "content is required"))
		return
	}
	if draft.Category == "" {
		draft.Category = extract.DetectCategory(draft.Content)
	}
	if len(draft.Tags) == 0 {
		draft.Tags = extract.Tags(draft.Content)
	}
	if draft.Context == "" {
		draft.Context = apiContext
	}

	userID := h.userID(r)
	stored, err := h.store.Store(r.Context(), userID, draft)
	if err != nil {
		h.logger.Error("memory write failed", "user_id", userID, "error", err)
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(MemoryResponse{Memory: stored}); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
