// Package api provides the HTTP surface of the memory assistant: the
// chat endpoint that runs the memory pipeline before the completion
// call, and direct memory management endpoints.
package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/harperclay/recollect/internal/completion"
	"github.com/harperclay/recollect/internal/engine"
	"github.com/harperclay/recollect/internal/memory"
	"github.com/harperclay/recollect/internal/observability"
	recallerrors "github.com/harperclay/recollect/pkg/errors"
	"github.com/harperclay/recollect/pkg/types"
)

// UserHeader carries the caller's identity. Requests without it are
// attributed to the configured default user.
const UserHeader = "X-User-ID"

// DefaultMaxBodySize limits request bodies to 1 MiB.
const DefaultMaxBodySize = 1 << 20

// ErrorResponse is the error envelope for all endpoints.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes the error payload.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Config contains handler configuration.
type Config struct {
	DefaultUser  string // identity for requests without a user header
	ListLimit    int    // default limit for GET /memories
	SystemPrompt string // prepended when the conversation has no system message
	MaxBodySize  int64
}

// Handler serves the HTTP API.
type Handler struct {
	engine     *engine.Engine
	store      memory.Store
	completion completion.Client
	logger     *slog.Logger
	cfg        Config
}

// NewHandler creates the HTTP handler.
func NewHandler(eng *engine.Engine, store memory.Store, client completion.Client, logger *slog.Logger, cfg Config) *Handler {
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = "default_user"
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 10
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	return &Handler{
		engine:     eng,
		store:      store,
		completion: client,
		logger:     logger,
		cfg:        cfg,
	}
}

func (h *Handler) userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(UserHeader)); id != "" {
		return id
	}
	return h.cfg.DefaultUser
}

// Chat handles POST /chat. The memory pipeline runs first; the
// possibly rewritten conversation is then forwarded to the completion
// service.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, h.cfg.MaxBodySize+1))
	if err != nil {
		h.writeError(w, r, recallerrors.NewMalformedInputError("api.chat", "failed to read request body"))
		return
	}
	defer func() { _ = r.Body.Close() }()
	if int64(len(body)) > h.cfg.MaxBodySize {
		h.writeError(w, r, recallerrors.NewMalformedInputError("api.chat", "request body too large"))
		return
	}

	var req types.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, r, recallerrors.NewMalformedInputError("api.chat", "invalid JSON: "+err.Error()))
		return
	}
	if len(req.Messages) == 0 {
		h.writeError(w, r, recallerrors.NewMalformedInputError("api.chat", "messages is required"))
		return
	}

	userID := h.userID(r)
	result, err := h.engine.Process(r.Context(), userID, req.Messages)
	if err != nil {
		h.logger.Error("memory pipeline failed",
			"user_id", userID,
			"request_id", observability.RequestIDFromContext(r.Context()),
			"error", err,
		)
		h.writeError(w, r, err)
		return
	}

	if result.Stored != nil {
		w.Header().Set("X-Memory-Stored", "true")
	}
	if result.Intent.WantsRetrieve {
		w.Header().Set("X-Memories-Found", strconv.Itoa(len(result.Retrieved)))
	}

	upstream := &types.ChatRequest{
		Model:       req.Model,
		Messages:    h.withSystemPrompt(result.Messages),
		Stream:      req.Stream,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		User:        userID,
	}

	if req.Stream {
		h.streamCompletion(w, r, upstream)
		return
	}

	resp, err := h.completion.Complete(r.Context(), upstream)
	if err != nil {
		h.logger.Error("completion failed", "user_id", userID, "error", err)
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// withSystemPrompt prepends the configured system message unless the
// conversation already starts with one.
func (h *Handler) withSystemPrompt(messages []types.ChatMessage) []types.ChatMessage {
	if h.cfg.SystemPrompt == "" {
		return messages
	}
	if len(messages) > 0 && messages[0].Role == types.RoleSystem {
		return messages
	}
	out := make([]types.ChatMessage, 0, len(messages)+1)
	out = append(out, types.ChatMessage{Role: types.RoleSystem, Content: h.cfg.SystemPrompt})
	return append(out, messages...)
}

// streamCompletion forwards the upstream SSE body to the client.
func (h *Handler) streamCompletion(w http.ResponseWriter, r *http.Request, req *types.ChatRequest) {
	stream, err := h.completion.Stream(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer func() { _ = stream.Close() }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, r, recallerrors.NewInternalError("api.chat", "streaming not supported"))
		return
	}

	buf := make([]byte, 4096)
	for {
		n, readErr := stream.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				break
			}
			flusher.Flush()
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if r.Context().Err() != nil {
				h.logger.Debug("client disconnected during stream")
			} else {
				h.logger.Error("stream read error", "error", readErr)
			}
			break
		}
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rerr *recallerrors.Error
	if e, ok := err.(*recallerrors.Error); ok {
		rerr = e
	} else {
		rerr = recallerrors.NewInternalError("api", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rerr.HTTPStatusCode())

	resp := ErrorResponse{
		Error: ErrorDetail{
			Message: rerr.Message,
			Type:    rerr.Type,
			Code:    rerr.Op,
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode error response",
			"request_id", observability.RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
}
