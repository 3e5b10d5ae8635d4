package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperclay/recollect/internal/engine"
	"github.com/harperclay/recollect/internal/intent"
	"github.com/harperclay/recollect/internal/memory"
	"github.com/harperclay/recollect/internal/memory/inmem"
	"github.com/harperclay/recollect/pkg/types"
)

// stubCompletion records the last upstream request and returns canned
// responses.
type stubCompletion struct {
	lastReq    *types.ChatRequest
	reply      string
	streamBody string
	err        error
}

func (s *stubCompletion) Complete(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &types.ChatResponse{
		Choices: []types.Choice{{
			Message: types.ChatMessage{Role: types.RoleAssistant, Content: s.reply},
		}},
	}, nil
}

func (s *stubCompletion) Stream(ctx context.Context, req *types.ChatRequest) (io.ReadCloser, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.streamBody)), nil
}

func newTestHandler(t *testing.T) (*Handler, *inmem.Store, *stubCompletion) {
	t.Helper()
	store := inmem.New()
	eng := engine.New(intent.NewKeywordClassifier(), store)
	stub := &stubCompletion{reply: "Got it!"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(eng, store, stub, logger, Config{
		DefaultUser:  "default_user",
		ListLimit:    10,
		SystemPrompt: "You are a memory assistant.",
	})
	return h, store, stub
}

func serveChat(h *Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(body)))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.Chat(rec, req)
	return rec
}

func TestChatStoresMemory(t *testing.T) {
	h, store, stub := newTestHandler(t)

	rec := serveChat(h, `{"messages":[{"role":"user","content":"Remember that I left my keys on the kitchen counter"}]}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Memory-Stored"))

	all, err := store.GetAll(context.Background(), "default_user")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "I left my keys on the kitchen counter", all[0].Content)

	// System prompt leads the upstream conversation.
	require.NotNil(t, stub.lastReq)
	require.NotEmpty(t, stub.lastReq.Messages)
	assert.Equal(t, types.RoleSystem, stub.lastReq.Messages[0].Role)
}

func TestChatInjectsMemoryContext(t *testing.T) {
	h, store, stub := newTestHandler(t)

	_, err := store.Store(context.Background(), "default_user", memory.Draft{
		Content: "I left my keys on the kitchen counter",
		Tags:    []string{"keys"},
	})
	require.NoError(t, err)

	rec := serveChat(h, `{"messages":[{"role":"user","content":"Where did I put my keys?"}]}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Memories-Found"))

	last := stub.lastReq.Messages[len(stub.lastReq.Messages)-1]
	assert.Contains(t, last.Content, "[Relevant memories found:")
	assert.Contains(t, last.Content, "kitchen counter")
}

func TestChatScopesByUserHeader(t *testing.T) {
	h, store, _ := newTestHandler(t)

	rec := serveChat(h, `{"messages":[{"role":"user","content":"remember the milk"}]}`,
		map[string]string{UserHeader: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	all, err := store.GetAll(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	other, err := store.GetAll(context.Background(), "default_user")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := serveChat(h, `{"messages":[]}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "malformed_input_error", resp.Error.Type)
}

func TestChatRejectsInvalidJSON(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := serveChat(h, `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatCompletionFailure(t *testing.T) {
	h, _, stub := newTestHandler(t)
	stub.err = errors.New("upstream down")

	rec := serveChat(h, `{"messages":[{"role":"user","content":"hello"}]}`, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal_error", resp.Error.Type)
}

func TestChatStreamPassthrough(t *testing.T) {
	h, _, stub := newTestHandler(t)
	stub.streamBody = "data: {\"x\":1}\n\ndata: [DONE]\n\n"

	rec := serveChat(h, `{"stream":true,"messages":[{"role":"user","content":"hello"}]}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "[DONE]")
	assert.True(t, stub.lastReq.Stream)
}

func TestListMemoriesRecent(t *testing.T) {
	h, store, _ := newTestHandler(t)
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		_, err := store.Store(ctx, "default_user", memory.Draft{Content: content})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/memories?limit=2", nil)
	rec := httptest.NewRecorder()
	h.ListMemories(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp MemoriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Memories, 2)
}

func TestListMemoriesSearch(t *testing.T) {
	h, store, _ := newTestHandler(t)
	ctx := context.Background()

	_, err := store.Store(ctx, "default_user", memory.Draft{Content: "keys on the counter"})
	require.NoError(t, err)
	_, err = store.Store(ctx, "default_user", memory.Draft{Content: "dentist on friday"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/memories?q=keys", nil)
	rec := httptest.NewRecorder()
	h.ListMemories(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp MemoriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "keys on the counter", resp.Memories[0].Content)
}

func TestListMemoriesEmpty(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/memories", nil)
	rec := httptest.NewRecorder()
	h.ListMemories(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"memories":[],"count":0}`, rec.Body.String())
}

func TestCreateMemory(t *testing.T) {
	h, store, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/memories",
		strings.NewReader(`{"content":"take medication at 8am"}`))
	rec := httptest.NewRecorder()
	h.CreateMemory(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp MemoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Memory)
	assert.Equal(t, "take medication at 8am", resp.Memory.Content)
	assert.Equal(t, "health", resp.Memory.Category)
	assert.Equal(t, memory.DefaultImportance, resp.Memory.Importance)
	assert.Equal(t, "api", resp.Memory.Context)

	all, err := store.GetAll(context.Background(), "default_user")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateMemoryRequiresContent(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/memories", strings.NewReader(`{"content":"   "}`))
	rec := httptest.NewRecorder()
	h.CreateMemory(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "malformed_input_error", resp.Error.Type)
	assert.Equal(t, "content is required", resp.Error.Message)
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("connection refused") }

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

func TestHealthEndpoints(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Readyz(okPinger{})(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Readyz(failingPinger{})(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRegisterRoutes(t *testing.T) {
	h, _, _ := newTestHandler(t)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux, okPinger{})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Wrong method is rejected by the mux.
	resp, err = http.Get(srv.URL + "/chat")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
