// Package completion talks to the downstream chat completion service.
// The engine does not depend on a particular model or transport; any
// OpenAI-compatible endpoint works.
package completion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/harperclay/recollect/internal/metrics"
	recallerrors "github.com/harperclay/recollect/pkg/errors"
	"github.com/harperclay/recollect/pkg/types"
)

// Client is the completion collaborator contract.
type Client interface {
	// Complete performs a buffered completion call.
	Complete(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error)
	// Stream performs a streaming completion call and returns the raw
	// SSE body for the caller to forward. The caller closes it.
	Stream(ctx context.Context, req *types.ChatRequest) (io.ReadCloser, error)
}

// Config contains settings for the HTTP completion client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// HTTPClient speaks the OpenAI-compatible chat completions wire format.
type HTTPClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewHTTPClient creates a completion client for the configured endpoint.
func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Complete performs a buffered completion call.
func (c *HTTPClient) Complete(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error) {
	req.Stream = false

	start := time.Now()
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var chatResp types.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, recallerrors.NewCompletionError("completion.complete", err)
	}

	metrics.RecordCompletion(c.model(req), time.Since(start))
	return &chatResp, nil
}

// Stream performs a streaming completion call.
func (c *HTTPClient) Stream(ctx context.Context, req *types.ChatRequest) (io.ReadCloser, error) {
	req.Stream = true

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *HTTPClient) do(ctx context.Context, req *types.ChatRequest) (*http.Response, error) {
	c.applyDefaults(req)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, recallerrors.NewInternalError("completion.request", "failed to serialize request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, recallerrors.NewInternalError("completion.request", "failed to build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, recallerrors.NewCompletionError("completion.request", err)
	}

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, recallerrors.NewCompletionError("completion.request",
			fmt.Errorf("upstream status %d: %s", resp.StatusCode, respBody))
	}
	return resp, nil
}

func (c *HTTPClient) applyDefaults(req *types.ChatRequest) {
	if req.Model == "" {
		req.Model = c.cfg.Model
	}
	if req.Temperature == nil && c.cfg.Temperature > 0 {
		t := c.cfg.Temperature
		req.Temperature = &t
	}
	if req.MaxTokens == 0 && c.cfg.MaxTokens > 0 {
		req.MaxTokens = c.cfg.MaxTokens
	}
}

func (c *HTTPClient) model(req *types.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.cfg.Model
}
