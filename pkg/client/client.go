// Package client provides an HTTP client for the Responses API surface that
// logprobe exercises: POST /v1/responses in both its non-streaming and SSE
// streaming forms, GET /v1/models, and an endpoint probe that tells apart a
// missing route from a backend that merely rejected the request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/probelab/logprobe/pkg/api"
	"github.com/probelab/logprobe/pkg/auth"
	"github.com/probelab/logprobe/pkg/debug"
)

// Config holds configuration for the Responses API client.
type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:8000".
	BaseURL string

	// Tokens supplies the bearer token for outgoing requests. Nil disables
	// authentication.
	Tokens auth.TokenSource

	// Timeout applies to non-streaming requests. Streaming requests rely on
	// context cancellation instead. Default: 120s.
	Timeout time.Duration
}

// Client talks to a Responses API backend.
type Client struct {
	baseURL    string
	tokens     auth.TokenSource
	httpClient *http.Client
}

// New creates a new Client with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("client: BaseURL is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = auth.StaticToken("")
	}

	return &Client{
		baseURL: cfg.BaseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateResponse performs non-streaming inference via POST /v1/responses.
func (c *Client) CreateResponse(ctx context.Context, req *api.CreateResponseRequest) (*api.Response, error) {
	reqCopy := *req
	reqCopy.Stream = false

	body, err := json.Marshal(&reqCopy)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/v1/responses", body)
	if err != nil {
		return nil, err
	}

	debug.Log("client", "request", "method", "POST",
		"url", c.baseURL+"/v1/responses", "model", req.Model, "stream", false)
	debug.Raw("client", string(body))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	var resp api.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to parse backend response: %s", err.Error()))
	}

	return &resp, nil
}

// StreamResponse performs streaming inference via POST /v1/responses with
// stream=true. It returns a channel of StreamEvents. The channel is closed
// when the stream completes, errors, or the context is cancelled.
//
// The HTTP client timeout is not applied for streaming requests because a
// stream can legitimately last longer than any fixed timeout. Lifecycle
// control relies on context cancellation instead.
func (c *Client) StreamResponse(ctx context.Context, req *api.CreateResponseRequest) (<-chan api.StreamEvent, error) {
	reqCopy := *req
	reqCopy.Stream = true

	body, err := json.Marshal(&reqCopy)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/v1/responses", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	debug.Log("client", "request", "method", "POST",
		"url", c.baseURL+"/v1/responses", "model", req.Model, "stream", true)

	// Use a client without timeout for streaming. The context controls
	// the request lifetime instead.
	streamClient := &http.Client{
		Transport: c.httpClient.Transport,
	}

	httpResp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, mapHTTPError(httpResp)
	}

	ch := make(chan api.StreamEvent, 32)
	go func() {
		defer close(ch)
		defer httpResp.Body.Close()
		parseSSEStream(ctx, httpResp.Body, ch)
	}()

	return ch, nil
}

// ProbeEndpoint sends a lightweight request to /v1/responses to verify the
// backend supports the Responses API. Connection errors and plain 404s (path
// not found) indicate the endpoint is unavailable. A JSON-formatted 404 from
// the API (e.g., "model not found") means the endpoint exists but rejected
// our probe, which is acceptable.
func (c *Client) ProbeEndpoint(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	probe := []byte(`{"model":"_probe","input":[],"store":false}`)
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/v1/responses", probe)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("client: backend at %s is not reachable: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode == http.StatusNotFound {
		// Distinguish between "path not found" (endpoint missing) and
		// "model not found" (endpoint exists, probe model invalid). vLLM
		// returns 404 with a JSON body for model-not-found errors.
		if isBackendAPIError(respBody) {
			debug.Log("client", "endpoint probe ok (endpoint exists)",
				"url", c.baseURL+"/v1/responses", "status", resp.StatusCode)
			return nil
		}
		return fmt.Errorf("client: backend at %s does not support the Responses API (/v1/responses returned 404)", c.baseURL)
	}

	debug.Log("client", "endpoint probe ok",
		"url", c.baseURL+"/v1/responses", "status", resp.StatusCode)
	return nil
}

// ListModels queries the backend's /v1/models endpoint.
func (c *Client) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/v1/models", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(resp)
	}

	var result struct {
		Data []api.ModelInfo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to decode models: %s", err.Error()))
	}
	return result.Data, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// newRequest builds an HTTP request with content type and bearer token set.
func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("client: resolving bearer token: %w", err)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return httpReq, nil
}

// isBackendAPIError checks if a response body is a JSON API error (as opposed
// to a plain text "Not Found" from a web framework). vLLM returns JSON errors
// like {"object":"error","message":"The model '_probe' does not exist.","code":404}
// when the endpoint exists but the request is invalid.
func isBackendAPIError(body []byte) bool {
	var obj struct {
		Object  string `json:"object"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &obj) == nil && obj.Message != "" {
		return true
	}
	return false
}
