// Package integration provides wire-level integration tests for the
// Responses API surface.
//
// Tests run against the mock vLLM backend started in-process with
// net/http/httptest, and exercise raw HTTP and SSE rather than going
// through pkg/client.
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/probelab/logprobe/pkg/mockvllm"
)

const (
	testModel  = "TinyLlama/TinyLlama-1.1B-Chat-v1.0"
	testAPIKey = "token-abc123"
)

// testEnv holds the shared backend for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds the mock vLLM server under test.
type TestEnvironment struct {
	Backend *httptest.Server
}

// TestMain starts the mock backend before running tests.
func TestMain(m *testing.M) {
	srv := mockvllm.New(mockvllm.Config{
		Model:  testModel,
		APIKey: testAPIKey,
	})
	testEnv = &TestEnvironment{Backend: httptest.NewServer(srv.Handler())}
	code := m.Run()
	testEnv.Backend.Close()
	os.Exit(code)
}

// BaseURL returns the backend base URL.
func (env *TestEnvironment) BaseURL() string {
	return env.Backend.URL
}

// --- HTTP helpers ---

// probeRequest returns the request body the non-streaming probe sends.
func probeRequest() map[string]any {
	return map[string]any{
		"model": testModel,
		"input": []map[string]any{
			{
				"type": "message",
				"role": "user",
				"content": []map[string]any{
					{"type": "input_text", "text": "What is 2+2?"},
				},
			},
		},
		"max_output_tokens": 50,
		"temperature":       0.7,
		"top_logprobs":      5,
		"include":           []string{"message.output_text.logprobs"},
		"store":             false,
	}
}

// postJSON sends a POST request with JSON body and a bearer token.
func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("creating POST request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

// getURL sends a GET request with a bearer token.
func getURL(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("creating GET request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return string(body)
}

// decodeJSON reads the response body and decodes it into the target.
func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
}
