package mockvllm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/probelab/logprobe/pkg/api"
	"github.com/probelab/logprobe/pkg/auth"
	"github.com/probelab/logprobe/pkg/debug"
	"github.com/probelab/logprobe/pkg/observability"
)

// Config holds settings for the mock backend.
type Config struct {
	// Model is the single model the mock serves. Requests for any other
	// model get a vLLM-style 404.
	Model string

	// APIKey protects the /v1 endpoints when non-empty.
	APIKey string

	// JWTSecret switches the /v1 endpoints to HS256 JWT validation.
	// Takes precedence over APIKey.
	JWTSecret string

	// TokenDelay inserts a pause between streamed deltas to mimic
	// generation latency. Zero streams as fast as possible.
	TokenDelay time.Duration

	// MetricsEnabled exposes Prometheus metrics on /metrics.
	MetricsEnabled bool
}

// Server is the mock vLLM backend.
type Server struct {
	cfg    Config
	authMW func(http.Handler) http.Handler
	valid  api.ValidationConfig
}

// New creates a mock backend for the given configuration.
func New(cfg Config) *Server {
	if cfg.Model == "" {
		cfg.Model = "TinyLlama/TinyLlama-1.1B-Chat-v1.0"
	}
	authMW := auth.NewKeyChecker(cfg.APIKey).Middleware
	if cfg.JWTSecret != "" {
		authMW = auth.NewJWTChecker(cfg.JWTSecret).Middleware
	}
	return &Server{
		cfg:    cfg,
		authMW: authMW,
		valid:  api.DefaultValidationConfig(),
	}
}

// Handler returns the complete HTTP handler with auth and metrics wired in.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /v1/responses", s.authMW(http.HandlerFunc(s.handleResponses)))
	mux.Handle("GET /v1/models", s.authMW(http.HandlerFunc(s.handleModels)))
	if s.cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
	return observability.MetricsMiddleware(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data": []api.ModelInfo{
			{ID: s.cfg.Model, Object: "model", OwnedBy: "vllm"},
		},
	})
}

func (s *Server) handleResponses(w http.ResponseWriter, r *http.Request) {
	var req api.CreateResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVLLMError(w, http.StatusBadRequest, "BadRequestError",
			"invalid JSON body: "+err.Error())
		return
	}

	if apiErr := api.ValidateRequest(&req, s.valid); apiErr != nil {
		writeVLLMError(w, http.StatusBadRequest, "BadRequestError", apiErr.Message)
		return
	}

	if req.Model != s.cfg.Model {
		writeVLLMError(w, http.StatusNotFound, "NotFoundError",
			fmt.Sprintf("The model '%s' does not exist.", req.Model))
		return
	}

	topLogprobs := 0
	if req.WantsLogprobs() && req.TopLogprobs != nil {
		topLogprobs = *req.TopLogprobs
	}
	maxTokens := 0
	if req.MaxOutputTokens != nil {
		maxTokens = *req.MaxOutputTokens
	}

	prompt := promptText(req.Input)
	tokens := generate(prompt, maxTokens, topLogprobs)

	debug.Log("mock", "handling request",
		"model", req.Model,
		"stream", req.Stream,
		"top_logprobs", topLogprobs,
		"tokens", len(tokens),
	)

	if req.Stream {
		s.streamResponse(w, r, &req, tokens)
		return
	}

	resp := s.buildResponse(&req, tokens)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("encoding response failed", "error", err.Error())
	}
}

// buildResponse assembles the completed Response for a token sequence.
func (s *Server) buildResponse(req *api.CreateResponseRequest, tokens []api.TokenLogprob) *api.Response {
	now := time.Now().Unix()
	text := joinTokens(tokens)
	prompt := promptText(req.Input)

	part := api.OutputContentPart{Type: "output_text", Text: text}
	if req.WantsLogprobs() {
		part.Logprobs = tokens
	}
	item := api.Item{
		ID:     api.NewItemID(),
		Type:   api.ItemTypeMessage,
		Status: api.ItemStatusCompleted,
		Message: &api.MessageData{
			Role:   api.RoleAssistant,
			Output: []api.OutputContentPart{part},
		},
	}

	temperature := 1.0
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	topLogprobs := 0
	if req.TopLogprobs != nil {
		topLogprobs = *req.TopLogprobs
	}

	inputTokens := countPromptTokens(prompt)
	return &api.Response{
		ID:          api.NewResponseID(),
		Object:      "response",
		CreatedAt:   now,
		CompletedAt: &now,
		Status:      api.ResponseStatusCompleted,
		Model:       req.Model,
		Output:      []api.Item{item},
		Temperature: temperature,
		TopLogprobs: topLogprobs,
		Usage: &api.Usage{
			InputTokens:  inputTokens,
			OutputTokens: len(tokens),
			TotalTokens:  inputTokens + len(tokens),
		},
	}
}

// writeVLLMError writes vLLM's flat JSON error shape.
func writeVLLMError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"object":  "error",
		"message": message,
		"type":    errType,
		"code":    status,
	})
}
