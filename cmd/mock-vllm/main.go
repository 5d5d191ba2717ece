// Command mock-vllm runs a deterministic stand-in for a vLLM server.
//
// It serves /health, /v1/models and /v1/responses with the same wire
// behavior a real vLLM deployment shows, including per-token logprobs
// and SSE streaming, so probes can run without a GPU.
//
// Configuration via flags and environment variables:
//
//	MOCK_VLLM_ADDR       - Listen address (default: :8000)
//	MOCK_VLLM_MODEL      - Model name to serve (default: TinyLlama/TinyLlama-1.1B-Chat-v1.0)
//	MOCK_VLLM_API_KEY    - Bearer token to require; empty disables auth
//	MOCK_VLLM_JWT_SECRET - HS256 secret; switches auth to JWT validation
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/probelab/logprobe/pkg/mockvllm"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mock backend failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr       = flag.String("addr", envOrDefault("MOCK_VLLM_ADDR", ":8000"), "listen address")
		model      = flag.String("model", envOrDefault("MOCK_VLLM_MODEL", ""), "model name to serve")
		apiKey     = flag.String("api-key", envOrDefault("MOCK_VLLM_API_KEY", ""), "required bearer token, empty disables auth")
		jwtSecret  = flag.String("jwt-secret", envOrDefault("MOCK_VLLM_JWT_SECRET", ""), "HS256 secret, switches auth to JWT validation")
		tokenDelay = flag.Duration("token-delay", 0, "pause between streamed tokens")
		metrics    = flag.Bool("metrics", true, "expose Prometheus metrics on /metrics")
	)
	flag.Parse()

	srv := mockvllm.New(mockvllm.Config{
		Model:          *model,
		APIKey:         *apiKey,
		JWTSecret:      *jwtSecret,
		TokenDelay:     *tokenDelay,
		MetricsEnabled: *metrics,
	})

	httpSrv := &http.Server{
		Addr:    *addr,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		authMode := "none"
		switch {
		case *jwtSecret != "":
			authMode = "jwt"
		case *apiKey != "":
			authMode = "key"
		}
		slog.Info("mock vLLM starting", "addr", *addr, "auth", authMode)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
