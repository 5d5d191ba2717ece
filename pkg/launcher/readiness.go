package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/probelab/logprobe/pkg/debug"
)

// defaultPollInterval is how often WaitReady probes the health endpoint.
const defaultPollInterval = 2 * time.Second

// WaitReady polls the server's /health endpoint until it answers 200,
// the ready timeout elapses, or ctx is cancelled. vLLM can take minutes
// to load model weights, so the timeout defaults to five minutes.
func WaitReady(ctx context.Context, baseURL string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	healthURL := baseURL + "/health"
	client := &http.Client{Timeout: 5 * time.Second}

	slog.Info("waiting for vLLM to become ready", "url", healthURL, "timeout", timeout.String())

	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	start := time.Now()
	for {
		if ok := probeHealth(ctx, client, healthURL); ok {
			slog.Info("vLLM server ready", "elapsed", time.Since(start).Round(time.Millisecond).String())
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("launcher: server not ready after %s", timeout)
			}
			return ctx.Err()
		}
	}
}

func probeHealth(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		debug.Log("launcher", "health probe failed", "error", err.Error())
		return false
	}
	resp.Body.Close()

	debug.Log("launcher", "health probe", "status", resp.StatusCode)
	return resp.StatusCode == http.StatusOK
}
