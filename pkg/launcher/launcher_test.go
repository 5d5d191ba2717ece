package launcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/probelab/logprobe/pkg/config"
)

func TestLauncher_StartAndWait(t *testing.T) {
	l, err := New(config.ServerConfig{
		Binary:          "true",
		Model:           "m",
		StopGracePeriod: time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if l.Pid() == 0 {
		t.Error("Pid() = 0 after Start")
	}
	if err := l.Wait(ctx); err != nil {
		t.Errorf("Wait: %v", err)
	}
}

func TestLauncher_StartTwice(t *testing.T) {
	l, err := New(config.ServerConfig{Binary: "true", Model: "m"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := l.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
	l.Wait(context.Background())
}

func TestLauncher_NonZeroExit(t *testing.T) {
	l, err := New(config.ServerConfig{Binary: "false", Model: "m"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := l.Wait(context.Background()); err == nil {
		t.Error("expected error for non-zero exit")
	}
}

func TestLauncher_MissingBinary(t *testing.T) {
	l, err := New(config.ServerConfig{Binary: "definitely-not-a-binary-xyz", Model: "m"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Start(context.Background()); err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestLauncher_StopInterruptsProcess(t *testing.T) {
	// The first argument is always "serve", so stand in for the vLLM binary
	// with a shell script of that name that blocks until interrupted.
	dir := t.TempDir()
	script := []byte("#!/bin/sh\nexec sleep 60\n")
	if err := os.WriteFile(filepath.Join(dir, "serve"), script, 0755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	t.Chdir(dir)

	l, err := New(config.ServerConfig{
		Binary:          "sh",
		Model:           "m",
		StopGracePeriod: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	start := time.Now()
	if err := l.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Stop took %s, interrupt did not take effect", elapsed)
	}
}

func TestWaitReady(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		// Unavailable on the first call, ready afterwards.
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := WaitReady(context.Background(), server.URL, 30*time.Second); err != nil {
		t.Errorf("WaitReady: %v", err)
	}
	if calls.Load() < 2 {
		t.Errorf("expected at least 2 health probes, got %d", calls.Load())
	}
}

func TestWaitReady_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := WaitReady(context.Background(), server.URL, 100*time.Millisecond)
	if err == nil {
		t.Error("expected timeout error")
	}
}

func TestWaitReady_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitReady(ctx, server.URL, time.Minute); err == nil {
		t.Error("expected error for cancelled context")
	}
}
