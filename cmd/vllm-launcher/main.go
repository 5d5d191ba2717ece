// Command vllm-launcher starts a vLLM server with the configured flags,
// waits for it to become ready, and supervises it until interrupted.
//
// The server configuration (model, port, dtype, api key and so on) comes
// from logprobe.yaml and LOGPROBE_* environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/probelab/logprobe/pkg/config"
	"github.com/probelab/logprobe/pkg/debug"
	"github.com/probelab/logprobe/pkg/launcher"
)

func main() {
	if err := run(); err != nil {
		slog.Error("launcher failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to config file")
		model      = flag.String("model", "", "model to serve (overrides config)")
		port       = flag.Int("port", 0, "listen port (overrides config)")
		skipReady  = flag.Bool("no-wait", false, "do not wait for the health endpoint")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *model != "" {
		cfg.Server.Model = *model
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if cfg.Server.Model == "" {
		return fmt.Errorf("a model is required (-model or server.model in config)")
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: debug.ParseLevel(cfg.Logging.Level),
	})))

	l, err := launcher.New(cfg.Server)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := l.Start(ctx); err != nil {
		return err
	}

	if !*skipReady {
		readyErr := make(chan error, 1)
		go func() {
			readyErr <- launcher.WaitReady(ctx, l.BaseURL(), cfg.Server.ReadyTimeout)
		}()
		exitErr := make(chan error, 1)
		go func() {
			exitErr <- l.Wait(ctx)
		}()

		select {
		case err := <-readyErr:
			if err != nil {
				l.Stop()
				return err
			}
		case err := <-exitErr:
			if errors.Is(err, context.Canceled) {
				return l.Stop()
			}
			if err == nil {
				err = fmt.Errorf("vLLM exited before becoming ready")
			}
			return err
		}
	}

	err = l.Wait(ctx)
	if errors.Is(err, context.Canceled) {
		// Interrupted: shut the server down and report a clean exit.
		slog.Info("shutting down")
		return l.Stop()
	}
	return err
}
