// Command logprobe probes a Responses API backend for per-token logprobs.
//
// It sends a non-streaming and a streaming request with top_logprobs and
// the logprobs include flag set, checks the answers, and prints a report.
// Exit code 0 means all checks passed, 1 means a check failed, 2 means the
// probe could not run at all.
//
// Configuration comes from logprobe.yaml (or LOGPROBE_CONFIG), LOGPROBE_*
// environment variables, and the flags below.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/probelab/logprobe/pkg/auth"
	"github.com/probelab/logprobe/pkg/client"
	"github.com/probelab/logprobe/pkg/config"
	"github.com/probelab/logprobe/pkg/debug"
	"github.com/probelab/logprobe/pkg/probe"
	"github.com/probelab/logprobe/pkg/report"
	"github.com/probelab/logprobe/pkg/storage"
	"github.com/probelab/logprobe/pkg/storage/memory"
	"github.com/probelab/logprobe/pkg/storage/postgres"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "path to config file")
		baseURL    = flag.String("base-url", "", "backend base URL (overrides config)")
		model      = flag.String("model", "", "model name (overrides config)")
		mode       = flag.String("mode", "both", "probe mode: sync, stream, or both")
		jsonOut    = flag.Bool("json", false, "emit results as JSON instead of text")
		listRuns   = flag.Int("list", 0, "list the last N stored probe runs instead of probing")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	if *baseURL != "" {
		cfg.Probe.BaseURL = *baseURL
	}
	if *model != "" {
		cfg.Probe.Model = *model
	}

	setupLogging(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("storage setup failed", "error", err)
		return 2
	}
	if store != nil {
		defer store.Close()
	}

	if *listRuns > 0 {
		return printRuns(ctx, store, *listRuns)
	}

	if cfg.Probe.Model == "" {
		fmt.Fprintln(os.Stderr, "error: a model is required (-model or probe.model in config)")
		return 2
	}

	tokens, err := tokenSource(cfg.Probe.Auth)
	if err != nil {
		slog.Error("auth setup failed", "error", err)
		return 2
	}

	c, err := client.New(client.Config{
		BaseURL: cfg.Probe.BaseURL,
		Tokens:  tokens,
		Timeout: cfg.Probe.Timeout,
	})
	if err != nil {
		slog.Error("client setup failed", "error", err)
		return 2
	}
	defer c.Close()

	if err := c.ProbeEndpoint(ctx); err != nil {
		slog.Error("backend check failed", "error", err)
		return 2
	}

	runner := probe.NewRunner(c, cfg.Probe, store)

	var results []*probe.Result
	switch *mode {
	case "sync":
		res, err := runner.RunSync(ctx)
		if err != nil {
			slog.Error("probe failed", "error", err)
			return 2
		}
		results = []*probe.Result{res}
	case "stream":
		res, err := runner.RunStream(ctx)
		if err != nil {
			slog.Error("probe failed", "error", err)
			return 2
		}
		results = []*probe.Result{res}
	case "both":
		results, err = runner.Run(ctx)
		if err != nil {
			slog.Error("probe failed", "error", err)
			return 2
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unknown mode %q\n", *mode)
		return 2
	}

	if *jsonOut {
		if err := report.WriteJSON(os.Stdout, results); err != nil {
			slog.Error("writing report failed", "error", err)
			return 2
		}
	} else {
		if err := report.WriteText(os.Stdout, results); err != nil {
			slog.Error("writing report failed", "error", err)
			return 2
		}
		fmt.Println()
		fmt.Println(report.Summary(results))
	}

	for _, res := range results {
		if !res.Passed() {
			return 1
		}
	}
	return 0
}

// setupLogging installs the default slog handler at the configured level
// and initializes debug categories.
func setupLogging(cfg config.LoggingConfig) {
	debug.Init(cfg.Debug, cfg.Level)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: debug.ParseLevel(cfg.Level),
	})))
}

// tokenSource builds the bearer token source from the auth configuration.
func tokenSource(cfg config.AuthConfig) (auth.TokenSource, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "static":
		return auth.StaticToken(cfg.APIKey), nil
	case "file":
		return auth.FileToken{Path: cfg.APIKeyFile}, nil
	case "jwt":
		return auth.NewJWTMinter(auth.JWTConfig{
			Secret:  cfg.JWTSecret,
			Subject: cfg.JWTSubject,
			TTL:     cfg.JWTTTL,
		})
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}
}

// buildStore creates the configured run store, or nil when persistence is
// disabled.
func buildStore(ctx context.Context, cfg config.StorageConfig) (storage.RunStore, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return memory.New(cfg.MaxSize), nil
	case "postgres":
		return postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// printRuns lists the most recent stored probe runs.
func printRuns(ctx context.Context, store storage.RunStore, limit int) int {
	if store == nil {
		fmt.Fprintln(os.Stderr, "error: -list requires storage to be configured")
		return 2
	}

	runs, err := store.ListRuns(ctx, storage.ListOptions{Limit: limit})
	if err != nil {
		slog.Error("listing runs failed", "error", err)
		return 2
	}

	for _, run := range runs {
		verdict := "PASS"
		if !run.Passed {
			verdict = "FAIL"
		}
		fmt.Printf("%s  %-6s %-4s %-40s tokens=%-3d ppl=%.2f %s\n",
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Mode, verdict, run.Model, run.TokenCount, run.Perplexity, run.ID)
	}
	return 0
}
