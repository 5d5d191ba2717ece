package probe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/probelab/logprobe/pkg/api"
	"github.com/probelab/logprobe/pkg/client"
	"github.com/probelab/logprobe/pkg/config"
	"github.com/probelab/logprobe/pkg/debug"
	"github.com/probelab/logprobe/pkg/observability"
	"github.com/probelab/logprobe/pkg/storage"
)

// Runner executes probe runs against a backend.
type Runner struct {
	client *client.Client
	cfg    config.ProbeConfig
	store  storage.RunStore // nil disables persistence
}

// NewRunner creates a Runner. The store may be nil, in which case results
// are reported but not persisted.
func NewRunner(c *client.Client, cfg config.ProbeConfig, store storage.RunStore) *Runner {
	return &Runner{client: c, cfg: cfg, store: store}
}

// RunSync sends a non-streaming request and checks the response.
func (r *Runner) RunSync(ctx context.Context) (*Result, error) {
	req := r.buildRequest(r.cfg.Prompt, r.cfg.TopLogprobs)

	slog.Info("running sync probe",
		"model", req.Model,
		"prompt", r.cfg.Prompt,
		"top_logprobs", r.cfg.TopLogprobs,
	)

	start := time.Now()
	resp, err := r.client.CreateResponse(ctx, req)
	duration := time.Since(start)

	if err != nil {
		observability.ProbeRequestsTotal.WithLabelValues(storage.ModeSync, "error").Inc()
		return nil, fmt.Errorf("sync probe request: %w", err)
	}

	result := &Result{
		Mode:       storage.ModeSync,
		Model:      req.Model,
		BaseURL:    r.client.BaseURL(),
		ResponseID: resp.ID,
		OutputText: resp.OutputText(),
		Logprobs:   resp.OutputLogprobs(),
		Usage:      resp.Usage,
		Checks:     checkSyncResponse(resp, r.cfg.TopLogprobs),
		Duration:   duration,
	}
	r.finish(ctx, result)
	return result, nil
}

// RunStream sends a streaming request, consumes the event stream, and
// checks the collected events.
func (r *Runner) RunStream(ctx context.Context) (*Result, error) {
	req := r.buildRequest(r.cfg.StreamPrompt, r.cfg.StreamTopLogprobs)

	slog.Info("running stream probe",
		"model", req.Model,
		"prompt", r.cfg.StreamPrompt,
		"top_logprobs", r.cfg.StreamTopLogprobs,
	)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	ch, err := r.client.StreamResponse(ctx, req)
	if err != nil {
		observability.ProbeRequestsTotal.WithLabelValues(storage.ModeStream, "error").Inc()
		return nil, fmt.Errorf("stream probe request: %w", err)
	}

	var events []api.StreamEvent
	for ev := range ch {
		if ev.Type == api.EventError && ev.Error != nil {
			observability.ProbeRequestsTotal.WithLabelValues(storage.ModeStream, "error").Inc()
			return nil, fmt.Errorf("stream probe: %w", ev.Error)
		}
		debug.Log("probe", "stream event", "type", string(ev.Type), "seq", ev.SequenceNumber)
		events = append(events, ev)
	}
	duration := time.Since(start)

	if err := ctx.Err(); err != nil {
		observability.ProbeRequestsTotal.WithLabelValues(storage.ModeStream, "error").Inc()
		return nil, fmt.Errorf("stream probe: %w", err)
	}

	obs := observeStream(events)

	result := &Result{
		Mode:       storage.ModeStream,
		Model:      req.Model,
		BaseURL:    r.client.BaseURL(),
		OutputText: obs.accumulated.String(),
		Logprobs:   obs.logprobs,
		Checks:     checkStream(obs, r.cfg.StreamTopLogprobs),
		Duration:   duration,
	}
	if obs.response != nil {
		result.ResponseID = obs.response.ID
		result.Usage = obs.response.Usage
	}
	r.finish(ctx, result)
	return result, nil
}

// Run executes the sync probe followed by the stream probe and returns
// both results. A request-level failure aborts the sequence.
func (r *Runner) Run(ctx context.Context) ([]*Result, error) {
	sync, err := r.RunSync(ctx)
	if err != nil {
		return nil, err
	}

	stream, err := r.RunStream(ctx)
	if err != nil {
		return []*Result{sync}, err
	}

	return []*Result{sync, stream}, nil
}

// buildRequest assembles a probe request for the given prompt and
// top_logprobs width. Store is always off: probes should not leave state
// on the backend.
func (r *Runner) buildRequest(prompt string, topLogprobs int) *api.CreateResponseRequest {
	storeOff := false
	maxTokens := r.cfg.MaxOutputTokens
	temperature := r.cfg.Temperature
	tl := topLogprobs

	return &api.CreateResponseRequest{
		Model:           r.cfg.Model,
		Input:           []api.Item{api.NewUserMessage(prompt)},
		Store:           &storeOff,
		MaxOutputTokens: &maxTokens,
		Temperature:     &temperature,
		TopLogprobs:     &tl,
		Include:         []string{api.IncludeOutputTextLogprobs},
	}
}

// finish derives statistics, records metrics, and persists the result.
func (r *Runner) finish(ctx context.Context, result *Result) {
	result.MeanLogprob = MeanLogprob(result.Logprobs)
	result.Perplexity = Perplexity(result.Logprobs)

	status := "pass"
	if !result.Passed() {
		status = "fail"
	}
	observability.ProbeRequestsTotal.WithLabelValues(result.Mode, status).Inc()
	observability.ProbeDuration.WithLabelValues(result.Mode).Observe(result.Duration.Seconds())
	observability.ProbeTokensTotal.WithLabelValues(result.Mode).Add(float64(len(result.Logprobs)))
	for _, c := range result.Checks {
		if !c.Passed {
			observability.ProbeCheckFailuresTotal.WithLabelValues(result.Mode, c.Name).Inc()
		}
	}

	slog.Info("probe finished",
		"mode", result.Mode,
		"status", status,
		"tokens", len(result.Logprobs),
		"duration_ms", result.Duration.Milliseconds(),
	)

	if r.store == nil {
		return
	}

	run := result.ToRun()
	if err := r.store.SaveRun(ctx, run); err != nil {
		slog.Warn("persisting probe run failed", "run_id", run.ID, "error", err.Error())
		return
	}
	debug.Log("probe", "run persisted", "run_id", run.ID)
}
