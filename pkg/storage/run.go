package storage

import (
	"context"
	"time"

	"github.com/probelab/logprobe/pkg/api"
)

// Probe modes.
const (
	ModeSync   = "sync"
	ModeStream = "stream"
)

// ProbeRun is the persistent record of a single probe execution: one
// request against the backend, the checks applied to its answer, and the
// logprob statistics derived from it.
type ProbeRun struct {
	ID          string             `json:"id"`
	Mode        string             `json:"mode"`
	Model       string             `json:"model"`
	BaseURL     string             `json:"base_url"`
	ResponseID  string             `json:"response_id,omitempty"`
	Passed      bool               `json:"passed"`
	Failures    []string           `json:"failures,omitempty"`
	OutputText  string             `json:"output_text"`
	TokenCount  int                `json:"token_count"`
	MeanLogprob float64            `json:"mean_logprob"`
	Perplexity  float64            `json:"perplexity"`
	Logprobs    []api.TokenLogprob `json:"logprobs,omitempty"`
	Usage       *api.Usage         `json:"usage,omitempty"`
	DurationMs  int64              `json:"duration_ms"`
	CreatedAt   time.Time          `json:"created_at"`
}

// ListOptions filters and limits ListRuns results. Runs are always
// returned newest first.
type ListOptions struct {
	// Model restricts results to runs against a specific model.
	Model string

	// Mode restricts results to "sync" or "stream" runs.
	Mode string

	// Limit caps the number of returned runs. Zero means the adapter
	// default of 20; the hard cap is 100.
	Limit int
}

// RunStore persists probe runs.
type RunStore interface {
	// SaveRun persists a probe run. Returns ErrConflict if a run with the
	// same ID already exists.
	SaveRun(ctx context.Context, run *ProbeRun) error

	// GetRun retrieves a probe run by ID. Returns ErrNotFound if no such
	// run exists.
	GetRun(ctx context.Context, id string) (*ProbeRun, error)

	// ListRuns returns runs matching the options, newest first.
	ListRuns(ctx context.Context, opts ListOptions) ([]*ProbeRun, error)

	// DeleteRun removes a probe run. Returns ErrNotFound if no such run
	// exists.
	DeleteRun(ctx context.Context, id string) error

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// ClampLimit normalizes a ListOptions limit to the adapter bounds.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
