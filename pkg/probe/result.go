package probe

import (
	"time"

	"github.com/probelab/logprobe/pkg/api"
	"github.com/probelab/logprobe/pkg/storage"
)

// Check is a named pass/fail verification applied to a probe answer.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Result holds the outcome of a single probe run.
type Result struct {
	Mode       string             `json:"mode"`
	Model      string             `json:"model"`
	BaseURL    string             `json:"base_url"`
	ResponseID string             `json:"response_id,omitempty"`
	OutputText string             `json:"output_text"`
	Logprobs   []api.TokenLogprob `json:"logprobs,omitempty"`
	Usage      *api.Usage         `json:"usage,omitempty"`
	Checks     []Check            `json:"checks"`
	Duration   time.Duration      `json:"duration"`

	// MeanLogprob is the average log probability over output tokens, and
	// Perplexity is exp(-MeanLogprob). Both are zero when no logprobs came
	// back.
	MeanLogprob float64 `json:"mean_logprob"`
	Perplexity  float64 `json:"perplexity"`
}

// Passed reports whether every check succeeded.
func (r *Result) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Failures returns a description of each failed check.
func (r *Result) Failures() []string {
	var failures []string
	for _, c := range r.Checks {
		if !c.Passed {
			msg := c.Name
			if c.Detail != "" {
				msg += ": " + c.Detail
			}
			failures = append(failures, msg)
		}
	}
	return failures
}

// ToRun converts the result into a persistable probe run record.
func (r *Result) ToRun() *storage.ProbeRun {
	return &storage.ProbeRun{
		ID:          api.NewRunID(),
		Mode:        r.Mode,
		Model:       r.Model,
		BaseURL:     r.BaseURL,
		ResponseID:  r.ResponseID,
		Passed:      r.Passed(),
		Failures:    r.Failures(),
		OutputText:  r.OutputText,
		TokenCount:  len(r.Logprobs),
		MeanLogprob: r.MeanLogprob,
		Perplexity:  r.Perplexity,
		Logprobs:    r.Logprobs,
		Usage:       r.Usage,
		DurationMs:  r.Duration.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}
}
