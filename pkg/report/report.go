// Package report renders probe results for people and machines.
//
// The text form mirrors what an operator wants to see after a probe: a
// banner per mode, the sampled text, per-token log probabilities with
// their alternatives, and the check verdicts. The JSON form is the same
// data for scripting.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/probelab/logprobe/pkg/probe"
)

// maxAlternatives caps how many top_logprobs alternatives the text report
// prints per token.
const maxAlternatives = 5

// WriteText renders the results in human-readable form.
func WriteText(w io.Writer, results []*probe.Result) error {
	for i, res := range results {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeResult(w, res); err != nil {
			return err
		}
	}
	return nil
}

func writeResult(w io.Writer, res *probe.Result) error {
	verdict := "PASS"
	if !res.Passed() {
		verdict = "FAIL"
	}

	fmt.Fprintf(w, "=== %s probe: %s ===\n", res.Mode, verdict)
	fmt.Fprintf(w, "model:    %s\n", res.Model)
	fmt.Fprintf(w, "backend:  %s\n", res.BaseURL)
	if res.ResponseID != "" {
		fmt.Fprintf(w, "response: %s\n", res.ResponseID)
	}
	fmt.Fprintf(w, "duration: %s\n", res.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "output:   %q\n", res.OutputText)

	if len(res.Logprobs) > 0 {
		fmt.Fprintf(w, "tokens:   %d  mean logprob: %.4f  perplexity: %.2f\n",
			len(res.Logprobs), res.MeanLogprob, res.Perplexity)
		fmt.Fprintln(w, "logprobs:")
		for i, p := range res.Logprobs {
			fmt.Fprintf(w, "  [%3d] %-16q %8.4f\n", i, p.Token, p.Logprob)
			for j, alt := range p.TopLogprobs {
				if j >= maxAlternatives {
					break
				}
				fmt.Fprintf(w, "        alt %-16q %8.4f\n", alt.Token, alt.Logprob)
			}
		}
	}

	if res.Usage != nil {
		fmt.Fprintf(w, "usage:    input=%d output=%d total=%d\n",
			res.Usage.InputTokens, res.Usage.OutputTokens, res.Usage.TotalTokens)
	}

	fmt.Fprintln(w, "checks:")
	for _, c := range res.Checks {
		mark := "ok  "
		if !c.Passed {
			mark = "FAIL"
		}
		line := fmt.Sprintf("  %s %s", mark, c.Name)
		if c.Detail != "" {
			line += " (" + c.Detail + ")"
		}
		fmt.Fprintln(w, line)
	}

	return nil
}

// WriteJSON renders the results as an indented JSON array.
func WriteJSON(w io.Writer, results []*probe.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// Summary returns a one-line verdict over all results, e.g.
// "2/2 probes passed".
func Summary(results []*probe.Result) string {
	passed := 0
	for _, res := range results {
		if res.Passed() {
			passed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d probes passed", passed, len(results))
	if passed != len(results) {
		for _, res := range results {
			if !res.Passed() {
				fmt.Fprintf(&b, "; %s: %s", res.Mode, strings.Join(res.Failures(), ", "))
			}
		}
	}
	return b.String()
}
