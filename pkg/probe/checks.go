package probe

import (
	"fmt"
	"math"
	"strings"

	"github.com/probelab/logprobe/pkg/api"
)

// Check names. These appear in reports, persisted runs, and the
// logprobe_probe_check_failures_total metric.
const (
	CheckStatusCompleted   = "status_completed"
	CheckOutputNonEmpty    = "output_nonempty"
	CheckLogprobsPresent   = "logprobs_present"
	CheckLogprobsValid     = "logprob_values_valid"
	CheckTopLogprobsWidth  = "top_logprobs_width"
	CheckDeltasPresent     = "deltas_present"
	CheckDeltaLogprobs     = "deltas_have_logprobs"
	CheckDeltaTextMatches  = "delta_text_matches_done"
	CheckSequenceMonotonic = "sequence_numbers_monotonic"
	CheckTerminalCompleted = "terminal_completed"
)

func pass(name string) Check {
	return Check{Name: name, Passed: true}
}

func fail(name, format string, args ...any) Check {
	return Check{Name: name, Detail: fmt.Sprintf(format, args...)}
}

// checkSyncResponse applies the non-streaming checks to a completed
// response: status, text presence, and the logprob contract for the
// requested top_logprobs width.
func checkSyncResponse(resp *api.Response, topLogprobs int) []Check {
	var checks []Check

	if resp.Status == api.ResponseStatusCompleted {
		checks = append(checks, pass(CheckStatusCompleted))
	} else {
		checks = append(checks, fail(CheckStatusCompleted, "status is %q", resp.Status))
	}

	text := resp.OutputText()
	if strings.TrimSpace(text) != "" {
		checks = append(checks, pass(CheckOutputNonEmpty))
	} else {
		checks = append(checks, fail(CheckOutputNonEmpty, "response carries no output text"))
	}

	probs := resp.OutputLogprobs()
	checks = append(checks, checkLogprobs(probs, topLogprobs)...)
	return checks
}

// checkLogprobs verifies that logprobs came back at all, that every value
// is a finite non-positive log probability with a token string, and that
// no entry carries more alternatives than requested.
func checkLogprobs(probs []api.TokenLogprob, topLogprobs int) []Check {
	var checks []Check

	if len(probs) > 0 {
		checks = append(checks, pass(CheckLogprobsPresent))
	} else {
		checks = append(checks, fail(CheckLogprobsPresent, "no logprobs in response"))
		return checks
	}

	valid := pass(CheckLogprobsValid)
	for i, p := range probs {
		if p.Token == "" {
			valid = fail(CheckLogprobsValid, "token %d has empty token string", i)
			break
		}
		if math.IsNaN(p.Logprob) || math.IsInf(p.Logprob, 0) || p.Logprob > 0 {
			valid = fail(CheckLogprobsValid, "token %d (%q) has invalid logprob %v", i, p.Token, p.Logprob)
			break
		}
	}
	checks = append(checks, valid)

	width := pass(CheckTopLogprobsWidth)
	for i, p := range probs {
		if len(p.TopLogprobs) > topLogprobs {
			width = fail(CheckTopLogprobsWidth,
				"token %d (%q) has %d alternatives, requested %d",
				i, p.Token, len(p.TopLogprobs), topLogprobs)
			break
		}
	}
	checks = append(checks, width)

	return checks
}

// streamObservations collects what the stream checks need from the event
// sequence.
type streamObservations struct {
	deltaCount      int
	deltasWithProbs int
	accumulated     strings.Builder
	doneText        string
	sawDone         bool
	logprobs        []api.TokenLogprob
	sequenceOK      bool
	terminal        api.StreamEventType
	response        *api.Response
}

// observeStream folds a stream of events into observations for checking.
func observeStream(events []api.StreamEvent) *streamObservations {
	obs := &streamObservations{sequenceOK: true}

	lastSeq := -1
	for _, ev := range events {
		if ev.SequenceNumber < lastSeq {
			obs.sequenceOK = false
		}
		lastSeq = ev.SequenceNumber

		switch ev.Type {
		case api.EventOutputTextDelta:
			obs.deltaCount++
			obs.accumulated.WriteString(ev.Delta)
			if len(ev.Logprobs) > 0 {
				obs.deltasWithProbs++
				obs.logprobs = append(obs.logprobs, ev.Logprobs...)
			}
		case api.EventOutputTextDone:
			obs.sawDone = true
			obs.doneText = ev.Text
		}

		if ev.IsTerminal() {
			obs.terminal = ev.Type
			if ev.Response != nil {
				obs.response = ev.Response
			}
		}
	}

	return obs
}

// checkStream applies the streaming checks: deltas arrived, each carried
// logprobs, the accumulated deltas match the final text, sequence numbers
// never went backwards, and the stream ended with a completion event.
func checkStream(obs *streamObservations, topLogprobs int) []Check {
	var checks []Check

	if obs.deltaCount > 0 {
		checks = append(checks, pass(CheckDeltasPresent))
	} else {
		checks = append(checks, fail(CheckDeltasPresent, "stream produced no text deltas"))
	}

	if obs.deltaCount > 0 && obs.deltasWithProbs == obs.deltaCount {
		checks = append(checks, pass(CheckDeltaLogprobs))
	} else {
		checks = append(checks, fail(CheckDeltaLogprobs,
			"%d of %d deltas carried logprobs", obs.deltasWithProbs, obs.deltaCount))
	}

	accumulated := obs.accumulated.String()
	if obs.sawDone && accumulated == obs.doneText {
		checks = append(checks, pass(CheckDeltaTextMatches))
	} else if !obs.sawDone {
		checks = append(checks, fail(CheckDeltaTextMatches, "no output_text.done event"))
	} else {
		checks = append(checks, fail(CheckDeltaTextMatches,
			"accumulated %q, done event carries %q", accumulated, obs.doneText))
	}

	if obs.sequenceOK {
		checks = append(checks, pass(CheckSequenceMonotonic))
	} else {
		checks = append(checks, fail(CheckSequenceMonotonic, "sequence numbers went backwards"))
	}

	if obs.terminal == api.EventResponseCompleted {
		checks = append(checks, pass(CheckTerminalCompleted))
	} else if obs.terminal == "" {
		checks = append(checks, fail(CheckTerminalCompleted, "stream ended without a terminal event"))
	} else {
		checks = append(checks, fail(CheckTerminalCompleted, "terminal event is %q", obs.terminal))
	}

	checks = append(checks, checkLogprobs(obs.logprobs, topLogprobs)...)
	return checks
}
