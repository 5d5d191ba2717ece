package client

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/probelab/logprobe/pkg/api"
	"github.com/probelab/logprobe/pkg/debug"
)

// parseSSEStream reads Responses API SSE events from the given reader and
// sends them on ch. The channel is NOT closed by this function; the caller
// is responsible for closing it.
//
// SSE format expected:
//
//	event: response.output_text.delta\n
//	data: {"type":"response.output_text.delta",...}\n
//	\n
//	data: [DONE]\n
//	\n
//
// Malformed events are logged and skipped. Context cancellation stops
// reading immediately.
func parseSSEStream(ctx context.Context, body io.Reader, ch chan<- api.StreamEvent) {
	scanner := bufio.NewScanner(body)
	// Logprobs-bearing delta events can grow well past the default 64KB.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		// Check for context cancellation between lines.
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()

		// The event type is repeated inside the data payload, so the
		// "event:" line, comments, and blank delimiters are all skipped.
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")

		// Handle the [DONE] sentinel.
		if payload == "[DONE]" {
			return
		}

		debug.Raw("streaming", payload)

		var event api.StreamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			slog.Warn("skipping malformed SSE event",
				"error", err.Error(),
				"data", debug.Truncate(payload, 200),
			)
			continue
		}

		select {
		case ch <- event:
		case <-ctx.Done():
			return
		}

		if event.IsTerminal() {
			// Keep reading until [DONE] or EOF so the connection drains,
			// but nothing after a terminal event is forwarded.
			drainToDone(scanner)
			return
		}
	}

	// Scanner error (e.g., connection dropped).
	if err := scanner.Err(); err != nil {
		// Context cancellation is not an error from our perspective.
		if ctx.Err() != nil {
			return
		}
		ch <- api.StreamEvent{
			Type:  api.EventError,
			Error: api.NewServerError("SSE stream read error: " + err.Error()),
		}
	}
}

// drainToDone consumes remaining lines until the [DONE] sentinel or EOF.
func drainToDone(scanner *bufio.Scanner) {
	for scanner.Scan() {
		if strings.TrimPrefix(scanner.Text(), "data: ") == "[DONE]" {
			return
		}
	}
}
