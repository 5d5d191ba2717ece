// Package api defines the wire types for the subset of the OpenAI-style
// Responses API that logprobe exercises: conversation items, output content
// parts with per-token log probabilities, request/response envelopes,
// streaming events, structured errors, and ID generation.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O. All types produce JSON compatible with the vLLM Responses
// API wire format, so fixtures captured from a real server deserialize
// directly into these types.
//
// Core types:
//   - [Item]: unit of conversation input/output (message, reasoning)
//   - [CreateResponseRequest]: request body for POST /v1/responses
//   - [Response]: the single-document (non-streaming) response
//   - [StreamEvent]: one server-sent event of a streaming response
//   - [TokenLogprob]: per-token log probability with top alternatives
//   - [APIError]: structured error with type, code, param, and message
package api
