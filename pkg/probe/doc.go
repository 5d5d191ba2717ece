// Package probe issues logprob verification requests against a Responses
// API backend and checks the answers.
//
// A probe run sends one request, either non-streaming or streaming, with
// top_logprobs and the logprobs include flag set, then applies a fixed set
// of named checks: the response completed, text came back, every output
// token carries a valid log probability, alternatives respect the requested
// width, and (for streams) deltas accumulate to the final text under a
// proper terminal event. Results can be persisted through a
// storage.RunStore and are exported as Prometheus metrics.
package probe
