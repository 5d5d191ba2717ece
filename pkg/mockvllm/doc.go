// Package mockvllm implements a small vLLM lookalike for exercising the
// probe without a GPU.
//
// It serves POST /v1/responses in both non-streaming and SSE streaming
// forms, GET /v1/models, GET /health, and a Prometheus /metrics endpoint.
// Answers are synthesized deterministically from the prompt, including
// per-token logprobs and top_logprobs alternatives, so probe runs against
// it are reproducible. Error responses use vLLM's flat JSON error shape.
package mockvllm
