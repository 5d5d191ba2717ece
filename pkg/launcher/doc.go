// Package launcher starts and supervises a vLLM server process.
//
// It builds the `vllm serve` command line from configuration, pipes the
// child's output through structured logging, polls the /health endpoint
// until the server is ready, and shuts the process down gracefully with
// an interrupt followed by a kill after a grace period.
package launcher
