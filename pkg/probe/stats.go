package probe

import (
	"math"

	"github.com/probelab/logprobe/pkg/api"
)

// MeanLogprob returns the average log probability over the given tokens,
// or 0 when the slice is empty.
func MeanLogprob(probs []api.TokenLogprob) float64 {
	if len(probs) == 0 {
		return 0
	}
	var sum float64
	for _, p := range probs {
		sum += p.Logprob
	}
	return sum / float64(len(probs))
}

// Perplexity returns exp(-mean) for the given tokens, the standard
// per-token perplexity of the sampled sequence. Returns 0 when the slice
// is empty.
func Perplexity(probs []api.TokenLogprob) float64 {
	if len(probs) == 0 {
		return 0
	}
	return math.Exp(-MeanLogprob(probs))
}
