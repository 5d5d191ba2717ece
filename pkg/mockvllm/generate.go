package mockvllm

import (
	"hash/fnv"
	"math/rand/v2"
	"strings"

	"github.com/probelab/logprobe/pkg/api"
)

// vocabulary is the word pool answers are synthesized from.
var vocabulary = []string{
	"the", "answer", "is", "four", "simply", "put", "we", "can", "see",
	"that", "adding", "two", "and", "gives", "result", "number", "count",
	"one", "three", "five", "so", "in", "short", "it", "equals",
}

// generate synthesizes a deterministic token sequence for the prompt.
// The same prompt always yields the same tokens and logprob values. Each
// token carries a log probability in (-2.2, 0) and, when topLogprobs > 0,
// a ranked alternatives list headed by the sampled token itself.
func generate(prompt string, maxTokens, topLogprobs int) []api.TokenLogprob {
	h := fnv.New64a()
	h.Write([]byte(prompt))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed))

	count := 8 + int(seed%5)
	if maxTokens > 0 && count > maxTokens {
		count = maxTokens
	}

	tokens := make([]api.TokenLogprob, 0, count)
	for i := 0; i < count; i++ {
		word := vocabulary[rng.IntN(len(vocabulary))]
		if i > 0 {
			word = " " + word
		}

		logprob := -(rng.Float64()*2 + 0.01)
		tok := api.TokenLogprob{
			Token:   word,
			Logprob: logprob,
		}

		if topLogprobs > 0 {
			alts := make([]api.TopLogprob, 0, topLogprobs)
			alts = append(alts, api.TopLogprob{Token: word, Logprob: logprob})
			for j := 1; j < topLogprobs; j++ {
				alt := vocabulary[rng.IntN(len(vocabulary))]
				// Alternatives are ranked, so each is less likely than
				// the one before it.
				logprob -= rng.Float64()*1.5 + 0.1
				alts = append(alts, api.TopLogprob{Token: alt, Logprob: logprob})
			}
			tok.TopLogprobs = alts
		}

		tokens = append(tokens, tok)
	}

	return tokens
}

// joinTokens concatenates the token strings into the answer text.
func joinTokens(tokens []api.TokenLogprob) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Token)
	}
	return b.String()
}

// promptText extracts the user text from the request input for generation.
func promptText(items []api.Item) string {
	var parts []string
	for _, item := range items {
		if item.Type != api.ItemTypeMessage || item.Message == nil {
			continue
		}
		for _, c := range item.Message.Content {
			if c.Text != "" {
				parts = append(parts, c.Text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// countPromptTokens approximates the input token count the way a real
// backend would report it.
func countPromptTokens(prompt string) int {
	fields := strings.Fields(prompt)
	if len(fields) == 0 {
		return 1
	}
	return len(fields) + 2
}
