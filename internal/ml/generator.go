package ml

import (
	"fmt"
	"strings"
	"sync"

	"github.com/opencivics/civicassist/internal/config"
	"github.com/opencivics/civicassist/internal/interfaces"
)

// promptTemplate frames every question the same way so answers stay in
// the civic-assistant register regardless of which model is loaded.
const promptTemplate = `You are a helpful AI assistant for a government citizen engagement platform.
Provide clear, accurate, and helpful information about government services, policies, and civic processes.

Question: %s

Answer:`

const answerMarker = "Answer:"

// Generator runs the autoregressive decode loop over a tokenizer and
// model pair. One Generate call runs at a time; the sampler state is
// not safe for concurrent draws.
type Generator struct {
	tokenizer interfaces.TextTokenizer
	model     interfaces.LogitsModel
	params    config.Generation
	sampler   *Sampler

	mu sync.Mutex
}

// NewGenerator wires a tokenizer and model to the generation settings.
func NewGenerator(tokenizer interfaces.TextTokenizer, model interfaces.LogitsModel, params config.Generation) *Generator {
	return &Generator{
		tokenizer: tokenizer,
		model:     model,
		params:    params,
		sampler:   NewSampler(params.Temperature, params.TopK, params.TopP, 0),
	}
}

// Generate produces a response for the question. The prompt is
// truncated to the configured input budget, decoding stops at the
// end-of-sequence token or the new-token budget, and the returned text
// is the portion after the final answer marker.
func (g *Generator) Generate(question string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prompt := fmt.Sprintf(promptTemplate, strings.TrimSpace(question))
	ids := g.tokenizer.Encode(prompt)
	if len(ids) == 0 {
		return "", fmt.Errorf("prompt produced no tokens")
	}
	if max := g.params.MaxInputTokens; max > 0 && len(ids) > max {
		ids = ids[:max]
	}

	eos := g.tokenizer.EOSID()
	for step := 0; step < g.params.MaxNewTokens; step++ {
		logits, err := g.model.NextLogits(ids)
		if err != nil {
			return "", fmt.Errorf("generation failed at token %d: %w", step, err)
		}
		if len(logits) == 0 {
			return "", fmt.Errorf("model returned empty logits at token %d", step)
		}

		ApplyRepetitionPenalty(logits, tailWindow(ids, g.params.RepetitionWindow), float32(g.params.RepetitionPenalty))
		next := g.sampler.Sample(logits)
		if next == eos {
			break
		}
		ids = append(ids, next)
	}

	return ExtractAnswer(g.tokenizer.Decode(ids)), nil
}

// tailWindow returns the most recent window tokens. A window at or
// below zero keeps the whole sequence.
func tailWindow(ids []int64, window int) []int64 {
	if window <= 0 || window >= len(ids) {
		return ids
	}
	return ids[len(ids)-window:]
}

// ExtractAnswer returns the text after the last answer marker, with
// surrounding whitespace removed. Text without a marker comes back
// trimmed but otherwise whole.
func ExtractAnswer(text string) string {
	if idx := strings.LastIndex(text, answerMarker); idx >= 0 {
		return strings.TrimSpace(text[idx+len(answerMarker):])
	}
	return strings.TrimSpace(text)
}

var _ interfaces.ResponseGenerator = (*Generator)(nil)
