package ml

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// Sampler draws the next token from a logits vector using temperature
// scaling with top-k and nucleus (top-p) filtering. A non-positive
// temperature switches to greedy argmax selection.
type Sampler struct {
	temperature float64
	topK        int
	topP        float64
	rng         *rand.Rand
}

// NewSampler creates a sampler. A seed of zero or below selects a
// time-based seed.
func NewSampler(temperature float64, topK int, topP float64, seed int64) *Sampler {
	if seed <= 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{
		temperature: temperature,
		topK:        topK,
		topP:        topP,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Sample returns the next token ID for the given logits.
func (s *Sampler) Sample(logits []float32) int64 {
	if len(logits) == 0 {
		return 0
	}
	if s.temperature <= 0 {
		return argmaxLogits(logits)
	}

	scaled := make([]float64, len(logits))
	for i, l := range logits {
		scaled[i] = float64(l) / s.temperature
	}

	candidates := make([]int, len(logits))
	for i := range candidates {
		candidates[i] = i
	}
	sort.Slice(candidates, func(a, b int) bool {
		return scaled[candidates[a]] > scaled[candidates[b]]
	})
	if s.topK > 0 && s.topK < len(candidates) {
		candidates = candidates[:s.topK]
	}

	// Softmax over the surviving candidates, max-subtracted so large
	// logits cannot overflow Exp.
	maxLogit := scaled[candidates[0]]
	probs := make([]float64, len(candidates))
	var sum float64
	for i, id := range candidates {
		p := math.Exp(scaled[id] - maxLogit)
		probs[i] = p
		sum += p
	}
	for i := range probs {
		probs[i] /= sum
	}

	if s.topP > 0 && s.topP < 1 {
		var cumulative float64
		cut := len(probs)
		for i, p := range probs {
			cumulative += p
			if cumulative >= s.topP {
				cut = i + 1
				break
			}
		}
		candidates = candidates[:cut]
		probs = probs[:cut]

		var kept float64
		for _, p := range probs {
			kept += p
		}
		for i := range probs {
			probs[i] /= kept
		}
	}

	draw := s.rng.Float64()
	var cumulative float64
	for i, p := range probs {
		cumulative += p
		if draw < cumulative {
			return int64(candidates[i])
		}
	}
	return int64(candidates[len(candidates)-1])
}

func argmaxLogits(logits []float32) int64 {
	best := 0
	for i, l := range logits {
		if l > logits[best] {
			best = i
		}
	}
	return int64(best)
}

// ApplyRepetitionPenalty dampens the logits of tokens that already
// appeared in recent output. Positive logits are divided by the
// penalty and negative ones multiplied; each token is adjusted once
// regardless of how often it repeats. Penalties at or below 1 are a
// no-op.
func ApplyRepetitionPenalty(logits []float32, recent []int64, penalty float32) {
	if penalty <= 1 || len(recent) == 0 {
		return
	}
	seen := make(map[int64]bool, len(recent))
	for _, tok := range recent {
		if tok < 0 || tok >= int64(len(logits)) || seen[tok] {
			continue
		}
		seen[tok] = true
		if logits[tok] > 0 {
			logits[tok] /= penalty
		} else {
			logits[tok] *= penalty
		}
	}
}
