package sentiment

import (
	"strings"

	"github.com/opencivics/civicassist/internal/interfaces"
)

// Category is a coarse three-way sentiment bucket.
type Category int

const (
	Neutral Category = iota
	Positive
	Negative
)

func (c Category) String() string {
	switch c {
	case Positive:
		return "Positive"
	case Negative:
		return "Negative"
	default:
		return "Neutral"
	}
}

// The cue lists are fixed. Matching is substring containment, so
// inflected forms like "unhelpful" or "problems" still register.
var positiveWords = []string{
	"good", "great", "excellent", "amazing", "wonderful", "fantastic",
	"perfect", "outstanding", "brilliant", "superb", "satisfied",
	"happy", "pleased", "impressed", "helpful", "efficient",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "horrible", "disappointing",
	"frustrated", "angry", "upset", "poor", "inadequate", "useless",
	"slow", "delayed", "problem", "issue", "complaint",
}

// Classify scores text against both cue lists and returns the strict
// majority. Ties, including cue-free text and the empty string, are
// neutral. Pure and case-insensitive.
func Classify(text string) Category {
	lower := strings.ToLower(text)
	positive := countContained(lower, positiveWords)
	negative := countContained(lower, negativeWords)

	switch {
	case positive > negative:
		return Positive
	case negative > positive:
		return Negative
	default:
		return Neutral
	}
}

// countContained counts how many cue words appear in text at least
// once. Repeating a cue does not add weight.
func countContained(text string, words []string) int {
	count := 0
	for _, word := range words {
		if strings.Contains(text, word) {
			count++
		}
	}
	return count
}

// Analyzer exposes Classify behind the portal's analyzer interface.
type Analyzer struct{}

// Analyze returns the category name for the given text.
func (Analyzer) Analyze(text string) string {
	return Classify(text).String()
}

var _ interfaces.SentimentAnalyzer = Analyzer{}
