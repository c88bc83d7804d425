package assistant

import (
	"log"
	"sync"

	"github.com/opencivics/civicassist/internal/config"
	"github.com/opencivics/civicassist/internal/interfaces"
	"github.com/opencivics/civicassist/internal/ml"
	"github.com/opencivics/civicassist/internal/model"
	"github.com/opencivics/civicassist/internal/sentiment"
	"github.com/opencivics/civicassist/pkg/models"
)

// Placeholder responses. Degraded states surface as ordinary strings
// so the rendering path never branches on errors.
const (
	NotReadyResponse = "I'm currently setting up my AI capabilities. Please try again in a moment."
	ErrorResponse    = "I'm having technical difficulties right now. Please try again later."
)

// ModelResolver yields the process-lifetime model state.
type ModelResolver interface {
	Initialize() model.State
}

// Assistant owns the resolved model state and serves the portal's
// three contracts: one-time model initialization, response
// generation, and sentiment analysis. The state is written once
// during InitializeModel and read-only afterward.
type Assistant struct {
	resolver     ModelResolver
	analyzer     interfaces.SentimentAnalyzer
	params       config.Generation
	newGenerator func(model.State) interfaces.ResponseGenerator

	mu          sync.RWMutex
	initialized bool
	state       model.State
	generator   interfaces.ResponseGenerator
}

// New creates an assistant. A nil analyzer gets the keyword
// classifier.
func New(resolver ModelResolver, analyzer interfaces.SentimentAnalyzer, params config.Generation) *Assistant {
	if analyzer == nil {
		analyzer = sentiment.Analyzer{}
	}
	return &Assistant{
		resolver: resolver,
		analyzer: analyzer,
		params:   params,
		newGenerator: func(state model.State) interfaces.ResponseGenerator {
			return ml.NewGenerator(state.Tokenizer, state.Model, params)
		},
	}
}

// InitializeModel resolves the model chain and reports whether a
// model is loaded. Resolution runs once; later calls return the first
// outcome without touching the resolver again.
func (a *Assistant) InitializeModel() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return a.state.Loaded()
	}
	a.initialized = true
	a.state = a.resolver.Initialize()
	if a.state.Loaded() {
		a.generator = a.newGenerator(a.state)
	}
	return a.state.Loaded()
}

// GenerateResponse answers a question, or returns a placeholder when
// no model is loaded or generation fails. It never panics: internal
// failures resolve to the technical-difficulties placeholder.
func (a *Assistant) GenerateResponse(question string) (response string) {
	a.mu.RLock()
	generator := a.generator
	loaded := a.state.Loaded()
	a.mu.RUnlock()

	if !loaded || generator == nil {
		return NotReadyResponse
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error: generation panic recovered: %v", r)
			response = ErrorResponse
		}
	}()

	text, err := generator.Generate(question)
	if err != nil {
		log.Printf("Error: generation failed: %v", err)
		return ErrorResponse
	}
	return text
}

// AnalyzeSentiment classifies feedback text into Positive, Neutral,
// or Negative.
func (a *Assistant) AnalyzeSentiment(text string) string {
	return a.analyzer.Analyze(text)
}

// Status reports the resolved model state for the dashboard.
func (a *Assistant) Status() models.ModelStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return models.ModelStatus{
		Loaded:    a.state.Loaded(),
		ModelID:   a.state.ModelID,
		Device:    a.state.Device.String(),
		Quantized: a.state.Quantized,
		Fallback:  a.state.Fallback,
	}
}

// Close releases the model session, if one was loaded.
func (a *Assistant) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Close()
}

var _ interfaces.AssistantService = (*Assistant)(nil)
