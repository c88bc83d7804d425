package mocks

import (
	"sync"

	"github.com/opencivics/civicassist/internal/interfaces"
	"github.com/opencivics/civicassist/pkg/models"
)

// MockAssistantService is a mock implementation of AssistantService for testing
type MockAssistantService struct {
	InitializeModelFunc  func() bool
	GenerateResponseFunc func(question string) string
	AnalyzeSentimentFunc func(text string) string
	StatusFunc           func() models.ModelStatus
}

func (m *MockAssistantService) InitializeModel() bool {
	if m.InitializeModelFunc != nil {
		return m.InitializeModelFunc()
	}
	return true
}

func (m *MockAssistantService) GenerateResponse(question string) string {
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(question)
	}
	return "mock response"
}

func (m *MockAssistantService) AnalyzeSentiment(text string) string {
	if m.AnalyzeSentimentFunc != nil {
		return m.AnalyzeSentimentFunc(text)
	}
	return "Neutral"
}

func (m *MockAssistantService) Status() models.ModelStatus {
	if m.StatusFunc != nil {
		return m.StatusFunc()
	}
	return models.ModelStatus{Loaded: true, ModelID: "mock/model", Device: "cpu"}
}

// Ensure MockAssistantService implements AssistantService interface
var _ interfaces.AssistantService = (*MockAssistantService)(nil)

// MockServiceSearcher is a mock implementation of ServiceSearcher for testing
type MockServiceSearcher struct {
	SearchFunc func(query string, limit int) []models.Service
}

func (m *MockServiceSearcher) Search(query string, limit int) []models.Service {
	if m.SearchFunc != nil {
		return m.SearchFunc(query, limit)
	}
	return nil
}

// Ensure MockServiceSearcher implements ServiceSearcher interface
var _ interfaces.ServiceSearcher = (*MockServiceSearcher)(nil)

// JournalEntry is one recorded exchange captured by MockInteractionJournal.
type JournalEntry struct {
	Username   string
	Question   string
	Response   string
	DurationMs int64
}

// MockInteractionJournal is a mock implementation of InteractionJournal
// that captures recorded entries for assertions.
type MockInteractionJournal struct {
	RecordFunc func(username, question, response string, durationMs int64)

	mu      sync.Mutex
	entries []JournalEntry
}

func (m *MockInteractionJournal) Record(username, question, response string, durationMs int64) {
	if m.RecordFunc != nil {
		m.RecordFunc(username, question, response, durationMs)
		return
	}
	m.mu.Lock()
	m.entries = append(m.entries, JournalEntry{
		Username:   username,
		Question:   question,
		Response:   response,
		DurationMs: durationMs,
	})
	m.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (m *MockInteractionJournal) Entries() []JournalEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]JournalEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Ensure MockInteractionJournal implements InteractionJournal interface
var _ interfaces.InteractionJournal = (*MockInteractionJournal)(nil)
