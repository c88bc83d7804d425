package interfaces

import (
	"database/sql"

	"github.com/opencivics/civicassist/internal/hardware"
	"github.com/opencivics/civicassist/pkg/models"
)

// HardwareProber detects the compute environment the model will run on
type HardwareProber interface {
	// DetectDevice returns the device generation should target; probe
	// failures degrade to the CPU device rather than erroring
	DetectDevice() hardware.Device
	// TotalRAMMB reports total system memory in MiB (0 if unknown)
	TotalRAMMB() uint64
	// AvailableRAMMB reports currently available memory in MiB (0 if unknown)
	AvailableRAMMB() uint64
}

// TextTokenizer maps text to and from model token IDs
type TextTokenizer interface {
	// Encode converts text to token IDs
	Encode(text string) []int64
	// Decode converts token IDs back to text, skipping special tokens
	Decode(ids []int64) string
	// EOSID returns the end-of-sequence token ID
	EOSID() int64
}

// LogitsModel produces next-token logits for a token sequence
type LogitsModel interface {
	// NextLogits runs the model over ids and returns the logits for the
	// final position (one score per vocabulary entry)
	NextLogits(ids []int64) ([]float32, error)
	// Close releases model resources
	Close() error
}

// ResponseGenerator turns a question into generated answer text
type ResponseGenerator interface {
	// Generate produces an answer for the question; errors are returned
	// for the caller to degrade, never panics
	Generate(question string) (string, error)
}

// SentimentAnalyzer scores free text into a three-way category
type SentimentAnalyzer interface {
	// Analyze returns "Positive", "Neutral" or "Negative"
	Analyze(text string) string
}

// AssistantService is the surface the web tier calls. All three methods
// are total: they never panic and never return errors.
type AssistantService interface {
	// InitializeModel resolves and loads a model once at startup; true
	// iff some model (preferred or fallback) is now loaded
	InitializeModel() bool
	// GenerateResponse answers a chat question, or returns a fixed
	// placeholder when no model is loaded or generation fails
	GenerateResponse(question string) string
	// AnalyzeSentiment classifies feedback text
	AnalyzeSentiment(text string) string
	// Status reports the resolved model state for display
	Status() models.ModelStatus
}

// ServiceSearcher finds directory services matching a query
type ServiceSearcher interface {
	// Search returns services ranked by relevance to the query
	Search(query string, limit int) []models.Service
}

// InteractionJournal records chat exchanges for offline review
type InteractionJournal interface {
	// Record appends one exchange; failures are logged, not returned
	Record(username, question, response string, durationMs int64)
}

// DatabaseConnection provides low-level database access
type DatabaseConnection interface {
	// Conn returns the underlying sql.DB connection
	Conn() *sql.DB
	// Close closes the database connection
	Close() error
	// Migrate runs database migrations
	Migrate() error
}
