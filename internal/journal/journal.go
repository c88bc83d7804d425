package journal

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/opencivics/civicassist/internal/interfaces"
)

// Interaction is one question/answer exchange with the assistant.
type Interaction struct {
	Timestamp  time.Time `json:"timestamp"`
	Username   string    `json:"username"`
	Question   string    `json:"question"`
	Response   string    `json:"response"`
	DurationMs int64     `json:"duration_ms"`
}

// Writer appends interactions to a JSONL file, one object per line.
// Write failures are logged and dropped; journaling must never take
// down a request. A nil *Writer records nothing.
type Writer struct {
	mu   sync.Mutex
	path string
}

// NewWriter creates a journal writer for the given file path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Record appends one interaction to the journal.
func (w *Writer) Record(username, question, response string, durationMs int64) {
	if w == nil || w.path == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		log.Printf("Warning: failed to create journal directory: %v", err)
		return
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("Warning: failed to open interaction journal: %v", err)
		return
	}
	defer f.Close()

	entry := Interaction{
		Timestamp:  time.Now(),
		Username:   username,
		Question:   question,
		Response:   response,
		DurationMs: durationMs,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("Warning: failed to encode journal entry: %v", err)
		return
	}
	f.Write(data)
	f.WriteString("\n")
}

var _ interfaces.InteractionJournal = (*Writer)(nil)
