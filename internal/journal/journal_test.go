package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRecordAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.jsonl")
	w := NewWriter(path)

	w.Record("amina", "How do I register to vote?", "Visit the electoral office.", 1200)
	w.Record("amina", "What are the office hours?", "Weekdays 9 to 5.", 800)

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Journal file not created: %v", err)
	}
	defer f.Close()

	var entries []Interaction
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Interaction
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("Invalid JSON line: %v", err)
		}
		entries = append(entries, entry)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 journal entries, got %d", len(entries))
	}
	if entries[0].Question != "How do I register to vote?" {
		t.Errorf("First entry question = %q", entries[0].Question)
	}
	if entries[0].Username != "amina" {
		t.Errorf("First entry username = %q", entries[0].Username)
	}
	if entries[1].DurationMs != 800 {
		t.Errorf("Second entry duration = %d", entries[1].DurationMs)
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestRecordCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "interactions.jsonl")
	w := NewWriter(path)

	w.Record("user", "q", "a", 10)

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Journal file should exist under nested directory: %v", err)
	}
}

func TestNilWriterRecordsNothing(t *testing.T) {
	var w *Writer
	// Must not panic.
	w.Record("user", "q", "a", 10)
}

func TestEmptyPathRecordsNothing(t *testing.T) {
	w := NewWriter("")
	w.Record("user", "q", "a", 10)
}
