package ml

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTokenizerFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	vocab := `{
  "h": 0, "e": 1, "l": 2, "o": 3, "w": 4, "r": 5, "d": 6,
  "he": 7, "ll": 8, "hell": 9, "hello": 10,
  "Ġ": 11, "Ġw": 12, "or": 13, "ld": 14, "Ġwor": 15, "Ġworld": 16,
  "<|endoftext|>": 17, "!": 18
}`
	merges := `#version: 0.2
h e
l l
he ll
hell o
Ġ w
o r
l d
Ġw or
Ġwor ld
`

	if err := os.WriteFile(filepath.Join(dir, "vocab.json"), []byte(vocab), 0o644); err != nil {
		t.Fatalf("Failed to write vocab fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "merges.txt"), []byte(merges), 0o644); err != nil {
		t.Fatalf("Failed to write merges fixture: %v", err)
	}
	return dir
}

func TestNewTokenizer(t *testing.T) {
	dir := writeTokenizerFixture(t)

	tok, err := NewTokenizer(dir)
	if err != nil {
		t.Fatalf("NewTokenizer failed: %v", err)
	}
	if tok.VocabSize() != 19 {
		t.Errorf("Expected vocab size 19, got %d", tok.VocabSize())
	}
	if tok.EOSID() != 17 {
		t.Errorf("Expected EOS ID 17, got %d", tok.EOSID())
	}
}

func TestNewTokenizerMissingFiles(t *testing.T) {
	if _, err := NewTokenizer(t.TempDir()); err == nil {
		t.Error("Expected error for missing vocabulary files")
	}
}

func TestNewTokenizerMissingEOS(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "vocab.json"), []byte(`{"a": 0}`), 0o644); err != nil {
		t.Fatalf("Failed to write vocab: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "merges.txt"), []byte("a b\n"), 0o644); err != nil {
		t.Fatalf("Failed to write merges: %v", err)
	}

	if _, err := NewTokenizer(dir); err == nil {
		t.Error("Expected error for vocabulary without end-of-sequence token")
	}
}

func TestEncode(t *testing.T) {
	tok, err := NewTokenizer(writeTokenizerFixture(t))
	if err != nil {
		t.Fatalf("NewTokenizer failed: %v", err)
	}

	tests := []struct {
		name string
		text string
		want []int64
	}{
		{"single word merges fully", "hello", []int64{10}},
		{"leading space folds into word", "hello world", []int64{10, 16}},
		{"punctuation splits off", "hello world!", []int64{10, 16, 18}},
		{"empty input", "", nil},
		{"unknown characters are dropped", "zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Encode(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Encode(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Encode(%q)[%d] = %d, want %d", tt.text, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tok, err := NewTokenizer(writeTokenizerFixture(t))
	if err != nil {
		t.Fatalf("NewTokenizer failed: %v", err)
	}

	tests := []struct {
		name string
		ids  []int64
		want string
	}{
		{"round trip", []int64{10, 16}, "hello world"},
		{"skips special tokens", []int64{10, 17, 16}, "hello world"},
		{"skips unknown ids", []int64{10, 999, 16}, "hello world"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tok.Decode(tt.ids); got != tt.want {
				t.Errorf("Decode(%v) = %q, want %q", tt.ids, got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tok, err := NewTokenizer(writeTokenizerFixture(t))
	if err != nil {
		t.Fatalf("NewTokenizer failed: %v", err)
	}

	input := "hello world"
	if got := tok.Decode(tok.Encode(input)); got != input {
		t.Errorf("Round trip produced %q, want %q", got, input)
	}
}

func TestBPECacheReuse(t *testing.T) {
	tok, err := NewTokenizer(writeTokenizerFixture(t))
	if err != nil {
		t.Fatalf("NewTokenizer failed: %v", err)
	}

	first := tok.Encode("hello")
	second := tok.Encode("hello")
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Errorf("Cached encode diverged: %v vs %v", first, second)
	}
}
