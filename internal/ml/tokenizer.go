package ml

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/opencivics/civicassist/internal/interfaces"
)

// Tokenizer implements the byte-level BPE scheme used by GPT-2-family
// causal models. It loads vocab.json (token -> id) and merges.txt
// (ranked merge rules) from a model directory and maps raw bytes
// through the reversible byte-to-unicode table so every input string
// tokenizes without an unknown-token path.
type Tokenizer struct {
	vocab     map[string]int64
	idToToken map[int64]string
	ranks     map[mergePair]int
	eosID     int64

	byteEncoder [256]rune
	byteDecoder map[rune]byte

	mu    sync.RWMutex
	cache map[string][]string
}

type mergePair struct {
	left  string
	right string
}

// eosCandidates covers the end-of-sequence spellings across the model
// families the resolver can load.
var eosCandidates = []string{"<|end_of_text|>", "<|endoftext|>", "</s>"}

// splitPattern approximates the GPT-2 pre-tokenizer. Go's regexp has no
// lookahead, so the trailing-whitespace clause collapses into a plain
// whitespace run; merged vocabularies absorb the difference.
var splitPattern = regexp.MustCompile(`'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+`)

// NewTokenizer loads the vocabulary and merge table from modelDir.
func NewTokenizer(modelDir string) (*Tokenizer, error) {
	vocabPath := filepath.Join(modelDir, "vocab.json")
	raw, err := os.ReadFile(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}

	vocab := make(map[string]int64)
	if err := json.Unmarshal(raw, &vocab); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocabulary is empty: %s", vocabPath)
	}

	idToToken := make(map[int64]string, len(vocab))
	for tok, id := range vocab {
		idToToken[id] = tok
	}

	eosID := int64(-1)
	for _, cand := range eosCandidates {
		if id, ok := vocab[cand]; ok {
			eosID = id
			break
		}
	}
	if eosID < 0 {
		return nil, fmt.Errorf("vocabulary missing end-of-sequence token: %s", vocabPath)
	}

	ranks, err := loadMerges(filepath.Join(modelDir, "merges.txt"))
	if err != nil {
		return nil, err
	}

	t := &Tokenizer{
		vocab:     vocab,
		idToToken: idToToken,
		ranks:     ranks,
		eosID:     eosID,
		cache:     make(map[string][]string),
	}
	t.byteEncoder, t.byteDecoder = buildByteTable()
	return t, nil
}

func loadMerges(path string) (map[mergePair]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read merge table: %w", err)
	}
	defer file.Close()

	ranks := make(map[mergePair]int)
	scanner := bufio.NewScanner(file)
	rank := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			continue
		}
		ranks[mergePair{parts[0], parts[1]}] = rank
		rank++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan merge table: %w", err)
	}
	if len(ranks) == 0 {
		return nil, fmt.Errorf("merge table is empty: %s", path)
	}
	return ranks, nil
}

// buildByteTable constructs the reversible byte<->rune mapping from the
// GPT-2 reference: printable latin bytes map to themselves, everything
// else shifts into the private range starting at U+0100.
func buildByteTable() ([256]rune, map[rune]byte) {
	var encoder [256]rune
	seen := [256]bool{}

	assign := func(lo, hi int) {
		for b := lo; b <= hi; b++ {
			encoder[b] = rune(b)
			seen[b] = true
		}
	}
	assign('!', '~')
	assign(0xA1, 0xAC)
	assign(0xAE, 0xFF)

	next := 0
	for b := 0; b < 256; b++ {
		if !seen[b] {
			encoder[b] = rune(256 + next)
			next++
		}
	}

	decoder := make(map[rune]byte, 256)
	for b := 0; b < 256; b++ {
		decoder[encoder[b]] = byte(b)
	}
	return encoder, decoder
}

// Encode converts text to model token IDs.
func (t *Tokenizer) Encode(text string) []int64 {
	if text == "" {
		return nil
	}

	var ids []int64
	for _, piece := range splitPattern.FindAllString(text, -1) {
		var sb strings.Builder
		for _, b := range []byte(piece) {
			sb.WriteRune(t.byteEncoder[b])
		}
		for _, tok := range t.bpe(sb.String()) {
			if id, ok := t.vocab[tok]; ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// bpe merges the word's symbols by ascending merge rank until no
// adjacent pair remains in the rank table.
func (t *Tokenizer) bpe(word string) []string {
	t.mu.RLock()
	cached, ok := t.cache[word]
	t.mu.RUnlock()
	if ok {
		return cached
	}

	symbols := make([]string, 0, len(word))
	for _, r := range word {
		symbols = append(symbols, string(r))
	}

	for len(symbols) > 1 {
		bestRank := -1
		bestIdx := -1
		for i := 0; i < len(symbols)-1; i++ {
			rank, ok := t.ranks[mergePair{symbols[i], symbols[i+1]}]
			if !ok {
				continue
			}
			if bestRank < 0 || rank < bestRank {
				bestRank = rank
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		merged := symbols[bestIdx] + symbols[bestIdx+1]
		symbols = append(symbols[:bestIdx], append([]string{merged}, symbols[bestIdx+2:]...)...)
	}

	t.mu.Lock()
	t.cache[word] = symbols
	t.mu.Unlock()
	return symbols
}

// Decode converts token IDs back to text, skipping special tokens.
func (t *Tokenizer) Decode(ids []int64) string {
	var sb strings.Builder
	for _, id := range ids {
		tok, ok := t.idToToken[id]
		if !ok || isSpecialToken(tok) {
			continue
		}
		sb.WriteString(tok)
	}

	mapped := sb.String()
	out := make([]byte, 0, len(mapped))
	for _, r := range mapped {
		if b, ok := t.byteDecoder[r]; ok {
			out = append(out, b)
		}
	}
	return string(out)
}

// EOSID returns the end-of-sequence token ID.
func (t *Tokenizer) EOSID() int64 {
	return t.eosID
}

// VocabSize returns the number of entries in the vocabulary.
func (t *Tokenizer) VocabSize() int {
	return len(t.vocab)
}

func isSpecialToken(tok string) bool {
	if strings.HasPrefix(tok, "<|") && strings.HasSuffix(tok, "|>") {
		return true
	}
	switch tok {
	case "</s>", "<s>", "<pad>", "<unk>":
		return true
	}
	return false
}

var _ interfaces.TextTokenizer = (*Tokenizer)(nil)
