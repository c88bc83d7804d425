package model

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Fetcher downloads model files from an HTTP mirror laid out as
// {base}/{sanitized-id}/{file}. Weights run to gigabytes, so the
// client timeout is generous and files land via a temp-and-rename so
// an interrupted download never leaves a truncated file behind.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewFetcher creates a fetcher for the given mirror base URL.
func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Minute,
		},
	}
}

// Fetch downloads the model's files into baseDir, skipping any that
// already exist. Quantized weights are optional on the mirror; their
// absence is logged, not fatal.
func (f *Fetcher) Fetch(baseDir, id string) error {
	if f.baseURL == "" {
		return fmt.Errorf("no model mirror configured")
	}

	dir := ModelDir(baseDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	for _, name := range []string{VocabFile, MergesFile, FullWeightsFile} {
		if err := f.fetchFile(dir, id, name); err != nil {
			return err
		}
	}
	if err := f.fetchFile(dir, id, QuantizedWeightsFile); err != nil {
		log.Printf("Warning: quantized weights unavailable for %s: %v", id, err)
	}
	return nil
}

func (f *Fetcher) fetchFile(dir, id, name string) error {
	dest := filepath.Join(dir, name)
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		return nil
	}

	url := fmt.Sprintf("%s/%s/%s", f.baseURL, SanitizeID(id), name)
	resp, err := f.httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mirror returned status %d for %s", resp.StatusCode, name)
	}

	tmp, err := os.CreateTemp(dir, name+".partial-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	log.Printf("Downloaded %s/%s (%s)", SanitizeID(id), name, humanize.Bytes(uint64(written)))
	return nil
}
