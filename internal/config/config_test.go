package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "civicassist-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")

	// Loading a non-existent config creates it with defaults
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Models.PreferredID != "ibm-granite/granite-3.0-3b-a800m-instruct" {
		t.Errorf("Unexpected preferred model: %s", cfg.Models.PreferredID)
	}
	if cfg.Models.FallbackID != "microsoft/DialoGPT-small" {
		t.Errorf("Unexpected fallback model: %s", cfg.Models.FallbackID)
	}
	if !cfg.Models.Quantized {
		t.Error("Expected quantization enabled by default")
	}
	if cfg.Generation.MaxInputTokens != 512 {
		t.Errorf("Expected MaxInputTokens 512, got %d", cfg.Generation.MaxInputTokens)
	}
	if cfg.Generation.MaxNewTokens != 150 {
		t.Errorf("Expected MaxNewTokens 150, got %d", cfg.Generation.MaxNewTokens)
	}
	if cfg.Generation.Temperature != 0.7 {
		t.Errorf("Expected Temperature 0.7, got %f", cfg.Generation.Temperature)
	}
	if cfg.Generation.RepetitionPenalty != 1.1 {
		t.Errorf("Expected RepetitionPenalty 1.1, got %f", cfg.Generation.RepetitionPenalty)
	}
	if !cfg.Journal.Enabled {
		t.Error("Expected journal enabled by default")
	}
	if !strings.Contains(cfg.DataDir, ".civicassist") {
		t.Errorf("Expected DataDir under .civicassist, got %s", cfg.DataDir)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	// Reloading returns the same values
	cfg2, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load existing config failed: %v", err)
	}
	if cfg2.Generation.MaxNewTokens != cfg.Generation.MaxNewTokens {
		t.Error("MaxNewTokens mismatch after reload")
	}
	if cfg2.Models.PreferredID != cfg.Models.PreferredID {
		t.Error("PreferredID mismatch after reload")
	}
}

func TestLoadExistingConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "civicassist-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")

	customConfig := `data_dir: /tmp/civic-test
models:
  preferred_id: acme/big-model
  fallback_id: acme/tiny-model
  dir: /tmp/civic-test/models
  mirror_url: http://models.example.com
  quantized: false
  threads: 4
generation:
  max_input_tokens: 256
  max_new_tokens: 64
  temperature: 0.2
  top_k: 10
  top_p: 0.9
  repetition_penalty: 1.3
  repetition_window: 32
journal:
  enabled: false
`

	if err := os.WriteFile(configPath, []byte(customConfig), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Models.PreferredID != "acme/big-model" {
		t.Errorf("Expected preferred 'acme/big-model', got %s", cfg.Models.PreferredID)
	}
	if cfg.Models.FallbackID != "acme/tiny-model" {
		t.Errorf("Expected fallback 'acme/tiny-model', got %s", cfg.Models.FallbackID)
	}
	if cfg.Models.MirrorURL != "http://models.example.com" {
		t.Errorf("Unexpected mirror URL: %s", cfg.Models.MirrorURL)
	}
	if cfg.Models.Quantized {
		t.Error("Expected quantization disabled")
	}
	if cfg.Models.Threads != 4 {
		t.Errorf("Expected 4 threads, got %d", cfg.Models.Threads)
	}
	if cfg.Generation.MaxInputTokens != 256 {
		t.Errorf("Expected MaxInputTokens 256, got %d", cfg.Generation.MaxInputTokens)
	}
	if cfg.Generation.Temperature != 0.2 {
		t.Errorf("Expected Temperature 0.2, got %f", cfg.Generation.Temperature)
	}
	if cfg.Generation.RepetitionWindow != 32 {
		t.Errorf("Expected RepetitionWindow 32, got %d", cfg.Generation.RepetitionWindow)
	}
	if cfg.Journal.Enabled {
		t.Error("Expected journal disabled")
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "civicassist-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")

	// Only override one section; everything else should keep defaults
	partial := `generation:
  temperature: 0.5
`
	if err := os.WriteFile(configPath, []byte(partial), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Generation.Temperature != 0.5 {
		t.Errorf("Expected Temperature 0.5, got %f", cfg.Generation.Temperature)
	}
	if cfg.Models.PreferredID != "ibm-granite/granite-3.0-3b-a800m-instruct" {
		t.Errorf("Expected default preferred model, got %s", cfg.Models.PreferredID)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "civicassist-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := `models: [broken
generation: yes
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "civicassist-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := Default()
	cfg.Models.MirrorURL = "http://mirror.example.gov"
	cfg.Generation.MaxNewTokens = 99
	cfg.Journal.Path = "/tmp/journal.jsonl"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Models.MirrorURL != cfg.Models.MirrorURL {
		t.Error("MirrorURL mismatch")
	}
	if loaded.Generation.MaxNewTokens != 99 {
		t.Errorf("Expected MaxNewTokens 99, got %d", loaded.Generation.MaxNewTokens)
	}
	if loaded.Journal.Path != cfg.Journal.Path {
		t.Error("Journal path mismatch")
	}
}
