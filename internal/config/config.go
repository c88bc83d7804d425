package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DataDir    string     `yaml:"data_dir"`
	Models     Models     `yaml:"models"`
	Generation Generation `yaml:"generation"`
	Journal    Journal    `yaml:"journal"`
}

// Models controls which models the resolver attempts and where weights live
type Models struct {
	// PreferredID is tried first; FallbackID is the small low-resource
	// model tried when the preferred one cannot be loaded.
	PreferredID string `yaml:"preferred_id"`
	FallbackID  string `yaml:"fallback_id"`
	// Dir holds one subdirectory per model (weights + tokenizer files)
	Dir string `yaml:"dir"`
	// MirrorURL, when set, lets the resolver fetch missing model files
	// before loading. Empty means local files only.
	MirrorURL string `yaml:"mirror_url,omitempty"`
	// Quantized selects reduced-precision weights on accelerated devices
	Quantized bool `yaml:"quantized"`
	// Threads caps intra-op parallelism for CPU inference (0 = runtime default)
	Threads int `yaml:"threads"`
}

// Generation holds the sampling parameters for response generation
type Generation struct {
	MaxInputTokens    int     `yaml:"max_input_tokens"`
	MaxNewTokens      int     `yaml:"max_new_tokens"`
	Temperature       float64 `yaml:"temperature"`
	TopK              int     `yaml:"top_k"`
	TopP              float64 `yaml:"top_p"`
	RepetitionPenalty float64 `yaml:"repetition_penalty"`
	// RepetitionWindow is how many recent tokens the penalty looks back over
	RepetitionWindow int `yaml:"repetition_window"`
}

// Journal configures the chat interaction journal
type Journal struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// Default returns the default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".civicassist")
	return &Config{
		DataDir: dataDir,
		Models: Models{
			PreferredID: "ibm-granite/granite-3.0-3b-a800m-instruct",
			FallbackID:  "microsoft/DialoGPT-small",
			Dir:         filepath.Join(dataDir, "models"),
			Quantized:   true,
			Threads:     0,
		},
		Generation: Generation{
			MaxInputTokens:    512,
			MaxNewTokens:      150,
			Temperature:       0.7,
			TopK:              50,
			TopP:              0.95,
			RepetitionPenalty: 1.1,
			RepetitionWindow:  64,
		},
		Journal: Journal{
			Enabled: true,
		},
	}
}

// Load reads configuration from file, creating it with defaults if it doesn't exist
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default() // Start with defaults so new fields get sane values
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".civicassist", "config.yaml")
}
