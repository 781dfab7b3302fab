// Package config provides configuration loading and management for contentpipe.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete contentpipe configuration
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Browser BrowserConfig `yaml:"browser"`
	Acquire AcquireConfig `yaml:"acquire"`
	NATS    NATSConfig    `yaml:"nats"`
}

// ModelConfig configures the LLM used for fallback content generation
type ModelConfig struct {
	// Provider is the provider name (gemini, openai, anthropic, ollama)
	Provider string `yaml:"provider"`
	// Model is the model identifier (e.g., "gemini-2.5-flash")
	Model string `yaml:"model"`
	// Endpoint overrides the provider's default API endpoint
	Endpoint string `yaml:"endpoint"`
	// Temperature controls randomness (0.0-1.0, default: 0.7)
	Temperature float64 `yaml:"temperature"`
	// Timeout is the maximum time to wait for model responses
	Timeout time.Duration `yaml:"timeout"`
}

// FetchConfig configures web page fetching
type FetchConfig struct {
	// MinContentLength is the substance threshold in characters
	MinContentLength int `yaml:"min_content_length"`
	// Timeout bounds a single page fetch
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent overrides the browser-like default User-Agent
	UserAgent string `yaml:"user_agent"`
	// SkipPatterns are URL path globs that are never fetched
	SkipPatterns []string `yaml:"skip_patterns"`
}

// BrowserConfig configures the headless browser strategy
type BrowserConfig struct {
	// Enabled controls whether the browser strategy runs at all
	Enabled bool `yaml:"enabled"`
	// PoolSize bounds concurrent browser pages
	PoolSize int `yaml:"pool_size"`
	// SettleDelay is render time after page load before extraction
	SettleDelay time.Duration `yaml:"settle_delay"`
	// Headless controls browser visibility (false is for debugging)
	Headless bool `yaml:"headless"`
}

// AcquireConfig configures batch acquisition
type AcquireConfig struct {
	// Concurrency is how many topics are acquired in parallel
	Concurrency int `yaml:"concurrency"`
	// MaxChunkChars is the chunk size for published content
	MaxChunkChars int `yaml:"max_chunk_chars"`
	// DropDir is the directory watched for topic batch files
	DropDir string `yaml:"drop_dir"`
	// OutputDir is where watch mode writes result files
	OutputDir string `yaml:"output_dir"`
	// DebounceDelay is how long a dropped file must be quiet before processing
	DebounceDelay time.Duration `yaml:"debounce_delay"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			Endpoint:    "",
			Temperature: 0.7,
			Timeout:     3 * time.Minute,
		},
		Fetch: FetchConfig{
			MinContentLength: 200,
			Timeout:          60 * time.Second,
		},
		Browser: BrowserConfig{
			Enabled:     true,
			PoolSize:    3,
			SettleDelay: 5 * time.Second,
			Headless:    true,
		},
		Acquire: AcquireConfig{
			Concurrency:   3,
			MaxChunkChars: 6000,
			DropDir:       "batches",
			OutputDir:     "content",
			DebounceDelay: 500 * time.Millisecond,
		},
		NATS: NATSConfig{
			URL: "",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Model.Provider == "" {
		return fmt.Errorf("model.provider is required")
	}
	if c.Model.Model == "" {
		return fmt.Errorf("model.model is required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("model.temperature must be between 0 and 2")
	}
	if c.Fetch.MinContentLength < 0 {
		return fmt.Errorf("fetch.min_content_length must be non-negative")
	}
	if c.Browser.PoolSize < 0 {
		return fmt.Errorf("browser.pool_size must be non-negative")
	}
	if c.Acquire.Concurrency < 0 {
		return fmt.Errorf("acquire.concurrency must be non-negative")
	}
	if c.Acquire.MaxChunkChars < 0 {
		return fmt.Errorf("acquire.max_chunk_chars must be non-negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
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

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Model
	if other.Model.Provider != "" {
		c.Model.Provider = other.Model.Provider
	}
	if other.Model.Model != "" {
		c.Model.Model = other.Model.Model
	}
	if other.Model.Endpoint != "" {
		c.Model.Endpoint = other.Model.Endpoint
	}
	if other.Model.Temperature != 0 {
		c.Model.Temperature = other.Model.Temperature
	}
	if other.Model.Timeout != 0 {
		c.Model.Timeout = other.Model.Timeout
	}

	// Fetch
	if other.Fetch.MinContentLength != 0 {
		c.Fetch.MinContentLength = other.Fetch.MinContentLength
	}
	if other.Fetch.Timeout != 0 {
		c.Fetch.Timeout = other.Fetch.Timeout
	}
	if other.Fetch.UserAgent != "" {
		c.Fetch.UserAgent = other.Fetch.UserAgent
	}
	if len(other.Fetch.SkipPatterns) > 0 {
		c.Fetch.SkipPatterns = other.Fetch.SkipPatterns
	}

	// Browser
	if other.Browser.PoolSize != 0 {
		c.Browser.PoolSize = other.Browser.PoolSize
	}
	if other.Browser.SettleDelay != 0 {
		c.Browser.SettleDelay = other.Browser.SettleDelay
	}

	// Acquire
	if other.Acquire.Concurrency != 0 {
		c.Acquire.Concurrency = other.Acquire.Concurrency
	}
	if other.Acquire.MaxChunkChars != 0 {
		c.Acquire.MaxChunkChars = other.Acquire.MaxChunkChars
	}
	if other.Acquire.DropDir != "" {
		c.Acquire.DropDir = other.Acquire.DropDir
	}
	if other.Acquire.OutputDir != "" {
		c.Acquire.OutputDir = other.Acquire.OutputDir
	}
	if other.Acquire.DebounceDelay != 0 {
		c.Acquire.DebounceDelay = other.Acquire.DebounceDelay
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
}
