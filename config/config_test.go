package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, 200, cfg.Fetch.MinContentLength)
	assert.True(t, cfg.Browser.Enabled)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 3, cfg.Acquire.Concurrency)
	assert.Equal(t, 6000, cfg.Acquire.MaxChunkChars)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing provider", func(c *Config) { c.Model.Provider = "" }},
		{"missing model", func(c *Config) { c.Model.Model = "" }},
		{"temperature out of range", func(c *Config) { c.Model.Temperature = 3.5 }},
		{"negative min content length", func(c *Config) { c.Fetch.MinContentLength = -1 }},
		{"negative pool size", func(c *Config) { c.Browser.PoolSize = -2 }},
		{"negative concurrency", func(c *Config) { c.Acquire.Concurrency = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contentpipe.yaml")
	content := `
model:
  provider: ollama
  model: llama3.1:8b
  temperature: 0.3
fetch:
  min_content_length: 300
  skip_patterns:
    - login
    - "admin/**"
browser:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "llama3.1:8b", cfg.Model.Model)
	assert.Equal(t, 0.3, cfg.Model.Temperature)
	assert.Equal(t, 300, cfg.Fetch.MinContentLength)
	assert.Equal(t, []string{"login", "admin/**"}, cfg.Fetch.SkipPatterns)
	assert.False(t, cfg.Browser.Enabled)

	// Unspecified fields keep their defaults.
	assert.Equal(t, 3, cfg.Acquire.Concurrency)
	assert.Equal(t, 3*time.Minute, cfg.Model.Timeout)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{}
	overlay.Model.Model = "gpt-4o-mini"
	overlay.Model.Provider = "openai"
	overlay.Acquire.DropDir = "incoming"
	overlay.NATS.URL = "nats://localhost:4222"

	base.Merge(overlay)

	assert.Equal(t, "openai", base.Model.Provider)
	assert.Equal(t, "gpt-4o-mini", base.Model.Model)
	assert.Equal(t, "incoming", base.Acquire.DropDir)
	assert.Equal(t, "nats://localhost:4222", base.NATS.URL)
	// Zero values in the overlay do not clobber defaults.
	assert.Equal(t, 0.7, base.Model.Temperature)
	assert.Equal(t, 6000, base.Acquire.MaxChunkChars)

	base.Merge(nil) // no-op
	assert.Equal(t, "openai", base.Model.Provider)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Model.Model = "claude-sonnet-4-5"
	cfg.Model.Provider = "anthropic"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", loaded.Model.Provider)
	assert.Equal(t, "claude-sonnet-4-5", loaded.Model.Model)
}
