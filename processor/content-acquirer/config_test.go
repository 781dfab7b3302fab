package contentacquirer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	require.NoError(t, config.Validate())
	assert.Equal(t, "ACQUIRE", config.StreamName)
	assert.Equal(t, "content-acquirer", config.ConsumerName)
	assert.Equal(t, "content.unit.chunk", config.OutputSubject)
	assert.True(t, config.Browser.Enabled)
	assert.Equal(t, "gemini", config.Model.Provider)

	require.NotNil(t, config.Ports)
	require.Len(t, config.Ports.Inputs, 1)
	require.Len(t, config.Ports.Outputs, 1)
	assert.Equal(t, "acquire.request.>", config.Ports.Inputs[0].Subject)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing stream name",
			mutate:  func(c *Config) { c.StreamName = "" },
			wantErr: "stream_name",
		},
		{
			name:    "missing consumer name",
			mutate:  func(c *Config) { c.ConsumerName = "" },
			wantErr: "consumer_name",
		},
		{
			name:    "missing output subject",
			mutate:  func(c *Config) { c.OutputSubject = "" },
			wantErr: "output_subject",
		},
		{
			name:    "bad fetch timeout",
			mutate:  func(c *Config) { c.FetchTimeout = "not-a-duration" },
			wantErr: "fetch_timeout",
		},
		{
			name:    "bad settle delay",
			mutate:  func(c *Config) { c.Browser.SettleDelay = "soon" },
			wantErr: "settle_delay",
		},
		{
			name:    "missing provider",
			mutate:  func(c *Config) { c.Model.Provider = "" },
			wantErr: "model.provider",
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.Model.Model = "" },
			wantErr: "model.model",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Concurrency = -1 },
			wantErr: "concurrency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigDurationDefaults(t *testing.T) {
	config := Config{}

	assert.Equal(t, 60*time.Second, config.GetFetchTimeout())
	assert.Equal(t, 5*time.Second, config.GetSettleDelay())
	assert.Equal(t, 3, config.GetConcurrency())
	assert.Equal(t, 6000, config.GetMaxChunkChars())
	assert.Equal(t, 200, config.GetMinContentLength())
	assert.Equal(t, 3, config.GetBrowserPoolSize())

	config.FetchTimeout = "90s"
	assert.Equal(t, 90*time.Second, config.GetFetchTimeout())
}
