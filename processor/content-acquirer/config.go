package contentacquirer

import (
	"fmt"
	"time"

	"github.com/c360studio/semstreams/component"

	"github.com/c360studio/contentpipe/chunker"
	"github.com/c360studio/contentpipe/fetch"
)

// Config holds configuration for the content-acquirer processor component.
type Config struct {
	Ports *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`

	// StreamName is the JetStream stream for acquisition requests.
	StreamName string `json:"stream_name" schema:"type:string,description:JetStream stream name,category:basic,default:ACQUIRE"`

	// ConsumerName is the durable consumer name.
	ConsumerName string `json:"consumer_name" schema:"type:string,description:Durable consumer name,category:basic,default:content-acquirer"`

	// OutputSubject is where content unit chunks are published.
	OutputSubject string `json:"output_subject" schema:"type:string,description:Subject for content unit chunks,category:basic,default:content.unit.chunk"`

	// Concurrency is how many topics are acquired in parallel.
	Concurrency int `json:"concurrency" schema:"type:int,description:Parallel topic acquisitions,category:advanced,default:3"`

	// MaxChunkChars is the chunk size for published content.
	MaxChunkChars int `json:"max_chunk_chars" schema:"type:int,description:Maximum characters per published chunk,category:advanced,default:6000"`

	// MinContentLength is the substance threshold for fetched pages.
	MinContentLength int `json:"min_content_length" schema:"type:int,description:Minimum characters for a fetch to count,category:advanced,default:200"`

	// FetchTimeout bounds one page fetch including browser settle.
	FetchTimeout string `json:"fetch_timeout" schema:"type:string,description:Per-page fetch timeout,category:advanced,default:60s"`

	// SkipPatterns are URL path globs that are never fetched.
	SkipPatterns []string `json:"skip_patterns" schema:"type:array,description:URL path globs to skip,category:advanced"`

	// Browser holds headless browser settings.
	Browser BrowserConfig `json:"browser" schema:"type:object,description:Headless browser configuration,category:advanced"`

	// Model holds the LLM endpoint used for fallback generation.
	Model ModelConfig `json:"model" schema:"type:object,description:Model endpoint for generated overviews,category:basic"`
}

// BrowserConfig holds headless browser settings.
type BrowserConfig struct {
	// Enabled controls whether the browser strategy is used at all.
	Enabled bool `json:"enabled" schema:"type:bool,description:Use headless browser as primary fetch strategy,default:true"`

	// PoolSize bounds concurrent browser pages.
	PoolSize int `json:"pool_size" schema:"type:int,description:Concurrent browser pages,default:3"`

	// SettleDelay is rendering time after page load before extraction.
	SettleDelay string `json:"settle_delay" schema:"type:string,description:Post-load render delay,default:5s"`
}

// ModelConfig identifies the LLM endpoint for fallback content generation.
type ModelConfig struct {
	// Provider is the provider name (gemini, openai, anthropic, ollama).
	Provider string `json:"provider" schema:"type:string,description:LLM provider name,default:gemini"`

	// Model is the model identifier.
	Model string `json:"model" schema:"type:string,description:Model identifier,default:gemini-2.5-flash"`

	// URL overrides the provider's default endpoint.
	URL string `json:"url" schema:"type:string,description:Endpoint URL override"`

	// Temperature for generation requests.
	Temperature float64 `json:"temperature" schema:"type:float,description:Sampling temperature,default:0.7"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		return fmt.Errorf("stream_name is required")
	}
	if c.ConsumerName == "" {
		return fmt.Errorf("consumer_name is required")
	}
	if c.OutputSubject == "" {
		return fmt.Errorf("output_subject is required")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be non-negative")
	}
	if c.MaxChunkChars < 0 {
		return fmt.Errorf("max_chunk_chars must be non-negative")
	}
	if c.MinContentLength < 0 {
		return fmt.Errorf("min_content_length must be non-negative")
	}
	if c.FetchTimeout != "" {
		if _, err := time.ParseDuration(c.FetchTimeout); err != nil {
			return fmt.Errorf("invalid fetch_timeout format: %w", err)
		}
	}
	if c.Browser.SettleDelay != "" {
		if _, err := time.ParseDuration(c.Browser.SettleDelay); err != nil {
			return fmt.Errorf("invalid settle_delay format: %w", err)
		}
	}
	if c.Model.Provider == "" {
		return fmt.Errorf("model.provider is required")
	}
	if c.Model.Model == "" {
		return fmt.Errorf("model.model is required")
	}
	return nil
}

// parseDurationOrDefault parses a duration string and returns the default if empty or invalid.
func parseDurationOrDefault(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// GetFetchTimeout returns the fetch timeout as a duration.
func (c *Config) GetFetchTimeout() time.Duration {
	return parseDurationOrDefault(c.FetchTimeout, fetch.DefaultBrowserTimeout)
}

// GetSettleDelay returns the browser settle delay as a duration.
func (c *Config) GetSettleDelay() time.Duration {
	return parseDurationOrDefault(c.Browser.SettleDelay, fetch.DefaultSettleDelay)
}

// GetConcurrency returns the topic concurrency with default.
func (c *Config) GetConcurrency() int {
	if c.Concurrency <= 0 {
		return 3
	}
	return c.Concurrency
}

// GetMaxChunkChars returns the chunk size with default.
func (c *Config) GetMaxChunkChars() int {
	if c.MaxChunkChars <= 0 {
		return chunker.DefaultMaxChars
	}
	return c.MaxChunkChars
}

// GetMinContentLength returns the substance threshold with default.
func (c *Config) GetMinContentLength() int {
	if c.MinContentLength <= 0 {
		return fetch.MinContentLength
	}
	return c.MinContentLength
}

// GetBrowserPoolSize returns the browser pool size with default.
func (c *Config) GetBrowserPoolSize() int {
	if c.Browser.PoolSize <= 0 {
		return fetch.DefaultPoolSize
	}
	return c.Browser.PoolSize
}

// DefaultConfig returns default configuration for content-acquirer processor.
func DefaultConfig() Config {
	inputDefs := []component.PortDefinition{
		{
			Name:        "acquire.in",
			Type:        "jetstream",
			Subject:     "acquire.request.>",
			StreamName:  "ACQUIRE",
			Required:    true,
			Description: "Topic batch acquisition requests",
		},
	}

	outputDefs := []component.PortDefinition{
		{
			Name:        "content.out",
			Type:        "jetstream",
			Subject:     "content.unit.chunk",
			StreamName:  "CONTENT",
			Required:    true,
			Description: "Chunked content units",
		},
	}

	return Config{
		Ports: &component.PortConfig{
			Inputs:  inputDefs,
			Outputs: outputDefs,
		},
		StreamName:       "ACQUIRE",
		ConsumerName:     "content-acquirer",
		OutputSubject:    "content.unit.chunk",
		Concurrency:      3,
		MaxChunkChars:    chunker.DefaultMaxChars,
		MinContentLength: fetch.MinContentLength,
		FetchTimeout:     "60s",
		Browser: BrowserConfig{
			Enabled:     true,
			PoolSize:    fetch.DefaultPoolSize,
			SettleDelay: "5s",
		},
		Model: ModelConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			Temperature: 0.7,
		},
	}
}
