// Package chunker provides fixed-stride splitting of raw content into
// bounded segments for downstream processing.
package chunker

import (
	"fmt"
)

// DefaultMaxChars matches the segment size expected by downstream
// extraction and rendering consumers.
const DefaultMaxChars = 6000

// Config holds splitting configuration.
type Config struct {
	// MaxChars is the maximum chunk size in bytes.
	MaxChars int
}

// DefaultConfig returns sensible splitting defaults.
func DefaultConfig() Config {
	return Config{MaxChars: DefaultMaxChars}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.MaxChars <= 0 {
		return fmt.Errorf("MaxChars must be positive, got %d", c.MaxChars)
	}
	return nil
}

// Chunk is one bounded segment of a larger text. Concatenating all chunks
// of a split in Index order reconstructs the original text exactly.
type Chunk struct {
	// Index is the zero-based position of this chunk in the sequence.
	Index int `json:"index"`

	// Text is the chunk content. Always <= MaxChars bytes.
	Text string `json:"text"`
}

// Splitter partitions text into bounded chunks at fixed strides.
type Splitter struct {
	config Config
}

// New creates a new Splitter with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*Splitter, error) {
	if cfg.MaxChars == 0 {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{config: cfg}, nil
}

// MustNew creates a new Splitter, panicking on invalid config.
// Use for known-good configurations.
func MustNew(cfg Config) *Splitter {
	s, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// NewDefault creates a Splitter with default configuration.
func NewDefault() *Splitter {
	return MustNew(DefaultConfig())
}

// Split partitions text into ceil(len(text)/MaxChars) chunks at fixed byte
// strides. Splitting is purely positional; no attempt is made to respect
// sentence or tag boundaries. Empty input produces an empty slice.
func (s *Splitter) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	max := s.config.MaxChars
	chunks := make([]Chunk, 0, (len(text)+max-1)/max)
	for i := 0; i < len(text); i += max {
		end := i + max
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  text[i:end],
		})
	}

	return chunks
}

// MaxChars returns the configured maximum chunk size.
func (s *Splitter) MaxChars() int {
	return s.config.MaxChars
}
