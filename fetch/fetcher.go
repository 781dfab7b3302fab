// Package fetch retrieves web page content for downstream synthesis. A
// Fetcher runs an ordered list of strategies (headless browser first, plain
// HTTP second) and accepts the first result with enough substance to be
// worth keeping.
package fetch

import (
	"context"
	"log/slog"
	"strings"
)

// MinContentLength is the substance threshold: extracted text at or below
// this many characters is treated as a failed fetch (error pages, cookie
// walls, and bot checks typically render shorter than this).
const MinContentLength = 200

// Strategy is one way of turning a URL into extracted text.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, url string) (string, error)
}

// Fetcher tries strategies in order until one produces substantial content.
type Fetcher struct {
	strategies []Strategy
	minLength  int
	logger     *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMinContentLength overrides the substance threshold.
func WithMinContentLength(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.minLength = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Fetcher that tries the given strategies in order.
func New(strategies []Strategy, opts ...Option) *Fetcher {
	f := &Fetcher{
		strategies: strategies,
		minLength:  MinContentLength,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the extracted text of the URL and whether any strategy
// produced substantial content. Strategy errors are absorbed and logged;
// Fetch itself never fails, it only reports ok=false.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, bool) {
	for _, strategy := range f.strategies {
		if ctx.Err() != nil {
			f.logger.Warn("Fetch canceled", "url", url)
			return "", false
		}

		text, err := strategy.Fetch(ctx, url)
		if err != nil {
			f.logger.Warn("Fetch strategy failed",
				"strategy", strategy.Name(), "url", url, "error", err)
			continue
		}

		text = strings.TrimSpace(text)
		if len(text) > f.minLength {
			f.logger.Info("Fetched content",
				"strategy", strategy.Name(), "url", url, "chars", len(text))
			return text, true
		}

		f.logger.Warn("Fetch returned insufficient content",
			"strategy", strategy.Name(), "url", url, "chars", len(text))
	}

	return "", false
}
