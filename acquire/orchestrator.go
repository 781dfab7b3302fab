package acquire

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/contentpipe/fetch/weburl"
)

// DefaultConcurrency is how many topics are acquired in parallel. Browser
// page slots bound per-fetch parallelism separately.
const DefaultConcurrency = 3

// ContentFetcher retrieves page text for a URL. ok is false when no
// strategy produced substantial content.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, bool)
}

// OverviewGenerator produces fallback content for a topic. Implementations
// never fail; on model errors they return a fixed failure marker.
type OverviewGenerator interface {
	GenerateOverview(ctx context.Context, title, description string) string
}

// Orchestrator fans acquisition out across topics while keeping results in
// topic order.
type Orchestrator struct {
	fetcher      ContentFetcher
	generator    OverviewGenerator
	concurrency  int
	skipPatterns []string
	logger       *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithConcurrency sets how many topics run in parallel.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithSkipPatterns sets URL path globs whose resources are never fetched
// (e.g. "login", "admin/**").
func WithSkipPatterns(patterns []string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.skipPatterns = patterns
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an orchestrator over the given fetcher and
// fallback generator.
func NewOrchestrator(fetcher ContentFetcher, generator OverviewGenerator, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		fetcher:     fetcher,
		generator:   generator,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AcquireAll acquires content for every topic concurrently and returns the
// units in topic order. Individual topic failures degrade to generated
// content; AcquireAll fails only when the context is canceled.
func (o *Orchestrator) AcquireAll(ctx context.Context, topics []Topic) (*Result, error) {
	result := &Result{
		BatchID: uuid.New().String(),
	}
	if len(topics) == 0 {
		return result, nil
	}

	o.logger.Info("Starting acquisition batch",
		"batch_id", result.BatchID,
		"topics", len(topics),
		"concurrency", o.concurrency)

	// Index-based writes keep output in topic order without coordination.
	// Every topic yields exactly one unit, so units[i] describes topics[i].
	units := make([]ContentUnit, len(topics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, topic := range topics {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			units[i] = o.acquireTopic(gctx, topic)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, unit := range units {
		if unit.Generated() {
			result.Generated++
		} else {
			result.Fetched++
		}
	}
	result.Units = units

	o.logger.Info("Acquisition batch complete",
		"batch_id", result.BatchID,
		"units", len(result.Units),
		"fetched", result.Fetched,
		"generated", result.Generated)

	return result, nil
}

// acquireTopic produces the single unit for one topic: the first usable
// resource URL is fetched, and anything short of substantial content
// degrades to a generated overview.
func (o *Orchestrator) acquireTopic(ctx context.Context, topic Topic) ContentUnit {
	if res, found := o.firstUsableResource(topic); found {
		if text, ok := o.fetcher.Fetch(ctx, res.URL); ok {
			return ContentUnit{
				Title:       topic.Title,
				Description: topic.Description,
				SourceURL:   res.URL,
				SourceTitle: res.Title,
				Content:     text,
			}
		}
	}

	o.logger.Info("No fetchable content, generating overview", "topic", topic.Title)

	return ContentUnit{
		Title:       topic.Title,
		Description: topic.Description,
		SourceURL:   SourceURLGenerated,
		SourceTitle: SourceTitleGenerated,
		Content:     o.generator.GenerateOverview(ctx, topic.Title, topic.Description),
	}
}

// firstUsableResource finds the topic's first resource with a well-formed,
// non-skipped URL.
func (o *Orchestrator) firstUsableResource(topic Topic) (Resource, bool) {
	for _, res := range topic.Resources {
		if res.URL == "" {
			continue
		}
		if err := weburl.ValidateURL(res.URL); err != nil {
			o.logger.Warn("Skipping invalid resource URL",
				"topic", topic.Title, "url", res.URL, "error", err)
			continue
		}
		if weburl.MatchesSkipPattern(res.URL, o.skipPatterns) {
			o.logger.Debug("Skipping resource by pattern",
				"topic", topic.Title, "url", res.URL)
			continue
		}
		return res, true
	}
	return Resource{}, false
}
