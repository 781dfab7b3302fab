package acquire

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher maps URLs to canned content. URLs not in the map fail. An
// optional delay simulates slow fetches for ordering tests.
type stubFetcher struct {
	content map[string]string
	delays  map[string]time.Duration
	calls   atomic.Int64
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (string, bool) {
	f.calls.Add(1)
	if d, ok := f.delays[url]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", false
		}
	}
	text, ok := f.content[url]
	return text, ok
}

// stubGenerator returns a fixed overview per topic title.
type stubGenerator struct {
	calls atomic.Int64
}

func (g *stubGenerator) GenerateOverview(_ context.Context, title, _ string) string {
	g.calls.Add(1)
	return "Generated overview of " + title
}

func substantial(subject string) string {
	return strings.Repeat(subject+" explained in depth. ", 15)
}

func TestAcquireAllPreservesTopicOrder(t *testing.T) {
	fetcher := &stubFetcher{
		content: map[string]string{
			"https://example.com/goroutines": substantial("goroutines"),
			"https://example.com/channels":   substantial("channels"),
			"https://example.com/select":     substantial("select"),
		},
		// First topic finishes last.
		delays: map[string]time.Duration{
			"https://example.com/goroutines": 50 * time.Millisecond,
		},
	}

	topics := []Topic{
		{Title: "Goroutines", Resources: []Resource{{Title: "Docs", URL: "https://example.com/goroutines"}}},
		{Title: "Channels", Resources: []Resource{{Title: "Docs", URL: "https://example.com/channels"}}},
		{Title: "Select", Resources: []Resource{{Title: "Docs", URL: "https://example.com/select"}}},
	}

	o := NewOrchestrator(fetcher, &stubGenerator{}, WithConcurrency(3))
	result, err := o.AcquireAll(context.Background(), topics)
	require.NoError(t, err)

	require.Len(t, result.Units, 3)
	assert.Equal(t, "Goroutines", result.Units[0].Title)
	assert.Equal(t, "Channels", result.Units[1].Title)
	assert.Equal(t, "Select", result.Units[2].Title)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 0, result.Generated)
	assert.NotEmpty(t, result.BatchID)
}

func TestAcquireAllFallsBackToGenerated(t *testing.T) {
	// No URL resolves; every topic degrades to a generated unit.
	fetcher := &stubFetcher{content: map[string]string{}}
	generator := &stubGenerator{}

	topics := []Topic{
		{Title: "Mutexes", Description: "Mutual exclusion", Resources: []Resource{
			{Title: "Dead link", URL: "https://example.com/gone"},
		}},
	}

	o := NewOrchestrator(fetcher, generator)
	result, err := o.AcquireAll(context.Background(), topics)
	require.NoError(t, err)

	require.Len(t, result.Units, 1)
	unit := result.Units[0]
	assert.Equal(t, SourceURLGenerated, unit.SourceURL)
	assert.Equal(t, SourceTitleGenerated, unit.SourceTitle)
	assert.Equal(t, "Generated overview of Mutexes", unit.Content)
	assert.True(t, unit.Generated())
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, int64(1), generator.calls.Load())
}

func TestAcquireAllTopicWithoutResources(t *testing.T) {
	o := NewOrchestrator(&stubFetcher{}, &stubGenerator{})

	result, err := o.AcquireAll(context.Background(), []Topic{{Title: "Context"}})
	require.NoError(t, err)

	require.Len(t, result.Units, 1)
	assert.True(t, result.Units[0].Generated())
}

func TestAcquireAllMixedResults(t *testing.T) {
	fetcher := &stubFetcher{
		content: map[string]string{
			"https://example.com/good": substantial("interfaces"),
		},
	}

	topics := []Topic{
		{Title: "Interfaces", Resources: []Resource{
			{Title: "Good", URL: "https://example.com/good"},
			{Title: "Bad", URL: "https://example.com/bad"},
		}},
		{Title: "Reflection", Resources: []Resource{
			{Title: "Bad", URL: "https://example.com/also-bad"},
		}},
	}

	o := NewOrchestrator(fetcher, &stubGenerator{})
	result, err := o.AcquireAll(context.Background(), topics)
	require.NoError(t, err)

	// Topic one fetches its first resource; topic two degrades.
	require.Len(t, result.Units, 2)
	assert.Equal(t, "https://example.com/good", result.Units[0].SourceURL)
	assert.True(t, result.Units[1].Generated())
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Generated)
}

func TestAcquireAllOnlyFirstResourceTried(t *testing.T) {
	// The second resource would resolve, but only the first candidate URL
	// is ever fetched; a dead first resource means a generated unit.
	fetcher := &stubFetcher{
		content: map[string]string{
			"https://example.com/second": substantial("maps"),
		},
	}

	topics := []Topic{
		{Title: "Maps", Resources: []Resource{
			{Title: "Dead", URL: "https://example.com/dead"},
			{Title: "Alive", URL: "https://example.com/second"},
		}},
	}

	o := NewOrchestrator(fetcher, &stubGenerator{})
	result, err := o.AcquireAll(context.Background(), topics)
	require.NoError(t, err)

	assert.Equal(t, int64(1), fetcher.calls.Load())
	require.Len(t, result.Units, 1)
	assert.True(t, result.Units[0].Generated())
}

func TestAcquireAllSkipsInvalidAndPatternedURLs(t *testing.T) {
	fetcher := &stubFetcher{content: map[string]string{}}

	topics := []Topic{
		{Title: "Security", Resources: []Resource{
			{Title: "Internal", URL: "http://localhost/secret"},
			{Title: "Login wall", URL: "https://example.com/login"},
			{Title: "Empty", URL: ""},
		}},
	}

	o := NewOrchestrator(fetcher, &stubGenerator{}, WithSkipPatterns([]string{"login"}))
	result, err := o.AcquireAll(context.Background(), topics)
	require.NoError(t, err)

	assert.Equal(t, int64(0), fetcher.calls.Load(), "no fetch for skipped URLs")
	require.Len(t, result.Units, 1)
	assert.True(t, result.Units[0].Generated())
}

func TestAcquireAllEmptyBatch(t *testing.T) {
	o := NewOrchestrator(&stubFetcher{}, &stubGenerator{})

	result, err := o.AcquireAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Units)
	assert.NotEmpty(t, result.BatchID)
}

func TestAcquireAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(&stubFetcher{}, &stubGenerator{})
	_, err := o.AcquireAll(ctx, []Topic{{Title: "Anything"}})
	assert.Error(t, err)
}
