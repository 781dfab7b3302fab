package fetch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubStrategy records calls and returns a canned result.
type stubStrategy struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.text, s.err
}

func longText() string {
	return strings.Repeat("substantial content ", 20) // 400 chars
}

func TestFetcherFirstStrategyWins(t *testing.T) {
	primary := &stubStrategy{name: "browser", text: longText()}
	fallback := &stubStrategy{name: "static", text: longText()}

	f := New([]Strategy{primary, fallback})
	text, ok := f.Fetch(context.Background(), "https://example.com/a")

	assert.True(t, ok)
	assert.Equal(t, strings.TrimSpace(longText()), text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls, "fallback should not run when primary succeeds")
}

func TestFetcherFallsBackOnError(t *testing.T) {
	primary := &stubStrategy{name: "browser", err: errors.New("chrome crashed")}
	fallback := &stubStrategy{name: "static", text: longText()}

	f := New([]Strategy{primary, fallback})
	text, ok := f.Fetch(context.Background(), "https://example.com/a")

	assert.True(t, ok)
	assert.NotEmpty(t, text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestFetcherFallsBackOnThinContent(t *testing.T) {
	// An error page extracts to something short; that should not count as
	// a successful fetch.
	primary := &stubStrategy{name: "browser", text: "404 Not Found"}
	fallback := &stubStrategy{name: "static", text: longText()}

	f := New([]Strategy{primary, fallback})
	_, ok := f.Fetch(context.Background(), "https://example.com/a")

	assert.True(t, ok)
	assert.Equal(t, 1, fallback.calls)
}

func TestFetcherThresholdIsStrict(t *testing.T) {
	exactly := strings.Repeat("x", MinContentLength)
	f := New([]Strategy{&stubStrategy{name: "static", text: exactly}})

	_, ok := f.Fetch(context.Background(), "https://example.com/a")
	assert.False(t, ok, "content exactly at the threshold is insufficient")

	f = New([]Strategy{&stubStrategy{name: "static", text: exactly + "x"}})
	_, ok = f.Fetch(context.Background(), "https://example.com/a")
	assert.True(t, ok)
}

func TestFetcherAllStrategiesFail(t *testing.T) {
	f := New([]Strategy{
		&stubStrategy{name: "browser", err: errors.New("no display")},
		&stubStrategy{name: "static", err: errors.New("connection refused")},
	})

	text, ok := f.Fetch(context.Background(), "https://example.com/a")
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestFetcherCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &stubStrategy{name: "browser", text: longText()}
	f := New([]Strategy{primary})

	_, ok := f.Fetch(ctx, "https://example.com/a")
	assert.False(t, ok)
	assert.Equal(t, 0, primary.calls)
}

func TestFetcherCustomThreshold(t *testing.T) {
	f := New(
		[]Strategy{&stubStrategy{name: "static", text: "tiny but fine"}},
		WithMinContentLength(5),
	)

	text, ok := f.Fetch(context.Background(), "https://example.com/a")
	assert.True(t, ok)
	assert.Equal(t, "tiny but fine", text)
}

func TestBrowserStrategyDefaults(t *testing.T) {
	b := NewBrowserStrategy(BrowserConfig{}, nil)

	assert.Equal(t, "browser", b.Name())
	assert.Equal(t, DefaultPoolSize, cap(b.slots))
	assert.Equal(t, DefaultSettleDelay, b.cfg.SettleDelay)
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close(), "Close is idempotent")

	_, err := b.Fetch(context.Background(), "https://example.com/a")
	assert.Error(t, err, "fetch after close fails")
}
