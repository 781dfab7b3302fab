package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/c360studio/contentpipe/fetch/weburl"
)

const (
	// DefaultPoolSize bounds concurrent browser pages. Each page is a
	// Chrome tab; three keeps memory predictable under fan-out.
	DefaultPoolSize = 3

	// DefaultSettleDelay is how long a loaded page gets for deferred
	// rendering (lazy content, client-side routing) before extraction.
	DefaultSettleDelay = 5 * time.Second

	// DefaultBrowserTimeout bounds one navigation including settle.
	DefaultBrowserTimeout = 60 * time.Second
)

// BrowserConfig configures a BrowserStrategy.
type BrowserConfig struct {
	PoolSize    int
	SettleDelay time.Duration
	Timeout     time.Duration
	Headless    bool
}

// DefaultBrowserConfig returns the production defaults.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		PoolSize:    DefaultPoolSize,
		SettleDelay: DefaultSettleDelay,
		Timeout:     DefaultBrowserTimeout,
		Headless:    true,
	}
}

// BrowserStrategy fetches pages through headless Chrome so that
// script-rendered content is present in the DOM before extraction. A single
// browser process is launched lazily on first use and shared; concurrent
// fetches are limited by a fixed pool of page slots.
type BrowserStrategy struct {
	cfg    BrowserConfig
	slots  chan struct{}
	logger *slog.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	closed   bool
}

// NewBrowserStrategy creates a browser fetch strategy. The browser process
// is not launched until the first Fetch call.
func NewBrowserStrategy(cfg BrowserConfig, logger *slog.Logger) *BrowserStrategy {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBrowserTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &BrowserStrategy{
		cfg:    cfg,
		slots:  make(chan struct{}, cfg.PoolSize),
		logger: logger.With("strategy", "browser"),
	}
}

// Name identifies the strategy in logs.
func (b *BrowserStrategy) Name() string { return "browser" }

// Fetch navigates to the URL in a fresh browser page, waits for load plus
// the settle delay, and returns the rendered DOM as plain text.
func (b *BrowserStrategy) Fetch(ctx context.Context, urlStr string) (string, error) {
	if err := weburl.ValidateURL(urlStr); err != nil {
		return "", err
	}

	// Acquire a page slot or give up with the caller's context.
	select {
	case b.slots <- struct{}{}:
		defer func() { <-b.slots }()
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for browser slot: %w", ctx.Err())
	}

	browser, err := b.ensureBrowser()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: urlStr})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			b.logger.Debug("Failed to close page", "url", urlStr, "error", err)
		}
	}()

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	// Let client-side rendering finish before reading the DOM.
	select {
	case <-time.After(b.cfg.SettleDelay):
	case <-ctx.Done():
		return "", fmt.Errorf("settle interrupted: %w", ctx.Err())
	}

	rawHTML, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read DOM: %w", err)
	}

	return RenderedText(rawHTML), nil
}

// ensureBrowser launches Chrome on first use. Launch failures are not
// cached so a transient failure (e.g. binary still downloading) can
// succeed on a later call.
func (b *BrowserStrategy) ensureBrowser() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("browser strategy is closed")
	}
	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().
		Headless(b.cfg.Headless).
		Set(flags.NoSandbox).
		Set("disable-dev-shm-usage")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	b.logger.Info("Browser launched", "pool_size", b.cfg.PoolSize, "headless", b.cfg.Headless)
	b.launcher = l
	b.browser = browser
	return browser, nil
}

// Close shuts down the shared browser process. Safe to call multiple
// times; subsequent Fetch calls fail.
func (b *BrowserStrategy) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
		b.launcher = nil
	}
	return err
}
