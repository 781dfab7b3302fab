package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"

	"github.com/c360studio/contentpipe/fetch/weburl"
)

const (
	// DefaultUserAgent mimics a desktop browser; many documentation sites
	// serve reduced or blocked pages to obvious bot agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

	// DefaultStaticTimeout bounds the whole request including body read.
	DefaultStaticTimeout = 10 * time.Second

	// DefaultMaxContentSize caps response bodies (10MB).
	DefaultMaxContentSize = 10 * 1024 * 1024

	maxRedirects = 5
)

// StaticConfig configures a StaticStrategy.
type StaticConfig struct {
	UserAgent      string
	Timeout        time.Duration
	MaxContentSize int64
}

// StaticStrategy fetches pages with a plain HTTP GET and extracts the main
// article content. It is the fallback for pages that do not need script
// execution, and the cheaper path when the browser pool is unavailable.
type StaticStrategy struct {
	client         *http.Client
	userAgent      string
	maxContentSize int64
	converter      *md.Converter
	logger         *slog.Logger
}

// NewStaticStrategy creates a static HTTP fetch strategy. Zero-value config
// fields fall back to package defaults.
func NewStaticStrategy(cfg StaticConfig, logger *slog.Logger) *StaticStrategy {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultStaticTimeout
	}
	if cfg.MaxContentSize <= 0 {
		cfg.MaxContentSize = DefaultMaxContentSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	// Custom DialContext that validates resolved IPs to prevent DNS rebinding attacks
	safeDialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}

		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("DNS lookup failed: %w", err)
		}

		for _, ipAddr := range ips {
			if weburl.IsPrivateIP(ipAddr.IP) {
				return nil, fmt.Errorf("connection to private IP %s is not allowed", ipAddr.IP)
			}
		}

		for _, ipAddr := range ips {
			connAddr := net.JoinHostPort(ipAddr.IP.String(), port)
			conn, err := dialer.DialContext(ctx, network, connAddr)
			if err == nil {
				return conn, nil
			}
		}

		return nil, fmt.Errorf("failed to connect to any resolved IP")
	}

	transport := &http.Transport{
		DialContext:           safeDialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &StaticStrategy{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (max %d)", maxRedirects)
				}
				// Validate redirect target is not to private IP
				if err := weburl.ValidateURL(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		},
		userAgent:      cfg.UserAgent,
		maxContentSize: cfg.MaxContentSize,
		converter:      md.NewConverter("", true, nil),
		logger:         logger.With("strategy", "static"),
	}
}

// Name identifies the strategy in logs.
func (s *StaticStrategy) Name() string { return "static" }

// Fetch retrieves the URL over HTTP and returns the extracted article as
// markdown, falling back to plain text when conversion fails.
func (s *StaticStrategy) Fetch(ctx context.Context, urlStr string) (string, error) {
	if err := weburl.ValidateURL(urlStr); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	limitReader := io.LimitReader(resp.Body, s.maxContentSize+1)
	body, err := io.ReadAll(limitReader)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if int64(len(body)) > s.maxContentSize {
		return "", fmt.Errorf("content too large (exceeds %d bytes)", s.maxContentSize)
	}

	return s.extract(body, urlStr)
}

// extract runs readability over the raw page, then converts the article
// HTML to markdown. A page readability cannot parse falls back to plain
// rendered text.
func (s *StaticStrategy) extract(body []byte, urlStr string) (string, error) {
	pageURL, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		s.logger.Debug("Readability extraction failed, using rendered text",
			"url", urlStr, "error", err)
		return RenderedText(string(body)), nil
	}

	markdown, err := s.converter.ConvertString(article.Content)
	if err != nil || strings.TrimSpace(markdown) == "" {
		return strings.TrimSpace(article.TextContent), nil
	}

	return strings.TrimSpace(markdown), nil
}
