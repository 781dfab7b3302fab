// Package contentacquirer provides a component that turns topic batch
// requests into chunked content units: resources are fetched from the web,
// topics with nothing fetchable get model-generated overviews, and results
// are published in chunks sized for downstream consumers.
package contentacquirer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/contentpipe/acquire"
	"github.com/c360studio/contentpipe/chunker"
	"github.com/c360studio/contentpipe/fetch"
	"github.com/c360studio/contentpipe/llm"
	_ "github.com/c360studio/contentpipe/llm/providers" // provider registration
	"github.com/c360studio/contentpipe/synthesis"
)

// contentAcquirerSchema defines the configuration schema.
var contentAcquirerSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Component implements the content-acquirer processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger
	platform   component.PlatformMeta

	orchestrator *acquire.Orchestrator
	splitter     *chunker.Splitter
	browser      *fetch.BrowserStrategy

	// Lifecycle management
	running   bool
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup // Tracks running goroutines for graceful shutdown

	// Metrics
	batchesProcessed atomic.Int64
	chunksPublished  atomic.Int64
	errors           atomic.Int64
	lastActivityMu   sync.RWMutex
	lastActivity     time.Time
}

// NewComponent creates a new content-acquirer processor component.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Use default config if ports not set
	if config.Ports == nil {
		config = DefaultConfig()
		// Re-unmarshal to get user-provided values
		if err := json.Unmarshal(rawConfig, &config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Component{
		name:       "content-acquirer",
		config:     config,
		natsClient: deps.NATSClient,
		logger:     deps.GetLogger(),
		platform:   deps.Platform,
	}

	return c, nil
}

// Initialize prepares the component.
func (c *Component) Initialize() error {
	return nil
}

// Start begins processing acquisition requests.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("component already running")
	}
	if c.natsClient == nil {
		c.mu.Unlock()
		return fmt.Errorf("NATS client required")
	}
	// Mark as starting immediately to prevent concurrent starts
	c.running = true
	c.startTime = time.Now()
	c.mu.Unlock()

	if err := c.buildPipeline(); err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.consumeMessages(runCtx)
	}()

	c.logger.Info("Content acquirer started",
		"stream", c.config.StreamName,
		"consumer", c.config.ConsumerName,
		"browser_enabled", c.config.Browser.Enabled)

	return nil
}

// buildPipeline wires the fetcher, synthesizer, chunker, and orchestrator
// from configuration.
func (c *Component) buildPipeline() error {
	var strategies []fetch.Strategy

	if c.config.Browser.Enabled {
		c.browser = fetch.NewBrowserStrategy(fetch.BrowserConfig{
			PoolSize:    c.config.GetBrowserPoolSize(),
			SettleDelay: c.config.GetSettleDelay(),
			Timeout:     c.config.GetFetchTimeout(),
			Headless:    true,
		}, c.logger)
		strategies = append(strategies, c.browser)
	}

	strategies = append(strategies, fetch.NewStaticStrategy(fetch.StaticConfig{}, c.logger))

	fetcher := fetch.New(strategies,
		fetch.WithMinContentLength(c.config.GetMinContentLength()),
		fetch.WithLogger(c.logger))

	client := llm.NewClient(llm.Endpoint{
		Provider: c.config.Model.Provider,
		Model:    c.config.Model.Model,
		URL:      c.config.Model.URL,
	}, llm.WithLogger(c.logger))

	synth := synthesis.New(client,
		synthesis.WithLogger(c.logger),
		synthesis.WithTemperature(c.config.Model.Temperature))

	splitter, err := chunker.New(chunker.Config{MaxChars: c.config.GetMaxChunkChars()})
	if err != nil {
		return fmt.Errorf("create chunker: %w", err)
	}
	c.splitter = splitter

	c.orchestrator = acquire.NewOrchestrator(fetcher, synth,
		acquire.WithConcurrency(c.config.GetConcurrency()),
		acquire.WithSkipPatterns(c.config.SkipPatterns),
		acquire.WithLogger(c.logger))

	return nil
}

// consumeMessages processes incoming acquisition requests.
func (c *Component) consumeMessages(ctx context.Context) {
	js, err := c.natsClient.JetStream()
	if err != nil {
		c.logger.Error("Failed to get JetStream context", "error", err)
		return
	}

	// Get or create consumer
	consumer, err := js.Consumer(ctx, c.config.StreamName, c.config.ConsumerName)
	if err != nil {
		c.logger.Error("Failed to get consumer", "error", err, "stream", c.config.StreamName, "consumer", c.config.ConsumerName)
		return
	}

	c.logger.Info("Consumer connected", "stream", c.config.StreamName, "consumer", c.config.ConsumerName)

	// Consume messages
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Fetch next message with timeout
		msgs, err := consumer.Fetch(1, jetstream.FetchMaxWait(5*time.Second))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue // Timeout, try again
		}

		for msg := range msgs.Messages() {
			select {
			case <-ctx.Done():
				// NAK the current message so it can be redelivered
				_ = msg.Nak()
				// Drain remaining messages from this batch
				for remaining := range msgs.Messages() {
					_ = remaining.Nak()
				}
				return
			default:
				c.handleMessage(ctx, msg)
			}
		}
	}
}

// handleMessage processes a single acquisition request.
func (c *Component) handleMessage(ctx context.Context, msg jetstream.Msg) {
	c.updateLastActivity()

	var req AcquireRequestPayload
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		c.logger.Warn("Failed to parse acquisition request", "error", err)
		c.errors.Add(1)
		metricErrors.Inc()
		_ = msg.Nak()
		return
	}
	if err := req.Validate(); err != nil {
		c.logger.Warn("Invalid acquisition request", "error", err)
		c.errors.Add(1)
		metricErrors.Inc()
		// Malformed requests never become valid; drop without redelivery.
		_ = msg.Ack()
		return
	}

	c.logger.Info("Processing acquisition request",
		"request_id", req.RequestID, "topics", len(req.Topics))

	result, err := c.orchestrator.AcquireAll(ctx, req.Topics)
	if err != nil {
		c.logger.Error("Acquisition interrupted", "request_id", req.RequestID, "error", err)
		c.errors.Add(1)
		metricErrors.Inc()
		_ = msg.Nak()
		return
	}

	if err := c.publishResult(ctx, req.RequestID, result); err != nil {
		c.logger.Error("Failed to publish content units",
			"batch_id", result.BatchID, "error", err)
		c.errors.Add(1)
		metricErrors.Inc()
		_ = msg.Nak()
		return
	}

	c.batchesProcessed.Add(1)
	metricBatches.Inc()
	metricUnits.WithLabelValues("fetched").Add(float64(result.Fetched))
	metricUnits.WithLabelValues("generated").Add(float64(result.Generated))
	_ = msg.Ack()

	c.logger.Info("Acquisition request complete",
		"request_id", req.RequestID,
		"batch_id", result.BatchID,
		"units", len(result.Units),
		"fetched", result.Fetched,
		"generated", result.Generated)
}

// publishResult splits every unit into chunks and publishes them in order.
func (c *Component) publishResult(ctx context.Context, requestID string, result *acquire.Result) error {
	for unitIndex, unit := range result.Units {
		chunks := c.splitter.Split(unit.Content)

		// An empty unit still announces itself with one empty chunk so
		// consumers see every unit of the batch.
		if len(chunks) == 0 {
			chunks = []chunker.Chunk{{Index: 0, Text: ""}}
		}

		for _, chunk := range chunks {
			payload := &ContentUnitPayload{
				BatchID:     result.BatchID,
				RequestID:   requestID,
				UnitIndex:   unitIndex,
				ChunkIndex:  chunk.Index,
				ChunkCount:  len(chunks),
				Title:       unit.Title,
				Description: unit.Description,
				SourceURL:   unit.SourceURL,
				SourceTitle: unit.SourceTitle,
				Content:     chunk.Text,
			}

			if err := c.publishChunk(ctx, payload); err != nil {
				return err
			}
			c.chunksPublished.Add(1)
			metricChunksPublished.Inc()
		}
	}
	return nil
}

// publishChunk wraps a ContentUnitPayload and publishes it to the content stream.
func (c *Component) publishChunk(ctx context.Context, payload *ContentUnitPayload) error {
	msg := message.NewBaseMessage(ContentUnitType, payload, "contentpipe")
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal chunk message: %w", err)
	}
	return c.natsClient.PublishToStream(ctx, c.config.OutputSubject, data)
}

// updateLastActivity safely updates the last activity timestamp.
func (c *Component) updateLastActivity() {
	c.lastActivityMu.Lock()
	c.lastActivity = time.Now()
	c.lastActivityMu.Unlock()
}

// getLastActivity safely retrieves the last activity timestamp.
func (c *Component) getLastActivity() time.Time {
	c.lastActivityMu.RLock()
	defer c.lastActivityMu.RUnlock()
	return c.lastActivity
}

// Stop gracefully stops the component within the given timeout.
func (c *Component) Stop(timeout time.Duration) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	// Wait for goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		// Graceful shutdown completed
	case <-time.After(timeout):
		err = fmt.Errorf("stop timed out after %v", timeout)
	}

	if c.browser != nil {
		if closeErr := c.browser.Close(); closeErr != nil {
			c.logger.Warn("Failed to close browser", "error", closeErr)
		}
	}

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.logger.Info("Content acquirer stopped",
		"batches_processed", c.batchesProcessed.Load(),
		"chunks_published", c.chunksPublished.Load(),
		"errors", c.errors.Load())

	return err
}

// Discoverable interface implementation

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "content-acquirer",
		Type:        "processor",
		Description: "Topic batch content acquisition with generated fallback",
		Version:     "0.1.0",
	}
}

// InputPorts returns configured input port definitions.
func (c *Component) InputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Inputs))
	for i, portDef := range c.config.Ports.Inputs {
		ports[i] = buildPort(portDef, component.DirectionInput)
	}
	return ports
}

// OutputPorts returns configured output port definitions.
func (c *Component) OutputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Outputs))
	for i, portDef := range c.config.Ports.Outputs {
		ports[i] = buildPort(portDef, component.DirectionOutput)
	}
	return ports
}

// buildPort creates a component.Port from a PortDefinition.
func buildPort(portDef component.PortDefinition, direction component.Direction) component.Port {
	port := component.Port{
		Name:        portDef.Name,
		Direction:   direction,
		Required:    portDef.Required,
		Description: portDef.Description,
	}
	if portDef.Type == "jetstream" {
		port.Config = component.JetStreamPort{
			StreamName: portDef.StreamName,
			Subjects:   []string{portDef.Subject},
		}
	} else {
		port.Config = component.NATSPort{
			Subject: portDef.Subject,
		}
	}
	return port
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return contentAcquirerSchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	c.mu.RLock()
	running := c.running
	startTime := c.startTime
	c.mu.RUnlock()

	return component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: int(c.errors.Load()),
		Uptime:     time.Since(startTime),
		Status:     c.getStatusString(running),
	}
}

// getStatusString returns a status string based on running state.
func (c *Component) getStatusString(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}

// DataFlow returns current data flow metrics.
func (c *Component) DataFlow() component.FlowMetrics {
	return component.FlowMetrics{
		MessagesPerSecond: 0,
		BytesPerSecond:    0,
		ErrorRate:         0,
		LastActivity:      c.getLastActivity(),
	}
}
