package acquire

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// eventChannelBuffer is the size of the batch event channel.
	eventChannelBuffer = 100
)

// WatchConfig configures drop-directory watching for topic batch files.
type WatchConfig struct {
	// Enabled controls whether directory watching is active.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// DebounceDelay is how long to wait for a file to stop changing
	// before emitting it, so half-written batches are not picked up.
	DebounceDelay string `json:"debounce_delay" yaml:"debounce_delay"`
}

// DefaultWatchConfig returns default watch configuration.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Enabled:       false,
		DebounceDelay: "500ms",
	}
}

// GetDebounceDelay returns the debounce delay as a duration.
func (c *WatchConfig) GetDebounceDelay() time.Duration {
	if c.DebounceDelay == "" {
		return 500 * time.Millisecond
	}
	d, err := time.ParseDuration(c.DebounceDelay)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// BatchEvent announces a topic batch file that is ready to process.
type BatchEvent struct {
	// Path is the absolute path to the batch file.
	Path string
}

// BatchWatcher watches a drop directory for JSON topic batch files and
// emits an event per settled file.
type BatchWatcher struct {
	config  WatchConfig
	dropDir string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changes before emitting
	pendingMu sync.Mutex
	pending   map[string]time.Time

	events chan BatchEvent

	droppedEvents atomic.Int64
}

// NewBatchWatcher creates a watcher over the given drop directory.
func NewBatchWatcher(config WatchConfig, dropDir string, logger *slog.Logger) (*BatchWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &BatchWatcher{
		config:  config,
		dropDir: dropDir,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]time.Time),
		events:  make(chan BatchEvent, eventChannelBuffer),
	}, nil
}

// Events returns the channel of batch events.
func (w *BatchWatcher) Events() <-chan BatchEvent {
	return w.events
}

// Start begins watching the drop directory.
func (w *BatchWatcher) Start(ctx context.Context) error {
	// Create drop directory if it doesn't exist
	if err := os.MkdirAll(w.dropDir, 0755); err != nil {
		return err
	}

	if err := w.watcher.Add(w.dropDir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Batch watcher started",
		"drop_dir", w.dropDir,
		"debounce", w.config.GetDebounceDelay())

	return nil
}

// Stop stops the watcher.
// The events channel is closed by processEvents when it exits.
func (w *BatchWatcher) Stop() error {
	return w.watcher.Close()
}

// DroppedEvents returns how many events were discarded because the event
// channel was full.
func (w *BatchWatcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

// processEvents handles fsnotify events with debouncing.
func (w *BatchWatcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.config.GetDebounceDelay())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent records a write to a batch file as pending.
func (w *BatchWatcher) handleFSEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if strings.ToLower(filepath.Ext(event.Name)) != ".json" {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] = time.Now()
	w.pendingMu.Unlock()
}

// flushPending emits events for files that have been quiet for a full
// debounce interval.
func (w *BatchWatcher) flushPending() {
	cutoff := time.Now().Add(-w.config.GetDebounceDelay())

	w.pendingMu.Lock()
	var ready []string
	for path, last := range w.pending {
		if last.Before(cutoff) {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	for _, path := range ready {
		// The file may already be gone (consumer moved it).
		if _, err := os.Stat(path); err != nil {
			continue
		}

		select {
		case w.events <- BatchEvent{Path: path}:
			w.logger.Debug("Batch file ready", "path", path)
		default:
			w.droppedEvents.Add(1)
			w.logger.Warn("Event channel full, dropping batch event", "path", path)
		}
	}
}
