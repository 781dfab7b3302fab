package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/contentpipe/acquire"
	"github.com/c360studio/contentpipe/config"
	"github.com/c360studio/contentpipe/fetch"
	"github.com/c360studio/contentpipe/llm"
	"github.com/c360studio/contentpipe/synthesis"
)

// pipeline bundles the locally wired acquisition stack and its cleanup.
type pipeline struct {
	orchestrator *acquire.Orchestrator
	fetcher      *fetch.Fetcher
	browser      *fetch.BrowserStrategy
}

func (p *pipeline) Close() {
	if p.browser != nil {
		if err := p.browser.Close(); err != nil {
			slog.Warn("Failed to close browser", "error", err)
		}
	}
}

// buildPipeline wires fetcher, synthesizer, and orchestrator from the
// layered YAML config.
func buildPipeline(cfg *config.Config) (*pipeline, error) {
	logger := slog.Default()

	var strategies []fetch.Strategy
	p := &pipeline{}

	if cfg.Browser.Enabled {
		p.browser = fetch.NewBrowserStrategy(fetch.BrowserConfig{
			PoolSize:    cfg.Browser.PoolSize,
			SettleDelay: cfg.Browser.SettleDelay,
			Timeout:     cfg.Fetch.Timeout,
			Headless:    cfg.Browser.Headless,
		}, logger)
		strategies = append(strategies, p.browser)
	}

	strategies = append(strategies, fetch.NewStaticStrategy(fetch.StaticConfig{
		UserAgent: cfg.Fetch.UserAgent,
	}, logger))

	p.fetcher = fetch.New(strategies,
		fetch.WithMinContentLength(cfg.Fetch.MinContentLength),
		fetch.WithLogger(logger))

	client := llm.NewClient(llm.Endpoint{
		Provider: cfg.Model.Provider,
		Model:    cfg.Model.Model,
		URL:      cfg.Model.Endpoint,
	}, llm.WithTimeout(cfg.Model.Timeout), llm.WithLogger(logger))

	synth := synthesis.New(client,
		synthesis.WithLogger(logger),
		synthesis.WithTemperature(cfg.Model.Temperature))

	p.orchestrator = acquire.NewOrchestrator(p.fetcher, synth,
		acquire.WithConcurrency(cfg.Acquire.Concurrency),
		acquire.WithSkipPatterns(cfg.Fetch.SkipPatterns),
		acquire.WithLogger(logger))

	return p, nil
}

func loadYAMLConfig() (*config.Config, error) {
	return config.NewLoader(slog.Default()).Load()
}

func acquireCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "acquire <batch.json>",
		Short: "Acquire content for a topic batch file",
		Long: `Acquire reads a JSON topic batch, fetches every topic's resources,
and writes the resulting content units as JSON. Topics with nothing
fetchable get a model-generated overview.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadYAMLConfig()
			if err != nil {
				return err
			}

			topics, err := acquire.LoadTopics(args[0])
			if err != nil {
				return err
			}

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, err := p.orchestrator.AcquireAll(ctx, topics)
			if err != nil {
				return err
			}

			return writeResult(result, outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write result JSON to file (default: stdout)")

	return cmd
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch and extract a single page",
		Long: `Fetch retrieves one URL through the configured strategies and prints
the extracted text. Exits non-zero when no strategy produced substantial
content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadYAMLConfig()
			if err != nil {
				return err
			}

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			text, ok := p.fetcher.Fetch(ctx, args[0])
			if !ok {
				return fmt.Errorf("no strategy produced substantial content for %s", args[0])
			}

			fmt.Println(text)
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch a drop directory for topic batch files",
		Long: `Watch monitors the configured drop directory. Every settled *.json
batch file is acquired and its result written to the output directory as
<batch-id>.json; the input file is removed afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadYAMLConfig()
			if err != nil {
				return err
			}

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			return runWatch(cfg, p)
		},
	}
}

func runWatch(cfg *config.Config, p *pipeline) error {
	logger := slog.Default()

	if err := os.MkdirAll(cfg.Acquire.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	watchConfig := acquire.WatchConfig{
		Enabled:       true,
		DebounceDelay: cfg.Acquire.DebounceDelay.String(),
	}

	watcher, err := acquire.NewBatchWatcher(watchConfig, cfg.Acquire.DropDir, logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	logger.Info("Watching for topic batches",
		"drop_dir", cfg.Acquire.DropDir,
		"output_dir", cfg.Acquire.OutputDir)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped")
			return nil

		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if err := processBatchFile(ctx, p, cfg.Acquire.OutputDir, event.Path); err != nil {
				logger.Error("Failed to process batch", "path", event.Path, "error", err)
			}
		}
	}
}

func processBatchFile(ctx context.Context, p *pipeline, outputDir, path string) error {
	logger := slog.Default()

	topics, err := acquire.LoadTopics(path)
	if err != nil {
		return err
	}

	result, err := p.orchestrator.AcquireAll(ctx, topics)
	if err != nil {
		return err
	}

	outPath := filepath.Join(outputDir, result.BatchID+".json")
	if err := writeResult(result, outPath); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		logger.Warn("Failed to remove processed batch file", "path", path, "error", err)
	}

	logger.Info("Batch processed",
		"input", path,
		"output", outPath,
		"units", len(result.Units),
		"fetched", result.Fetched,
		"generated", result.Generated)

	return nil
}

func writeResult(result *acquire.Result, outputPath string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if outputPath == "" || outputPath == "-" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	slog.Info("Result written", "path", outputPath)
	return nil
}
