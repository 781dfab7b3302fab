// Package main provides the contentpipe binary entry point.
// Contentpipe acquires web content for topic batches, with model-generated
// fallback material for topics nothing could be fetched for.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/c360studio/contentpipe/llm/providers"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "contentpipe"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Topic content acquisition pipeline",
		Long: `Contentpipe turns topic batches into content units.

For every topic it fetches the listed resource URLs (headless browser
first, plain HTTP as fallback) and extracts the page text. Topics whose
resources all fail get a model-generated overview instead, marked as
"AI Generated" so consumers can tell the difference.

Run it as a NATS processor (serve), against a single batch file
(acquire), or watching a drop directory (watch).`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(acquireCmd())
	cmd.AddCommand(fetchCmd())
	cmd.AddCommand(watchCmd())

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func configureLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
