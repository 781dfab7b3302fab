package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/componentregistry"
	"github.com/c360studio/semstreams/config"
	"github.com/c360studio/semstreams/metric"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/c360studio/semstreams/service"
	"github.com/c360studio/semstreams/types"
	"github.com/spf13/cobra"

	contentacquirer "github.com/c360studio/contentpipe/processor/content-acquirer"
)

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the content-acquirer as a NATS processor",
		Long: `Serve connects to NATS, ensures the ACQUIRE and CONTENT streams
exist, and runs the content-acquirer component until interrupted.
Acquisition requests arrive on acquire.request.>; chunked content units
are published to content.unit.chunk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (JSON)")

	return cmd
}

func serve(configPath string) error {
	logger := slog.Default()

	cfg, err := loadServeConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()
	natsClient, err := connectToNATS(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer natsClient.Close(ctx)

	if err := ensureStreams(ctx, cfg, natsClient, logger); err != nil {
		return err
	}

	slog.Info("Contentpipe ready", "version", Version)

	metricsRegistry := metric.NewMetricsRegistry()
	platform := extractPlatformMeta(cfg)

	// Config manager is required for component-manager to access component configs
	configManager, err := config.NewConfigManager(cfg, natsClient, logger)
	if err != nil {
		return fmt.Errorf("create config manager: %w", err)
	}
	if err := configManager.Start(ctx); err != nil {
		return fmt.Errorf("start config manager: %w", err)
	}
	defer configManager.Stop(5 * time.Second)

	componentRegistry := component.NewRegistry()

	slog.Debug("Registering semstreams component factories")
	if err := componentregistry.Register(componentRegistry); err != nil {
		return fmt.Errorf("register semstreams components: %w", err)
	}

	if err := contentacquirer.Register(componentRegistry); err != nil {
		return fmt.Errorf("register content-acquirer: %w", err)
	}

	factories := componentRegistry.ListFactories()
	slog.Info("Component factories registered", "count", len(factories))

	serviceRegistry := service.NewServiceRegistry()
	if err := service.RegisterAll(serviceRegistry); err != nil {
		return fmt.Errorf("register services: %w", err)
	}

	manager := service.NewServiceManager(serviceRegistry)
	ensureServiceManagerConfig(cfg)

	svcDeps := &service.Dependencies{
		NATSClient:        natsClient,
		MetricsRegistry:   metricsRegistry,
		Logger:            logger,
		Platform:          platform,
		Manager:           configManager,
		ComponentRegistry: componentRegistry,
	}

	if err := configureAndCreateServices(cfg, manager, svcDeps); err != nil {
		return err
	}

	slog.Info("All services configured")

	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	slog.Info("Starting all services")
	if err := manager.StartAll(signalCtx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}
	slog.Info("All services started successfully")

	// Block until shutdown signal
	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	shutdownTimeout := 30 * time.Second
	if err := manager.StopAll(shutdownTimeout); err != nil {
		slog.Error("Error stopping services", "error", err)
	}

	slog.Info("Contentpipe shutdown complete")
	return nil
}

func loadServeConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		// Load from file with environment variable substitution
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		expanded := config.ExpandEnvWithDefaults(string(data))

		loader := config.NewLoader()
		return loader.LoadFromBytes([]byte(expanded))
	}

	return buildDefaultServeConfig()
}

func buildDefaultServeConfig() (*config.Config, error) {
	acquirerConfig := contentacquirer.DefaultConfig()
	acquirerJSON, err := json.Marshal(acquirerConfig)
	if err != nil {
		return nil, fmt.Errorf("marshal acquirer config: %w", err)
	}

	return &config.Config{
		Version: "1.0.0",
		Platform: config.PlatformConfig{
			Org:         "contentpipe",
			ID:          "contentpipe-local",
			Environment: "dev",
		},
		NATS: config.NATSConfig{
			URLs:          []string{"nats://localhost:4222"},
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			JetStream: config.JetStreamConfig{
				Enabled: true,
			},
		},
		Services: types.ServiceConfigs{},
		Components: config.ComponentConfigs{
			"content-acquirer": types.ComponentConfig{
				Name:    "content-acquirer",
				Type:    types.ComponentTypeProcessor,
				Enabled: true,
				Config:  acquirerJSON,
			},
		},
		Streams: config.StreamConfigs{
			"ACQUIRE": config.StreamConfig{
				Subjects: []string{
					"acquire.request.>",
				},
				MaxAge:   "24h",
				Storage:  "memory",
				Replicas: 1,
			},
			"CONTENT": config.StreamConfig{
				Subjects: []string{
					"content.unit.>",
				},
				MaxAge:   "24h",
				Storage:  "memory",
				Replicas: 1,
			},
		},
	}, nil
}

func connectToNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	natsURLs := "nats://localhost:4222"

	// Environment variable override takes precedence
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		natsURLs = envURL
	} else if envURL := os.Getenv("CONTENTPIPE_NATS_URL"); envURL != "" {
		natsURLs = envURL
	} else if len(cfg.NATS.URLs) > 0 {
		natsURLs = strings.Join(cfg.NATS.URLs, ",")
	}

	logger.Info("Connecting to NATS", "url", natsURLs)

	client, err := natsclient.NewClient(natsURLs,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithCircuitBreakerThreshold(20), // Higher threshold for startup bursts
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, natsURLs)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, natsURLs)
	}

	logger.Info("Connected to NATS", "url", natsURLs)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	// Check for common connection errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker compose up -d nats

Or set NATS_URL environment variable to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

func ensureStreams(ctx context.Context, cfg *config.Config, natsClient *natsclient.Client, logger *slog.Logger) error {
	logger.Debug("Creating JetStream streams")
	streamsManager := config.NewStreamsManager(natsClient, logger)

	if err := streamsManager.EnsureStreams(ctx, cfg); err != nil {
		return fmt.Errorf("ensure streams: %w", err)
	}

	logger.Debug("JetStream streams ready")
	return nil
}

func extractPlatformMeta(cfg *config.Config) types.PlatformMeta {
	platformID := cfg.Platform.InstanceID
	if platformID == "" {
		platformID = cfg.Platform.ID
	}

	return types.PlatformMeta{
		Org:      cfg.Platform.Org,
		Platform: platformID,
	}
}

// ensureServiceManagerConfig ensures service-manager config exists with defaults
func ensureServiceManagerConfig(cfg *config.Config) {
	if cfg.Services == nil {
		cfg.Services = make(types.ServiceConfigs)
	}

	if _, exists := cfg.Services["service-manager"]; !exists {
		slog.Debug("Adding default service-manager config")
		defaultConfig := map[string]any{
			"http_port":  8080,
			"swagger_ui": false,
			"server_info": map[string]string{
				"title":       "Contentpipe API",
				"description": "topic content acquisition pipeline",
				"version":     Version,
			},
		}
		defaultConfigJSON, _ := json.Marshal(defaultConfig)
		cfg.Services["service-manager"] = types.ServiceConfig{
			Name:    "service-manager",
			Enabled: true,
			Config:  defaultConfigJSON,
		}
	}
}

// configureAndCreateServices configures the manager and creates all services
func configureAndCreateServices(
	cfg *config.Config,
	manager *service.Manager,
	svcDeps *service.Dependencies,
) error {
	slog.Debug("Configuring Manager")
	if err := manager.ConfigureFromServices(cfg.Services, svcDeps); err != nil {
		return fmt.Errorf("configure service manager: %w", err)
	}

	slog.Debug("Creating services from config", "count", len(cfg.Services))
	for name, svcConfig := range cfg.Services {
		if name == "service-manager" {
			slog.Debug("Skipping service-manager (configured directly)")
			continue
		}

		if !svcConfig.Enabled {
			slog.Info("Service disabled in config", "name", name)
			continue
		}

		if !manager.HasConstructor(name) {
			slog.Warn("Service configured but not registered", "key", name, "available_constructors", manager.ListConstructors())
			continue
		}

		if _, err := manager.CreateService(name, svcConfig.Config, svcDeps); err != nil {
			return fmt.Errorf("create service %s: %w", name, err)
		}

		slog.Info("Created service", "name", name, "config_name", svcConfig.Name)
	}

	return nil
}
