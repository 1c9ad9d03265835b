package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/parca-dev/debuginfo-ingest/internal/logger"
	"github.com/parca-dev/debuginfo-ingest/internal/telemetry"
	"github.com/parca-dev/debuginfo-ingest/pkg/api"
	"github.com/parca-dev/debuginfo-ingest/pkg/config"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/bucket"
	bucketmem "github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/bucket/memory"
	buckets3 "github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/bucket/s3"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/coordinator"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/debuginfod"
	storemem "github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/store/memory"
	"github.com/parca-dev/debuginfo-ingest/pkg/metrics"
	metricsprom "github.com/parca-dev/debuginfo-ingest/pkg/metrics/prometheus"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the upload-coordination server",
	Long: `Start the debuginfo-ingestd server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/debuginfo-ingest/config.yaml.

Examples:
  # Start with default config location
  debuginfo-ingestd start

  # Start with custom config
  debuginfo-ingestd start --config /etc/debuginfo-ingest/config.yaml

  # Override configuration via environment variable
  DEBUGINFO_INGEST_LOGGING_LEVEL=DEBUG debuginfo-ingestd start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "debuginfo-ingestd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "debuginfo-ingestd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("debuginfo-ingestd starting", "version", Version, "commit", Commit)
	logger.Info("log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	} else {
		logger.Info("profiling disabled")
	}

	objectBucket, err := newBucket(ctx, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to initialize bucket: %w", err)
	}
	logger.Info("object bucket initialized", "type", cfg.Bucket.Type)

	debuginfodClient := newDebuginfodClient(cfg.Debuginfod)
	if debuginfodClient != nil {
		logger.Info("debuginfod lookups enabled", "base_url", cfg.Debuginfod.BaseURL)
	} else {
		logger.Info("debuginfod lookups disabled, every build ID is treated as first-time-seen")
	}

	registry := prometheus.NewRegistry()
	var coordinatorMetrics metrics.CoordinatorMetrics
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		coordinatorMetrics = metricsprom.NewCoordinatorMetrics(registry)
		metricsServer = metrics.NewServer(cfg.Metrics.Port, registry)
		logger.Info("metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("metrics collection disabled")
	}

	c := coordinator.New(storemem.New(), objectBucket, debuginfodClient, coordinator.Config{
		MaxUploadDuration: cfg.Upload.MaxDuration,
		MaxUploadSize:     int64(cfg.Upload.MaxSize),
	}, coordinatorMetrics)

	serverDone := make(chan error, 2)
	running := 0

	if cfg.Server.IsEnabled() {
		apiServer := api.NewServer(cfg.Server, c)
		running++
		go func() { serverDone <- apiServer.Start(ctx) }()
		logger.Info("API server enabled", "port", apiServer.Port())
	} else {
		logger.Info("API server disabled")
	}

	if metricsServer != nil {
		running++
		go func() { serverDone <- metricsServer.Start(ctx) }()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("server is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		for i := 0; i < running; i++ {
			if err := <-serverDone; err != nil {
				logger.Error("server shutdown error", "error", err)
			}
		}
		logger.Info("server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		cancel()
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		logger.Info("server stopped")
	}

	return nil
}

func newBucket(ctx context.Context, cfg config.BucketConfig) (bucket.ObjectBucket, error) {
	switch cfg.Type {
	case "s3":
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg)
		return buckets3.New(client, cfg.Bucket, cfg.Prefix, buckets3.DefaultRetryConfig()), nil
	default:
		return bucketmem.New(), nil
	}
}

func newDebuginfodClient(cfg config.DebuginfodConfig) *debuginfod.Client {
	if cfg.BaseURL == "" {
		return nil
	}
	return debuginfod.New(debuginfod.Config{
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		PositiveTTL: cfg.PositiveTTL,
		NegativeTTL: cfg.NegativeTTL,
	})
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
