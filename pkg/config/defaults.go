package config

import (
	"strings"
	"time"

	"github.com/parca-dev/debuginfo-ingest/internal/bytesize"
	"github.com/parca-dev/debuginfo-ingest/pkg/api"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	applyMetricsDefaults(&cfg.Metrics)
	applyAPIDefaults(&cfg.Server)
	applyUploadDefaults(&cfg.Upload)
	applyBucketDefaults(&cfg.Bucket)
	applyDebuginfodDefaults(&cfg.Debuginfod)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyAPIDefaults(cfg *api.APIConfig) {
	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
}

// applyUploadDefaults mirrors the reference implementation's defaults: a 15
// minute upload window and a ~1GB size cap.
func applyUploadDefaults(cfg *UploadConfig) {
	if cfg.MaxDuration == 0 {
		cfg.MaxDuration = 15 * time.Minute
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = bytesize.ByteSize(1_000_000_000)
	}
}

func applyBucketDefaults(cfg *BucketConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
}

func applyDebuginfodDefaults(cfg *DebuginfodConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.PositiveTTL == 0 {
		cfg.PositiveTTL = 10 * time.Minute
	}
	if cfg.NegativeTTL == 0 {
		cfg.NegativeTTL = 30 * time.Second
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Bucket: BucketConfig{Type: "memory"},
	}
	ApplyDefaults(cfg)
	return cfg
}
