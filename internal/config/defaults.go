package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/sky-flux/cadence"
)

// DefaultDBPath is ~/.cadence/cadence.db, or a relative path when the home
// directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cadence", "cadence.db")
	}
	return filepath.Join(home, ".cadence", "cadence.db")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "cadence",
			Version: "dev",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Storage: StorageConfig{
			Path: DefaultDBPath(),
		},
		Study: StudyConfig{
			Intervals:        slices.Clone(cadence.DefaultIntervals),
			CramMode:         false,
			UseAdaptive:      true,
			DesiredRetention: cadence.DefaultRetention,
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8420,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Endpoint:   "localhost:4317",
			Timeout:    5 * time.Second,
			Sampler:    "ratio",
			SampleRate: 0.1,
		},
	}
}
