// Package config provides configuration management for cadence.
package config

import (
	"slices"
	"time"

	"github.com/sky-flux/cadence/internal/logger"
	"github.com/sky-flux/cadence/internal/metrics"
	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/telemetry"
)

// Config is the full cadence configuration.
type Config struct {
	App     AppConfig     `mapstructure:"app" validate:"required"`
	Log     LogConfig     `mapstructure:"log" validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`

	// Study seeds the stored settings of a fresh database.
	Study StudyConfig `mapstructure:"study"`

	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// AppConfig holds application metadata.
type AppConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Version string `mapstructure:"version"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	Output string `mapstructure:"output" validate:"required"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// StudyConfig mirrors model.Settings.
type StudyConfig struct {
	Intervals        []int   `mapstructure:"intervals" validate:"required,min=1,dive,min=1,max=3650"`
	CramMode         bool    `mapstructure:"cram_mode"`
	UseAdaptive      bool    `mapstructure:"use_adaptive"`
	DesiredRetention float64 `mapstructure:"desired_retention" validate:"retention,gte=0.7,lte=0.97"`
}

// ServerConfig configures the REST API started by serve.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps" validate:"gte=0"` // 0 disables limiting
	RateLimitBurst int           `mapstructure:"rate_limit_burst" validate:"gte=0"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"startswith=/"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Endpoint   string        `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Sampler    string        `mapstructure:"sampler" validate:"oneof=always_on always_off ratio"`
	SampleRate float64       `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// LoggerConfig converts to the logger package's configuration.
func (c LogConfig) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:  logger.ParseLevel(c.Level),
		Format: c.Format,
		Output: c.Output,
	}
}

// Settings converts to the study settings stored for a new database.
func (c StudyConfig) Settings() model.Settings {
	return model.Settings{
		Intervals:        slices.Clone(c.Intervals),
		CramMode:         c.CramMode,
		UseAdaptive:      c.UseAdaptive,
		DesiredRetention: c.DesiredRetention,
	}
}

// ManagerConfig converts to the metrics package's configuration.
func (c MetricsConfig) ManagerConfig() metrics.Config {
	cfg := metrics.DefaultConfig()
	cfg.Enabled = c.Enabled
	cfg.Path = c.Path
	return cfg
}

// TelemetryConfig converts to the telemetry package's configuration.
func (c TracingConfig) TelemetryConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:    c.Enabled,
		Endpoint:   c.Endpoint,
		Timeout:    c.Timeout,
		Sampler:    c.Sampler,
		SampleRate: c.SampleRate,
	}
}
