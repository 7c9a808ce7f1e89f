// Package config loads faultline settings from the environment.
//
// All variables carry the FAULTLINE_ prefix. The zero configuration is
// usable: default policy, no outbox, console-level logging disabled.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/perimetric/faultline/pkg/faultline"
)

// EnvPrefix is the envconfig prefix for all settings.
const EnvPrefix = "FAULTLINE"

// Config is the full environment-derived configuration.
type Config struct {
	App     AppConfig
	Policy  PolicyConfig
	Outbox  OutboxConfig
	Webhook WebhookConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Policy.Sampling < 0 || cfg.Policy.Sampling > 1 {
		return nil, fmt.Errorf("sampling rate %v outside [0,1]", cfg.Policy.Sampling)
	}
	return &cfg, nil
}

// AppConfig carries host identification and logging settings.
type AppConfig struct {
	Environment string `envconfig:"FAULTLINE_ENVIRONMENT" default:"production"`
	LogLevel    string `envconfig:"FAULTLINE_LOG_LEVEL" default:"warn"`
}

// PolicyConfig mirrors the faultline.Policy surface.
type PolicyConfig struct {
	MinSeverity   string        `envconfig:"FAULTLINE_MIN_SEVERITY" default:"warning"`
	ReportHandled bool          `envconfig:"FAULTLINE_REPORT_HANDLED" default:"true"`
	Environments  []string      `envconfig:"FAULTLINE_ENVIRONMENTS"`
	Sampling      float64       `envconfig:"FAULTLINE_SAMPLING" default:"1.0"`
	RateLimitMax  int           `envconfig:"FAULTLINE_RATE_LIMIT_MAX" default:"50"`
	RateLimitWin  time.Duration `envconfig:"FAULTLINE_RATE_LIMIT_WINDOW" default:"1m"`
	DedupeWindow  time.Duration `envconfig:"FAULTLINE_DEDUPE_WINDOW" default:"5m"`
}

// OutboxConfig selects and locates the durable queue backend.
type OutboxConfig struct {
	// Backend is "fs", "sqlite", or "" to disable the outbox.
	Backend string `envconfig:"FAULTLINE_OUTBOX_BACKEND" default:"fs"`

	// Path is the record directory (fs) or database file (sqlite).
	Path string `envconfig:"FAULTLINE_OUTBOX_PATH" default:"faultline-outbox"`
}

// WebhookConfig configures the optional HTTP sink.
type WebhookConfig struct {
	URL     string        `envconfig:"FAULTLINE_WEBHOOK_URL"`
	Timeout time.Duration `envconfig:"FAULTLINE_WEBHOOK_TIMEOUT" default:"10s"`
}

// ToPolicy converts the flat environment surface into a faultline.Policy.
func (p PolicyConfig) ToPolicy() faultline.Policy {
	return faultline.Policy{
		MinSeverity:   faultline.ParseSeverity(p.MinSeverity),
		ReportHandled: p.ReportHandled,
		Environments:  p.Environments,
		SampleRate:    p.Sampling,
		RateLimit: faultline.RateLimitConfig{
			MaxEvents: p.RateLimitMax,
			Window:    p.RateLimitWin,
		},
		Dedupe: faultline.DedupeConfig{Window: p.DedupeWindow},
	}
}

// NewLogger builds the diagnostic logger writing to out at the given level.
// Unknown levels fall back to warn.
func NewLogger(out io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(out).With().Timestamp().Str("component", "faultline").Logger().Level(lvl)
}
