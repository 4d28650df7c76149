// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
)

// Detector modes.
const (
	DetectorSimulated = "simulated"
	DetectorHTTP      = "http"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// QueueSize bounds the in-memory detection queue.
	QueueSize int `koanf:"queue_size" validate:"gt=0"`

	// WorkerCount sets the number of detection workers.
	WorkerCount int `koanf:"worker_count" validate:"gt=0"`

	// DedupeSize bounds the idempotency cache; 0 disables eviction.
	DedupeSize int `koanf:"dedupe_size" validate:"gte=0"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit and match lists.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit" validate:"gt=0"`

	// MaxQueryLimit caps listing and profile query results.
	MaxQueryLimit int `koanf:"max_query_limit" validate:"gt=0"`

	// DetectorMode is simulated or http.
	DetectorMode string `koanf:"detector_mode" validate:"oneof=simulated http"`

	// DetectorURL is the endpoint for http mode.
	DetectorURL string `koanf:"detector_url" validate:"required_if=DetectorMode http,omitempty,url"`

	// DetectorAPIKey is sent as a bearer token in http mode.
	DetectorAPIKey string `koanf:"detector_api_key"`

	// DetectorTimeoutMS bounds one detector call.
	DetectorTimeoutMS int `koanf:"detector_timeout_ms" validate:"gt=0"`

	// DetectorRatePerSec and DetectorBurst pace outbound detector calls.
	// A zero rate disables pacing.
	DetectorRatePerSec float64 `koanf:"detector_rate_per_sec" validate:"gte=0"`
	DetectorBurst      int     `koanf:"detector_burst" validate:"gte=0"`

	// DetectorLatencyMinMS and DetectorLatencyMaxMS bound simulated latency.
	DetectorLatencyMinMS int `koanf:"detector_latency_min_ms" validate:"gte=0"`
	DetectorLatencyMaxMS int `koanf:"detector_latency_max_ms" validate:"gtefield=DetectorLatencyMinMS"`

	// BeautyThreshold is the overall score at or above which a camel is
	// labelled beautiful.
	BeautyThreshold float64 `koanf:"beauty_threshold" validate:"gte=0,lte=100"`

	// StorePath selects the SQLite database file; empty keeps data in memory.
	StorePath string `koanf:"store_path"`

	// WeightProfiles adds named weight tables next to the built-in ones.
	WeightProfiles map[string]map[string]float64 `koanf:"weight_profiles"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU() * 4,
		DedupeSize:           100_000,
		MaxLeaderboardLimit:  100,
		MaxQueryLimit:        500,
		DetectorMode:         DetectorSimulated,
		DetectorTimeoutMS:    10_000,
		DetectorRatePerSec:   0,
		DetectorBurst:        1,
		DetectorLatencyMinMS: 80,
		DetectorLatencyMaxMS: 150,
		BeautyThreshold:      75,
	}
}

// DetectorTimeout returns the detector call timeout.
func (c *Config) DetectorTimeout() time.Duration {
	return time.Duration(c.DetectorTimeoutMS) * time.Millisecond
}

// DetectorLatency returns the simulated detector latency range.
func (c *Config) DetectorLatency() (time.Duration, time.Duration) {
	return time.Duration(c.DetectorLatencyMinMS) * time.Millisecond,
		time.Duration(c.DetectorLatencyMaxMS) * time.Millisecond
}

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // shared, goroutine-safe validator

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for name, weights := range c.WeightProfiles {
		if len(weights) == 0 {
			return fmt.Errorf("%w: weight profile %q is empty", ErrInvalidConfig, name)
		}
	}
	return nil
}
