package api

import (
	"os"
	"time"
)

// Config holds client configuration for the graph service.
type Config struct {
	// BaseURL is the root of the server API, without a trailing slash.
	BaseURL string

	// Timeout bounds a single HTTP exchange. Uploads get UploadTimeout.
	Timeout       time.Duration
	UploadTimeout time.Duration

	// PollInterval is the delay between topology progress polls.
	PollInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "http://localhost:5000",
		Timeout:       30 * time.Second,
		UploadTimeout: 2 * time.Minute,
		PollInterval:  time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back to
// defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if u := os.Getenv("GRASP_SERVER"); u != "" {
		cfg.BaseURL = u
	}
	if t := os.Getenv("GRASP_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.Timeout = d
		}
	}
	if t := os.Getenv("GRASP_POLL_INTERVAL"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.PollInterval = d
		}
	}

	return cfg
}
