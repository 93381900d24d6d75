package server

import (
	"time"

	"github.com/modelshelf/modelshelf/pkg/constants"
)

// Config holds trigger server configuration.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Token is the bearer token required on /v1 routes. Empty disables
	// authentication.
	Token string

	// MaxBodyBytes limits request bodies.
	MaxBodyBytes int64

	// HTTP timeouts
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration

	// MetricsEnabled exposes /metrics.
	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		MaxBodyBytes:      constants.MaxRequestBodySize,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   constants.ShutdownTimeout,
		MetricsEnabled:    true,
	}
}
