// Package config loads leaptoken configuration.
//
// Values are layered with koanf, lowest to highest precedence: built-in
// defaults, leaptoken.yaml, LEAPTOKEN_* environment variables, and
// explicitly set command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leaptoken/pkg/lexsub"
)

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Watch           bool          `koanf:"watch"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimit       float64       `koanf:"rate_limit"` // requests/second per client, 0 = unlimited
	RateBurst       int           `koanf:"rate_burst"`
}

// Config holds all configuration options.
type Config struct {
	Language     string        `koanf:"language"`
	Policy       lexsub.Policy `koanf:"policy"`
	ProfilesDir  string        `koanf:"profiles_dir"`
	ProfileDB    string        `koanf:"profile_db"` // empty disables the store
	OutputDir    string        `koanf:"output_dir"`
	OutputFormat string        `koanf:"output"`
	Verbose      bool          `koanf:"verbose"`
	History      bool          `koanf:"history"`
	Server       ServerConfig  `koanf:"server"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `koanf:"-"`
	// ProjectRoot anchors relative paths.
	ProjectRoot string `koanf:"-"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Language == "" {
		return fmt.Errorf("language is required")
	}
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("unknown output format %q (expected auto, text, markdown or json)", c.OutputFormat)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}
	return nil
}

// HistoryEnabled reports whether runs should be recorded in the store.
func (c *Config) HistoryEnabled() bool {
	return c.History && c.ProfileDB != ""
}
