package config

import (
	"time"

	"github.com/leapstack-labs/leaptoken/pkg/profiles"
)

// Default configuration values.
const (
	DefaultLanguage        = profiles.DefaultLanguage
	DefaultPolicy          = "passthrough"
	DefaultProfilesDir     = "profiles"
	DefaultOutputDir       = "."
	DefaultOutput          = "auto"
	DefaultServerAddr      = "127.0.0.1:8765"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultRateBurst       = 10
)

func defaults() map[string]any {
	return map[string]any{
		"language":                DefaultLanguage,
		"policy":                  DefaultPolicy,
		"profiles_dir":            DefaultProfilesDir,
		"profile_db":              "",
		"output_dir":              DefaultOutputDir,
		"output":                  DefaultOutput,
		"verbose":                 false,
		"history":                 false,
		"server.addr":             DefaultServerAddr,
		"server.watch":            false,
		"server.shutdown_timeout": DefaultShutdownTimeout.String(),
		"server.rate_limit":       0,
		"server.rate_burst":       DefaultRateBurst,
	}
}
