package lexsub

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaptoken/pkg/profile"
)

// Policy decides what the tokenizer does with lines no pattern matches.
type Policy int

const (
	// Passthrough emits the trimmed line unchanged. Line count is preserved.
	Passthrough Policy = iota
	// Drop omits unmatched lines from the output.
	Drop
)

// String returns the config-file spelling of the policy.
func (p Policy) String() string {
	switch p {
	case Passthrough:
		return "passthrough"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "passthrough" or "drop" (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "passthrough":
		return Passthrough, nil
	case "drop":
		return Drop, nil
	default:
		return Passthrough, fmt.Errorf("invalid policy %q (expected passthrough or drop)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarkerFunc builds the line emitted for a token that has no pattern.
// prefix is the profile's line comment prefix.
type MarkerFunc func(prefix, token string) string

// DefaultMarker renders "<prefix> UNKNOWN TOKEN: <token>".
func DefaultMarker(prefix, token string) string {
	return prefix + " UNKNOWN TOKEN: " + token
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the unmatched-line policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithMarker replaces the unknown-token marker format.
func WithMarker(fn MarkerFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.marker = fn
		}
	}
}

// WithDefaultLanguage sets the language used for records that name none.
func WithDefaultLanguage(language string) Option {
	return func(e *Engine) {
		e.defaultLanguage = language
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRegistry replaces the registry. Combined with WithOptions it swaps
// the profiles of a running engine without touching other settings.
func WithRegistry(r *profile.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}
