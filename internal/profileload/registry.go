package profileload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leaptoken/pkg/profile"
	"github.com/leapstack-labs/leaptoken/pkg/profiles"
)

// Source supplies profiles for a registry.
type Source interface {
	// SourceName identifies the source in logs.
	SourceName() string
	LoadProfiles(ctx context.Context) ([]*profile.Profile, error)
}

// BuiltinSource provides the built-in tables.
type BuiltinSource struct{}

// SourceName implements Source.
func (BuiltinSource) SourceName() string { return "builtin" }

// LoadProfiles implements Source.
func (BuiltinSource) LoadProfiles(context.Context) ([]*profile.Profile, error) {
	return profiles.Builtin(), nil
}

// DirSource loads YAML profile documents from a directory.
type DirSource struct {
	Dir string
}

// SourceName implements Source.
func (s DirSource) SourceName() string { return "dir:" + s.Dir }

// LoadProfiles implements Source.
func (s DirSource) LoadProfiles(context.Context) ([]*profile.Profile, error) {
	if s.Dir == "" {
		return nil, nil
	}
	return LoadDir(s.Dir)
}

// Build assembles a registry from sources in order. A profile from a later
// source replaces an earlier profile with the same name.
func Build(ctx context.Context, logger *slog.Logger, sources ...Source) (*profile.Registry, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var all []*profile.Profile
	for _, src := range sources {
		if src == nil {
			continue
		}
		loaded, err := src.LoadProfiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load profiles from %s: %w", src.SourceName(), err)
		}
		for _, p := range loaded {
			logger.Debug("loaded profile",
				slog.String("source", src.SourceName()),
				slog.String("language", p.Name()),
				slog.Int("entries", p.Len()),
				slog.String("fingerprint", p.Fingerprint()),
			)
			if dups := p.DuplicateCodes(); len(dups) > 0 {
				logger.Warn("profile has duplicate codes; reconstruction keeps the last pattern",
					slog.String("language", p.Name()),
					slog.Any("codes", dups),
				)
			}
		}
		all = append(all, loaded...)
	}
	return profile.NewRegistry(all...), nil
}
