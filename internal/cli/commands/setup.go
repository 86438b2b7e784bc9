// Package commands implements the leaptoken subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptoken/internal/cli/output"
	"github.com/leapstack-labs/leaptoken/internal/config"
	"github.com/leapstack-labs/leaptoken/internal/profileload"
	"github.com/leapstack-labs/leaptoken/internal/profilestore"
	"github.com/leapstack-labs/leaptoken/pkg/lexsub"
	"github.com/leapstack-labs/leaptoken/pkg/profile"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    *profilestore.Store // nil unless profile_db is configured
	Registry *profile.Registry
	Engine   *lexsub.Engine
	Renderer *output.Renderer
}

// NewCommandContext opens the profile store (if configured), assembles the
// registry and creates the engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cc, err := newBaseContext(cmd)
	if err != nil {
		return nil, nil, err
	}

	if cc.Cfg.ProfileDB != "" {
		cc.Store, err = openStore(ctx, cc.Cfg.ProfileDB, cc.Logger)
		if err != nil {
			return nil, nil, err
		}
	}
	cleanup := func() {
		if cc.Store != nil {
			_ = cc.Store.Close()
		}
	}

	cc.Registry, err = BuildRegistry(ctx, cc.Cfg, cc.Store, cc.Logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cc.Engine = NewEngine(cc.Cfg, cc.Registry, cc.Logger)

	return cc, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without the
// registry or store. Useful for commands that only render.
func NewCommandContextWithoutEngine(cmd *cobra.Command) (*CommandContext, error) {
	return newBaseContext(cmd)
}

func newBaseContext(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.FromContext(ctx)
	if cfg == nil {
		// Commands executed outside the root command load their own config.
		var err error
		cfg, err = config.LoadConfig("", cmd.Flags())
		if err != nil {
			return nil, err
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}, nil
}

func openStore(ctx context.Context, path string, logger *slog.Logger) (*profilestore.Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create profile store directory: %w", err)
			}
		}
	}
	return profilestore.Open(ctx, path, logger)
}

// BuildRegistry layers built-in profiles, the YAML profiles directory and
// the store, in that order of increasing precedence.
func BuildRegistry(ctx context.Context, cfg *config.Config, store *profilestore.Store, logger *slog.Logger) (*profile.Registry, error) {
	sources := []profileload.Source{
		profileload.BuiltinSource{},
		profileload.DirSource{Dir: cfg.ProfilesDir},
	}
	if store != nil {
		sources = append(sources, store)
	}
	return profileload.Build(ctx, logger, sources...)
}

// NewEngine creates an engine configured from cfg.
func NewEngine(cfg *config.Config, reg *profile.Registry, logger *slog.Logger) *lexsub.Engine {
	return lexsub.New(reg,
		lexsub.WithPolicy(cfg.Policy),
		lexsub.WithDefaultLanguage(cfg.Language),
		lexsub.WithLogger(logger),
	)
}

// RequireStore returns the store or an error naming the missing setting.
func (cc *CommandContext) RequireStore(action string) (*profilestore.Store, error) {
	if cc.Store == nil {
		return nil, fmt.Errorf("%s requires a profile store (set --profile-db or profile_db in %s)", action, config.ConfigFileName)
	}
	return cc.Store, nil
}

// OpenStore opens the configured store for a command built without an
// engine. The caller closes it.
func (cc *CommandContext) OpenStore(ctx context.Context, action string) (*profilestore.Store, error) {
	if cc.Cfg.ProfileDB == "" {
		return cc.RequireStore(action)
	}
	store, err := openStore(ctx, cc.Cfg.ProfileDB, cc.Logger)
	if err != nil {
		return nil, err
	}
	cc.Store = store
	return store, nil
}

// RecordRun stores a run in the history when enabled. Failures are logged
// and never returned.
func (cc *CommandContext) RecordRun(ctx context.Context, run profilestore.Run) {
	if cc.Store == nil || !cc.Cfg.HistoryEnabled() {
		return
	}
	if _, err := cc.Store.RecordRun(ctx, run); err != nil {
		cc.Logger.Warn("failed to record run", slog.String("command", run.Command), slog.String("error", err.Error()))
	}
}
