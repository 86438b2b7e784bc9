package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptoken/internal/server"
	"github.com/leapstack-labs/leaptoken/pkg/profile"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tokenizer over HTTP",
		Long: `Start an HTTP API exposing tokenize, detokenize, render and the profile
registry as JSON endpoints.

Endpoints:
  GET  /healthz
  GET  /metrics
  GET  /v1/profiles
  GET  /v1/profiles/{name}
  POST /v1/tokenize
  POST /v1/detokenize
  POST /v1/render
  POST /v1/reload
  GET  /v1/events

With --watch, edits to YAML files in the profiles directory rebuild the
registry and swap it in without dropping requests.`,
		Example: `  # Serve on the default address
  leaptoken serve

  # Serve on all interfaces and reload profiles on change
  leaptoken serve --addr :8765 --watch

  # Limit each client to 5 requests per second
  leaptoken serve --rate-limit 5`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: 127.0.0.1:8765)")
	cmd.Flags().Bool("watch", false, "Reload profiles when the profiles directory changes")
	cmd.Flags().Duration("shutdown-timeout", 0, "Grace period for in-flight requests on shutdown (default: 5s)")
	cmd.Flags().Float64("rate-limit", 0, "Requests per second per client (0 disables)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cc.Cfg
	if cfg.Server.Watch {
		if err := os.MkdirAll(cfg.ProfilesDir, 0750); err != nil {
			return fmt.Errorf("failed to create profiles directory: %w", err)
		}
	}

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		Engine:          cc.Engine,
		DefaultLanguage: cfg.Language,
		Loader: func(ctx context.Context) (*profile.Registry, error) {
			return BuildRegistry(ctx, cfg, cc.Store, cc.Logger)
		},
		Watch:           cfg.Server.Watch,
		WatchDir:        cfg.ProfilesDir,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
		Logger:          cc.Logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := cc.Renderer
	r.Printf("Serving %d profiles on http://%s\n", cc.Registry.Len(), cfg.Server.Addr)
	if cfg.Server.Watch {
		r.Printf("Watching %s for profile changes\n", cfg.ProfilesDir)
	}
	r.Println("Press Ctrl+C to stop")

	started := time.Now()
	if err := srv.Serve(ctx); err != nil {
		return err
	}
	cc.Logger.Info("server stopped", "uptime", time.Since(started).Round(time.Second).String())
	return nil
}
