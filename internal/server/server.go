// Package server exposes the substitution engine over HTTP.
//
// The current engine is held behind an atomic pointer. A reload builds a
// new registry and swaps the engine in one step; requests that already
// loaded the previous engine finish against it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leaptoken/pkg/lexsub"
	"github.com/leapstack-labs/leaptoken/pkg/profile"
)

// DefaultShutdownTimeout bounds graceful shutdown when Config leaves it unset.
const DefaultShutdownTimeout = 5 * time.Second

// reloadDebounce coalesces bursts of file events into one reload.
const reloadDebounce = 100 * time.Millisecond

// ErrNoLoader is returned by Reload when the server was built without a Loader.
var ErrNoLoader = errors.New("server has no profile loader")

// Loader builds a fresh profile registry.
type Loader func(ctx context.Context) (*profile.Registry, error)

// Config holds server configuration.
type Config struct {
	Addr            string
	Engine          *lexsub.Engine
	DefaultLanguage string // used when a request names no language
	Loader          Loader
	Watch           bool
	WatchDir        string
	ShutdownTimeout time.Duration
	RateLimit       float64 // requests per second per client, 0 disables
	RateBurst       int
	Logger          *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	addr            string
	defaultLanguage string
	loader          Loader
	watch           bool
	watchDir        string
	shutdownTimeout time.Duration
	rateLimit       float64
	rateBurst       int
	logger          *slog.Logger

	engine     atomic.Pointer[lexsub.Engine]
	generation atomic.Uint64
	reloadMu   sync.Mutex

	notifier *Notifier
	metrics  *Metrics
}

// New creates a server. A nil Engine serves the empty registry.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	shutdown := cfg.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = DefaultShutdownTimeout
	}
	eng := cfg.Engine
	if eng == nil {
		eng = lexsub.New(nil)
	}

	s := &Server{
		addr:            cfg.Addr,
		defaultLanguage: cfg.DefaultLanguage,
		loader:          cfg.Loader,
		watch:           cfg.Watch,
		watchDir:        cfg.WatchDir,
		shutdownTimeout: shutdown,
		rateLimit:       cfg.RateLimit,
		rateBurst:       cfg.RateBurst,
		logger:          logger,
		notifier:        NewNotifier(),
		metrics:         NewMetrics(),
	}
	s.engine.Store(eng)
	s.metrics.profilesLoaded.Set(float64(eng.Registry().Len()))
	return s
}

// Engine returns the engine currently serving requests.
func (s *Server) Engine() *lexsub.Engine {
	return s.engine.Load()
}

// Generation counts successful reloads.
func (s *Server) Generation() uint64 {
	return s.generation.Load()
}

// Notifier returns the reload notifier.
func (s *Server) Notifier() *Notifier {
	return s.notifier
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Reload rebuilds the registry with the Loader and swaps it in. On error
// the current registry stays in place.
func (s *Server) Reload(ctx context.Context) error {
	if s.loader == nil {
		return ErrNoLoader
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	reg, err := s.loader(ctx)
	if err != nil {
		s.metrics.reloadsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to reload profiles: %w", err)
	}

	s.engine.Store(s.Engine().WithOptions(lexsub.WithRegistry(reg)))
	gen := s.generation.Add(1)

	s.metrics.reloadsTotal.WithLabelValues("ok").Inc()
	s.metrics.profilesLoaded.Set(float64(reg.Len()))
	s.logger.Info("profiles reloaded",
		slog.Uint64("generation", gen),
		slog.Int("profiles", reg.Len()),
	)
	s.notifier.Broadcast(gen)
	return nil
}

// Handler builds the router. ctx bounds background work owned by the
// middleware chain.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		s.metrics.Middleware,
	)
	if s.rateLimit > 0 {
		r.Use(RateLimiter(ctx, s.rateLimit, s.rateBurst))
	}

	s.routes(r)
	return r
}

// Serve listens on the configured address until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting API server", slog.String("addr", "http://"+ln.Addr().String()))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(egctx),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchProfiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(egctx), s.shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchProfiles reloads the registry when YAML documents in the watch
// directory change.
func (s *Server) watchProfiles(ctx context.Context) error {
	if s.watchDir == "" {
		return nil
	}
	if _, err := os.Stat(s.watchDir); err != nil {
		s.logger.Warn("profile watch disabled", slog.String("dir", s.watchDir), slog.String("error", err.Error()))
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.watchDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.watchDir, err)
	}
	s.logger.Debug("watching profiles", slog.String("dir", s.watchDir))

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isProfileEvent(event) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(reloadDebounce, func() {
				s.logger.Debug("profile changed, reloading", slog.String("file", event.Name))
				if err := s.Reload(ctx); err != nil {
					s.logger.Error("reload failed", slog.String("error", err.Error()))
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}

func isProfileEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
