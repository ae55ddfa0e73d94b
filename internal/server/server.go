// Package server serves the admin interface over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/saint/admin"
	"github.com/syssam/saint/crud"
	"github.com/syssam/saint/dialect/sql"
	"github.com/syssam/saint/fm"
)

// Server is the admin HTTP server.
type Server struct {
	addr         string
	registry     *admin.Registry
	files        *fm.Manager
	stats        *sql.StatsDriver
	sessionStore *sessions.CookieStore
	logger       *slog.Logger
}

// Config holds the dependencies of the server.
type Config struct {
	Addr          string
	SessionSecret string
	// Registry must be booted.
	Registry *admin.Registry
	// Files is optional.
	Files *fm.Manager
	// Stats is optional. When set, the query statistics are served.
	Stats  *sql.StatsDriver
	Logger *slog.Logger
}

// New creates a new server. Without a session secret a random one is
// generated, so sessions do not survive a restart.
func New(cfg Config) *Server {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
	}
	sessionStore := sessions.NewCookieStore(secret)
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr:         cfg.Addr,
		registry:     cfg.Registry,
		files:        cfg.Files,
		stats:        cfg.Stats,
		sessionStore: sessionStore,
		logger:       logger,
	}
}

// Handler returns the router of the server.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	r.Get("/", s.Dashboard)
	r.Get("/_menu", s.Menu)
	if s.stats != nil {
		r.Get("/_stats", s.Stats)
	}
	if err := crud.SetupRoutes(r, s.registry, s.sessionStore, s.logger); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	if s.files != nil {
		r.Route(s.files.Prefix(), s.files.Routes)
	}
	return r, nil
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	s.logger.Info("starting admin server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:    s.addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down admin server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
