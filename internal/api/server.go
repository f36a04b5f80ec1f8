// Package api exposes sync, dashboard, and export operations over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config configures the HTTP server.
type Config struct {
	Logger         *slog.Logger
	Addr           string
	CronSecret     string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		RequestTimeout: 2 * time.Minute,
	}
}

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, config Config) *chi.Mux {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(config.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderUserID, HeaderSyncToken},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Sheet scripts authenticate with a sync token instead of a user id.
		r.Post("/sheets/sync", h.PushSync)

		r.With(requireCronSecret(config.CronSecret)).Get("/cron/sync", h.CronSync)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Post("/sheets/pull", h.PullSync)
			r.Route("/sheets/connect", func(r chi.Router) {
				r.Get("/", h.GetConnection)
				r.Post("/", h.Connect)
				r.Delete("/", h.Disconnect)
			})

			r.Route("/sync-tokens", func(r chi.Router) {
				r.Get("/", h.ListSyncTokens)
				r.Post("/", h.CreateSyncToken)
				r.Delete("/{id}", h.RevokeSyncToken)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/summary", h.Summary)
				r.Get("/trends", h.Trends)
				r.Get("/alerts", h.Alerts)
			})
			r.Post("/alerts/{id}/read", h.MarkAlertRead)

			r.Get("/export", h.Export)
		})
	})

	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, h *Handler, config Config) error {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := &http.Server{
		Addr:              config.Addr,
		Handler:           NewRouter(h, config),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
