// Package server exposes the workspace over HTTP for the dashboard.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/KaramelBytes/qdata-clean/internal/analysis"
	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/KaramelBytes/qdata-clean/internal/export"
	"github.com/KaramelBytes/qdata-clean/internal/metrics"
	"github.com/KaramelBytes/qdata-clean/internal/workspace"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Config holds the server settings.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	RatePerMinute  int
	RateBurst      int
	CORSOrigins    []string
	ChartMaxPoints int
	DefaultOptions []cleaning.Option
	Export         export.Options
}

// Server is the HTTP API over a workspace.
type Server struct {
	router   *chi.Mux
	ws       *workspace.Workspace
	pipeline *cleaning.Pipeline
	limiter  *RateLimiter
	cfg      Config
	clock    clockwork.Clock
	logger   *slog.Logger
	srv      *http.Server
}

// New creates a server. A nil clock uses the real clock.
func New(cfg Config, ws *workspace.Workspace, pipeline *cleaning.Pipeline, clock clockwork.Clock, logger *slog.Logger) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.ChartMaxPoints <= 0 {
		cfg.ChartMaxPoints = analysis.DefaultChartPoints
	}
	s := &Server{
		router:   chi.NewRouter(),
		ws:       ws,
		pipeline: pipeline,
		limiter:  NewRateLimiter(cfg.RatePerMinute, cfg.RateBurst, clock),
		cfg:      cfg,
		clock:    clock,
		logger:   logger,
	}
	s.setupRoutes()
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/options", s.handleOptions)
		r.Get("/uploads", s.handleListUploads)
		r.With(s.limiter.Middleware).Post("/uploads", s.handleUpload)
		r.Route("/uploads/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetUpload)
			r.Delete("/", s.handleDeleteUpload)
			r.Get("/profile", s.handleProfile)
			r.With(s.limiter.Middleware).Post("/clean", s.handleClean)
			r.Get("/stats", s.handleStats)
			r.Get("/chart", s.handleChart)
			r.Get("/export", s.handleExport)
		})
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", s.clock.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return s.srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
