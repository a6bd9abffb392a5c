// Package server exposes the policy assistant over HTTP: a JSON ask
// endpoint, a WebSocket chat, the policy list, health and metrics.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ziadkadry99/policy-bot/internal/assistant"
	"github.com/ziadkadry99/policy-bot/internal/logging"
	"github.com/ziadkadry99/policy-bot/internal/policy"
)

// Asker answers policy questions.
type Asker interface {
	Ask(ctx context.Context, query string) (*assistant.Answer, error)
}

// Config holds server configuration.
type Config struct {
	Addr       string
	AllowAll   bool          // allow all CORS origins (dev mode)
	AskTimeout time.Duration // per-question deadline, default 60s

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Logger *slog.Logger
}

// Server is the HTTP front end of a policy assistant session.
type Server struct {
	cfg        Config
	asker      Asker
	registry   *policy.Registry
	metrics    *serverMetrics
	validate   *validator.Validate
	log        *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server answering with asker and listing reg.
func New(cfg Config, asker Asker, reg *policy.Registry) *Server {
	if cfg.AskTimeout <= 0 {
		cfg.AskTimeout = 60 * time.Second
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		asker:    asker,
		registry: reg,
		metrics:  newServerMetrics(cfg.Registerer),
		validate: validator.New(),
		log:      cfg.Logger,
	}
	s.router = s.buildRouter()

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.withLogger)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
		corsOpts.AllowCredentials = false
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.AskTimeout))
		r.Get("/api/policies", s.handlePolicies)
		r.Post("/api/ask", s.handleAsk)
	})

	// Long-lived; no request timeout.
	r.Get("/ws/chat", s.handleWebSocket)

	return r
}

// withLogger puts the server logger, tagged with the request ID, on the
// request context.
func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.log.With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), l)))
	})
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured address. After Shutdown it
// returns http.ErrServerClosed.
func (s *Server) Start() error {
	s.log.Info("policybot server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server. It is safe to call before or
// concurrently with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
