package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
)

const bearerScheme = "bearer"

// bearerAuth marks an operation as requiring a Supabase access token.
var bearerAuth = []map[string][]string{{bearerScheme: {}}}

// Services groups everything the handlers delegate to.
type Services struct {
	Chat     ChatService
	Vision   VisionService
	Research ResearchService
	TTS      TTSService
	STT      STTService
	Health   HealthReporter
}

// Server is the public HTTP surface: a chi router with a huma API on top.
type Server struct {
	cfg        config.ServerConfig
	router     *chi.Mux
	api        huma.API
	httpServer *http.Server
	limiter    *limiter
}

// NewServer builds the router, middleware stack and every operation.
func NewServer(cfg config.ServerConfig, version string, authn backend.Authenticator, svc Services) *Server {
	s := &Server{
		cfg:     cfg,
		router:  chi.NewRouter(),
		limiter: newLimiter(cfg.RateLimit),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logRequests)
	s.router.Use(middleware.Recoverer)
	s.router.Use(recordMetrics)
	s.router.Use(corsMiddleware(cfg.CORSOrigins))

	s.router.Handle("/metrics", promhttp.Handler())

	humaConfig := huma.DefaultConfig("toolguide API", version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		bearerScheme: {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	s.api = humachi.New(s.router, humaConfig)
	s.api.UseMiddleware(authMiddleware(s.api, authn))
	s.api.UseMiddleware(rateLimitMiddleware(s.api, s.limiter))

	maxBody := int64(cfg.MaxUploadMB) << 20

	NewHealthHandler(s.api, svc.Health, version)
	NewAuthHandler(s.api)
	NewChatHandler(s.api, svc.Chat, maxBody)
	NewToolsHandler(s.api, svc.Vision, svc.Research, maxBody)
	NewResearchHandler(s.api, svc.Research)
	NewTTSHandler(s.api, svc.TTS)
	NewSTTHandler(s.api, svc.STT, maxBody)

	return s
}

// API exposes the huma API, mostly for tests and OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured port until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.HTTPPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	slog.Info("Shutting down HTTP server", "timeout", timeout)
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return nil
}

// SetRateLimit replaces the rate limit, e.g. after a config reload.
func (s *Server) SetRateLimit(cfg config.RateLimitConfig) {
	s.limiter.configure(cfg)
}
