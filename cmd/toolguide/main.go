package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/backend/gemini"
	"github.com/ekisa-team/toolguide/internal/backend/supabase"
	"github.com/ekisa-team/toolguide/internal/backend/tavily"
	"github.com/ekisa-team/toolguide/internal/backend/yarngpt"
	"github.com/ekisa-team/toolguide/internal/config"
	"github.com/ekisa-team/toolguide/internal/env"
	"github.com/ekisa-team/toolguide/internal/logger"
	"github.com/ekisa-team/toolguide/internal/model"
	httpserver "github.com/ekisa-team/toolguide/internal/server/http"
	"github.com/ekisa-team/toolguide/internal/service"
	"github.com/ekisa-team/toolguide/internal/telemetry"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		flagHTTPPort   = flag.Int("http-port", 0, "HTTP port to listen on (overrides config)")
		flagConfigPath = flag.String("config", path.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
		flagSchemaPath = flag.String("schema", "", "Path to schema file (defaults to the embedded schema)")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	environment := env.FromEnv()
	slog.SetDefault(logger.New(environment))

	reloads := make(chan *config.Config, 1)
	watcher, err := config.NewWatcher(*flagConfigPath, *flagSchemaPath, func(cfg *config.Config, err error) {
		if err != nil {
			slog.Error("Failed to reload config", "error", err)
			return
		}

		// Keep only the newest config if the previous one is still pending.
		select {
		case <-reloads:
		default:
		}
		reloads <- cfg
	})
	if err != nil {
		slog.Error("Failed to create config watcher", "error", err)
		return 1
	}
	defer watcher.Close()

	snapshot := *watcher.Snapshot()
	cfg := &snapshot
	if *flagHTTPPort > 0 {
		cfg.Server.HTTPPort = *flagHTTPPort
	}

	slog.SetDefault(logger.New(environment,
		logger.WithLevel(logger.ParseLevel(cfg.Logging.Level)),
		logger.WithFormat(cfg.Logging.Format),
		logger.WithLogToFile(cfg.Logging.ToFile),
		logger.WithLogFile(cfg.Logging.File),
		logger.WithRotation(cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups, cfg.Logging.MaxAgeDays),
	))

	if cfg.Tracing.Enabled {
		tp, err := telemetry.NewTracerProvider(cfg.Tracing.ServiceName, version)
		if err != nil {
			slog.Error("Failed to start tracing", "error", err)
			return 1
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				slog.Warn("Failed to flush traces", "error", err)
			}
		}()
	}

	// Vendor credentials are read once; reloads only reroute models.
	backends := newBackends(cfg)
	manager := model.NewManager(backends)
	defer func() {
		if err := backends.Close(); err != nil {
			slog.Warn("Failed to close backends", "error", err)
		}
	}()

	if err := manager.LoadModelsFromConfig(context.Background(), cfg); err != nil {
		slog.Error("Failed to load models from config", "error", err)
		return 1
	}

	slog.Info("Config loaded successfully",
		"config", *flagConfigPath,
		"providers", backends.Providers(),
		"routes", manager.Routes(),
	)

	vision := service.NewVision(backends, manager)

	var authn backend.Authenticator
	if a, err := backends.Authenticator(backend.ProviderSupabase); err == nil {
		authn = a
	} else {
		slog.Warn("Authentication is not configured, protected routes will return 503", "error", err)
	}

	srv := httpserver.NewServer(cfg.Server, version, authn, httpserver.Services{
		Chat:     service.NewChat(backends, manager, vision),
		Vision:   vision,
		Research: service.NewResearch(backends, manager, cfg.Research.MaxResults),
		TTS:      service.NewTTS(backends, manager, cfg.Speech.Bucket),
		STT:      service.NewSTT(backends, manager, cfg.Transcription),
		Health:   manager,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go applyReloads(ctx, reloads, manager, srv)

	if err := srv.ListenAndServe(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
		return 1
	}

	slog.Info("Server stopped")
	return 0
}

func applyReloads(ctx context.Context, reloads <-chan *config.Config, manager *model.Manager, srv *httpserver.Server) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-reloads:
			if err := manager.LoadModelsFromConfig(ctx, cfg); err != nil {
				slog.Error("Failed to load models from config", "error", err)
				continue
			}
			srv.SetRateLimit(cfg.Server.RateLimit)
			slog.Info("Config reloaded", "routes", manager.Routes())
		}
	}
}

// newBackends registers every vendor that has credentials. Vendors without
// credentials are skipped and the models routed to them become unavailable.
func newBackends(cfg *config.Config) *backend.Registry {
	registry := backend.NewRegistry()

	register := func(b backend.Backend, err error, provider backend.Provider) {
		switch {
		case errors.Is(err, backend.ErrNotConfigured):
			slog.Warn("Vendor is not configured, skipping", "provider", provider, "error", err)
			return
		case err != nil:
			slog.Error("Failed to create vendor backend", "provider", provider, "error", err)
			return
		}

		if err := registry.Register(b); err != nil {
			slog.Error("Failed to register vendor backend", "provider", provider, "error", err)
		}
	}

	g, err := gemini.NewBackend(cfg.Providers.Gemini)
	register(g, err, backend.ProviderGemini)

	y, err := yarngpt.NewBackend(cfg.Providers.YarnGPT)
	register(y, err, backend.ProviderYarnGPT)

	t, err := tavily.NewBackend(cfg.Providers.Tavily)
	register(t, err, backend.ProviderTavily)

	s, err := supabase.NewBackend(cfg.Providers.Supabase)
	register(s, err, backend.ProviderSupabase)

	return registry
}
