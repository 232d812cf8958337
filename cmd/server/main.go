package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airstream/internal/media"
	"airstream/internal/platform/config"
	"airstream/internal/platform/logger"
	"airstream/internal/platform/metrics"
	"airstream/internal/platform/youtube"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	provider := config.GetEnv("PROVIDER_NAME", "YouTube")
	upstreamTimeout := config.GetEnvDuration("UPSTREAM_TIMEOUT", media.DefaultInfoTimeout)
	allowedHosts := config.GetEnvList("ALLOWED_HOSTS", media.DefaultAllowedHosts)
	staticDir := config.GetEnv("STATIC_DIR", "")

	log := logger.New(logLevel, logFormat)

	// No client timeout: it would cap the length of every download. Info
	// fetches are bounded by UPSTREAM_TIMEOUT and downloads by the request context.
	extractor := youtube.New(&http.Client{})
	svc := media.NewService(extractor, media.NewValidator(allowedHosts), upstreamTimeout)
	met := metrics.New()
	h := media.NewHandler(svc, provider, log, met)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", met.Handler())
	r.Get("/healthz", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/info", h.GetInfo)
		r.Post("/info", h.GetInfo)
		r.Get("/download", h.Download)
	})
	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}

	addr := ":" + port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"provider", provider,
		"allowed_hosts", allowedHosts,
		"upstream_timeout", upstreamTimeout.String(),
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
