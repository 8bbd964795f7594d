package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chris/audio-market-settlement/pkg/api"
	"github.com/chris/audio-market-settlement/pkg/bootstrap"
	"github.com/chris/audio-market-settlement/pkg/config"
	"github.com/chris/audio-market-settlement/pkg/handlers"
	"github.com/chris/audio-market-settlement/pkg/logger"
	"github.com/chris/audio-market-settlement/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to a YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	slogger := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.New(ctx, cfg, slogger)
	if err != nil {
		log.Fatalf("Failed to initialise services: %v", err)
	}
	defer svc.Close()

	sched, err := svc.Scheduler(ctx)
	if err != nil {
		log.Fatalf("Failed to initialise payment event queue: %v", err)
	}
	if sched == nil {
		slogger.Warn("SQS_QUEUE_URL not set, gateway webhooks settle inline")
	}

	handler := handlers.NewApiHandler(handlers.Deps{
		Engine:        svc.Engine,
		Store:         svc.Store,
		Distributor:   svc.Distributor,
		Scheduler:     sched,
		WebhookSecret: cfg.Webhook.Secret,
	})

	router := chi.NewRouter()
	router.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(middleware.Authenticate([]byte(cfg.JWT.Secret), cfg.JWT.AdminRole, slogger))
	router.Use(middleware.NewStructuredLogger(slogger))
	router.Handle("/metrics", promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{}))

	api.HandlerWithOptions(handler, api.ChiServerOptions{
		BaseRouter:       router,
		ErrorHandlerFunc: handlers.ParamError,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slogger.Error("graceful shutdown failed", "error", err)
		}
	}()

	slogger.Info("starting server", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	slogger.Info("server stopped")
}
