// Package main is the entry point for the bandsite API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bandsite/internal/cache"
	"bandsite/internal/config"
	"bandsite/internal/database"
	"bandsite/internal/handlers"
	"bandsite/internal/notify"
	"bandsite/internal/router"
	"bandsite/internal/scheduler"
	"bandsite/internal/social"
	"bandsite/internal/storage"
	"bandsite/internal/store"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load a local .env when present; real deployments set the environment.
	godotenv.Load()

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the default site document (no-op if one exists).
	if err := database.Seed(db); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (Redis-compatible cache). Optional — the payload
	// cache degrades to hitting Postgres on every read.
	var payloadCache handlers.PayloadCache
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Warn("valkey unavailable, site-data caching disabled", "error", err)
	} else {
		defer valkeyClient.Close()
		payloadCache = cache.NewDocumentCache(valkeyClient, cache.DefaultDocumentTTL)
	}

	// Initialize data stores.
	documentStore := store.NewDocumentStore(db)
	reservationStore := store.NewReservationStore(db, cfg.ReservationDedupeWindow)
	xpostStore := store.NewXPostStore(db)

	// Connect to S3-compatible object storage (optional — app works without
	// it, image upload and serving return errors).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured — image uploads disabled")
	}

	// Reservation notifications. Each channel is independently optional.
	events := notify.NewEventPublisher(cfg.AMQPURL)
	notifier := notify.New(cfg.LineChannelToken, cfg.LineTo, cfg.NotifyWebhookURL, events, logger)

	// X posting pipeline, only with a full OAuth 1.0a credential set.
	var announcer handlers.Announcer
	var schedules handlers.Schedules
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HasXCredentials() {
		client := social.NewClient(social.Credentials{
			ConsumerKey:       cfg.XConsumerKey,
			ConsumerSecret:    cfg.XConsumerSecret,
			AccessToken:       cfg.XAccessToken,
			AccessTokenSecret: cfg.XAccessTokenSecret,
		})
		publisher := social.NewPublisher(client, logger)
		announcer = publisher

		sched := scheduler.New(xpostStore, publisher,
			cfg.ScheduleMinLead, cfg.ScheduleBatchSize, cfg.SchedulerInterval, logger)
		schedules = sched
		go sched.Run(ctx)
	} else {
		slog.Warn("x credentials not configured — posting endpoints disabled")
	}

	// Create handler groups with their dependencies.
	publicHandlers := handlers.NewPublic(documentStore, reservationStore, payloadCache, notifier, cfg.ReservationQuantityCap)
	adminHandlers := handlers.NewAdmin(documentStore, reservationStore, xpostStore,
		announcer, schedules, payloadCache, storageClient, cfg.PublicOrigin)
	imageHandlers := handlers.NewImages(storageClient)
	ogCardHandlers := handlers.NewOGCards(documentStore, cfg.PublicOrigin)

	// Set up the Chi router with all middleware and routes.
	r := router.New(publicHandlers, adminHandlers, imageHandlers, ogCardHandlers, router.Options{
		AdminToken:     cfg.AdminToken,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Create the HTTP server with sensible timeouts. WriteTimeout covers the
	// posting endpoints, which wait on the X API plus a flyer fetch.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	<-ctx.Done()
	slog.Info("shutdown signal received")

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
