package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cueladder/backend/internal/api"
	"github.com/cueladder/backend/internal/challenge"
	"github.com/cueladder/backend/internal/config"
	"github.com/cueladder/backend/internal/database"
	"github.com/cueladder/backend/internal/events"
	"github.com/cueladder/backend/internal/ladder"
	"github.com/cueladder/backend/internal/match"
	"github.com/cueladder/backend/internal/migrations"
	"github.com/cueladder/backend/internal/redis"
	"github.com/cueladder/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Worker/subscriber contexts end on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Outbound events: process log, Redis pub/sub, activity log
	sink := events.NewMultiSink(
		events.NewLogSink(),
		events.NewRedisSink(rdb),
		events.NewDBSink(db),
	)

	// Wire the engine: ranks, live matches, challenge lifecycle
	ranks := ladder.NewStore(db, cfg, sink)
	matches := match.NewManager(rdb)
	lifecycle := challenge.NewLifecycle(db, cfg, ranks, sink, matches)
	matches.SetResolver(lifecycle)
	matches.StartCleanup(ctx)

	// Housekeeping sweeper forfeits expired challenges
	sweeper := challenge.NewSweeper(db, lifecycle, time.Duration(cfg.SweepIntervalMinutes)*time.Minute)
	sweeper.Start(ctx)

	// Websocket fan-out of ladder events
	hub := ws.NewHub()
	ws.StartEventSubscriber(ctx, rdb, hub)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, &api.Deps{
		DB:        db,
		RDB:       rdb,
		Config:    cfg,
		Ranks:     ranks,
		Lifecycle: lifecycle,
		Matches:   matches,
		Sweeper:   sweeper,
		Hub:       hub,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting CueLadder server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
