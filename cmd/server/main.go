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
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/blinko/backend/internal/admin"
	"github.com/blinko/backend/internal/api"
	"github.com/blinko/backend/internal/config"
	"github.com/blinko/backend/internal/database"
	"github.com/blinko/backend/internal/game"
	"github.com/blinko/backend/internal/migrations"
	"github.com/blinko/backend/internal/redis"
	"github.com/blinko/backend/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres is optional: without it rounds are not written to the ledger.
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			log.Println("[MIGRATE] Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := admin.LoadRuntimeConfig(db, cfg); err != nil {
			log.Printf("[CONFIG] Runtime config not applied: %v", err)
		}
	} else {
		log.Println("[DB] DATABASE_URL not set; round ledger disabled")
	}

	var rdb *goredis.Client
	var store game.SessionStore
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		store = game.NewRedisSessionStore(rdb, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	} else {
		log.Println("[REDIS] REDIS_URL not set; sessions kept in memory")
		store = game.NewMemorySessionStore()
	}

	physics, err := game.PhysicsConfigFrom(cfg)
	if err != nil {
		log.Fatalf("Invalid table configuration: %v", err)
	}
	table, err := game.Configure(physics)
	if err != nil {
		log.Fatalf("Invalid table configuration: %v", err)
	}
	log.Printf("[ROUND] Table ready: %d pegs in %d rows, %d bins, policy=%s",
		len(table.Field.Pegs), table.Field.Rows, len(table.Bins.Bins()), table.Config.Policy)

	manager := game.NewManager(table, store, db, rdb, cfg)
	hub := ws.NewHub()
	manager.SetEventSink(hub.Sink)

	go manager.Run(ctx)
	game.StartIdleWorker(ctx, manager, rdb, cfg)
	ws.StartEventSubscriber(ctx, rdb, hub)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, manager, hub, db, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting Blinko server on port %s", port)
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
}
