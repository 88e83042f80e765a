package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pkmn_guesser/internal/catalog"
	"pkmn_guesser/internal/config"
	"pkmn_guesser/internal/db"
	"pkmn_guesser/internal/engine"
	httpServer "pkmn_guesser/internal/http"
	"pkmn_guesser/internal/http/middleware"
	"pkmn_guesser/internal/logger"
	"pkmn_guesser/internal/repository"
	"pkmn_guesser/internal/service"
	"pkmn_guesser/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true")
	cfg := config.Load()
	service.InitJWT()

	// Document store: Redis when configured, in-process otherwise.
	// The memory store only syncs players on the same instance, which is
	// fine for local development.
	var docStore store.DocumentStore
	if cfg.RedisAddr != "" {
		rs, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("redis connect failed", "err", err)
		}
		defer rs.Close()
		docStore = rs
	} else {
		logger.Warn("REDIS_ADDR not set, using in-memory document store")
		docStore = store.NewMemoryStore()
	}

	// Match history needs Postgres; without DATABASE_URL the feature is off.
	var dbPool *pgxpool.Pool
	var matchRepo *repository.MatchRepository
	if cfg.DatabaseURL != "" {
		dbPool = db.Connect(cfg.DatabaseURL)
		defer dbPool.Close()
		matchRepo = repository.NewMatchRepository(dbPool)
	} else {
		logger.Warn("DATABASE_URL not set, match history disabled")
	}

	sessions := engine.NewManager(engine.Deps{
		Store:          docStore,
		Catalog:        catalog.NewClient(cfg.CatalogBaseURL),
		History:        matchRepo,
		SessionTimeout: cfg.SessionTimeout,
	})

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})
	r.Use(middleware.Metrics())

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, sessions, dbPool, docStore, cfg, version)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "err", err)
	}

	logger.Info("server exited")
}
