package http

import (
	"os"
	"strconv"
	"time"

	"pkmn_guesser/internal/config"
	"pkmn_guesser/internal/engine"
	"pkmn_guesser/internal/http/handlers"
	"pkmn_guesser/internal/http/middleware"
	"pkmn_guesser/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, sessions *engine.Manager, db *pgxpool.Pool, st store.DocumentStore, cfg *config.Config, version string) {
	h := handlers.NewHandler(sessions, db)
	healthHandler := handlers.NewHealthHandler(db, st, version)

	// read limits from env, with safe defaults
	apiRateLimit := 60
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 10
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute
	if v := os.Getenv("AUTH_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateWindow = time.Duration(n) * time.Second
		}
	}

	// per-IP limiter: Redis-backed when available, in-process otherwise
	ipRL := middleware.RedisRateLimit(apiRateLimit, apiRateWindow)
	authRL := middleware.RedisRateLimit(authRateLimit, authRateWindow)
	if cfg.RedisAddr == "" {
		ipRL = middleware.SimpleRateLimit(apiRateLimit, apiRateWindow)
		authRL = middleware.SimpleRateLimit(authRateLimit, authRateWindow)
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(ipRL)
	registerAPIRoutes(v1, h, cfg, authRL)

	// Legacy /api routes (kept for older clients)
	api := r.Group("/api")
	api.Use(ipRL)
	api.GET("/health", healthHandler.Health)
	registerAPIRoutes(api, h, cfg, authRL)

	// WebSocket event stream
	r.GET("/ws", h.WS())

	// Frontend static files
	r.StaticFS("/assets", gin.Dir("../frontend", false))
	r.NoRoute(func(c *gin.Context) {
		c.File("../frontend/index.html")
	})
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, cfg *config.Config, authRL gin.HandlerFunc) {
	// Auth (anonymous identity)
	api.POST("/auth", authRL, h.Auth)

	// Game rate limiter middleware (per player, not per IP)
	gameRL := middleware.GameRateLimit(cfg.GameRateLimit, time.Duration(cfg.GameRateWindow)*time.Second)
	// room creation is throttled harder to keep the code space from churning
	roomRL := middleware.GameRateLimitByAction("room_create", 10, time.Minute)

	// Session lifecycle
	api.POST("/game/mode", middleware.JWT(), h.SelectMode)
	api.POST("/game/reset", middleware.JWT(), h.Reset)
	api.GET("/game/state", middleware.JWT(), h.State)

	// Local (pass-and-play)
	api.POST("/game/local/start", middleware.JWT(), gameRL, h.StartLocal)

	// Online rooms
	api.POST("/game/room", middleware.JWT(), roomRL, h.CreateRoom)
	api.POST("/game/room/join", middleware.JWT(), gameRL, h.JoinRoom)
	api.POST("/game/room/recover", middleware.JWT(), h.Recover)
	api.POST("/game/room/region", middleware.JWT(), h.SetRegion)

	// Moves
	api.POST("/game/secret", middleware.JWT(), gameRL, h.SelectSecret)
	api.POST("/game/question", middleware.JWT(), gameRL, h.SendQuestion)
	api.POST("/game/answer", middleware.JWT(), gameRL, h.AnswerQuestion)
	api.POST("/game/filter", middleware.JWT(), gameRL, h.ApplyFilter)
	api.POST("/game/guess", middleware.JWT(), gameRL, h.MakeGuess)
	api.POST("/game/turn/end", middleware.JWT(), gameRL, h.EndTurn)
	api.POST("/game/rematch", middleware.JWT(), gameRL, h.Rematch)

	// Board display
	api.POST("/game/board/toggle", middleware.JWT(), h.ToggleCandidate)
	api.POST("/game/board/visibility", middleware.JWT(), h.ToggleVisibility)
	api.POST("/game/filters/select", middleware.JWT(), h.SelectFilter)

	// Match history
	api.GET("/me/matches", middleware.JWT(), h.MyMatches)
}
