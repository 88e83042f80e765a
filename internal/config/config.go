package config

import (
	"os"
	"strconv"
	"time"

	"pkmn_guesser/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string // optional: match history is skipped when empty
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CatalogBaseURL string

	// Rooms older than this (by lastActivity) may be recycled by a joining player.
	SessionTimeout time.Duration

	GameRateLimit  int
	GameRateWindow int
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	catalogBaseURL := os.Getenv("CATALOG_BASE_URL")
	if catalogBaseURL == "" {
		catalogBaseURL = "https://pokeapi.co/api/v2"
	}

	sessionTimeout := 60 * time.Minute
	if v := os.Getenv("SESSION_TIMEOUT_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sessionTimeout = time.Duration(n) * time.Minute
		}
	}

	gameRateLimit := 60
	if v := os.Getenv("GAME_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			gameRateLimit = n
		}
	}

	gameRateWindow := 60
	if v := os.Getenv("GAME_RATE_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			gameRateWindow = n
		}
	}

	return &Config{
		AppPort:        port,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      jwtSecret,
		RedisAddr:      redisAddr,
		RedisPassword:  redisPassword,
		RedisDB:        redisDB,
		CatalogBaseURL: catalogBaseURL,
		SessionTimeout: sessionTimeout,
		GameRateLimit:  gameRateLimit,
		GameRateWindow: gameRateWindow,
	}
}
