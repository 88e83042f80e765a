package db

import (
	"context"
	"time"

	"pkmn_guesser/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens the match-history pool. Gameplay runs entirely off the
// document store; Postgres only records finished matches, so the pool is
// kept small and a broken DATABASE_URL fails fast at startup.
func Connect(dsn string) *pgxpool.Pool {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Fatal("invalid database url", "error", err)
	}
	if cfg.MaxConns > 4 {
		cfg.MaxConns = 4
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to create database pool", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", "error", err)
	}

	logger.Info("database connected", "max_conns", cfg.MaxConns)
	return pool
}
