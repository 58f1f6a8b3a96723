package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"metallix-backend/internal/config"
	"metallix-backend/internal/infrastructure/database"
	"metallix-backend/internal/interfaces/router"
	"metallix-backend/internal/pkg/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logger.Setup(cfg.LogLevel, cfg.IsProduction())
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set; authenticated routes will reject every token")
	}

	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}

	// Verify connections before serving.
	if db != nil {
		if err := (&database.Pinger{DB: db}).Ping(); err != nil {
			log.Fatal().Err(err).Msg("Postgres connection failed")
		}
		log.Info().Msg("Postgres connected")
		if cfg.AutoMigrate {
			if err := database.AutoMigrate(db); err != nil {
				log.Fatal().Err(err).Msg("migration failed")
			}
			log.Info().Msg("schema migrated")
		}
	} else {
		log.Warn().Msg("DATABASE_URL not set; only /health is served")
	}
	if rdb != nil {
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		log.Info().Msg("Redis connected")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msgf("Server running at http://localhost:%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
