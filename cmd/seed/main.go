package main

import (
	"context"

	"metallix-backend/internal/config"
	"metallix-backend/internal/infrastructure/database"
	"metallix-backend/internal/pkg/logger"

	"github.com/rs/zerolog/log"
)

// Migrates the schema, then inserts the metal catalogue and the admin user.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logger.Setup(cfg.LogLevel, cfg.IsProduction())
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	err = database.Seed(context.Background(), db, database.DefaultMetals, database.SeedAdmin{
		Name:     cfg.SeedAdminName,
		CNIC:     cfg.SeedAdminCNIC,
		Phone:    cfg.SeedAdminPhone,
		Password: cfg.SeedAdminPassword,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
	log.Info().Msg("Database seeded successfully")
}
