package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env              string
	Port             string
	DatabaseURL      string
	RedisURL         string
	JWTSecret        string
	CORSAllowOrigins string
	LogLevel         string
	RateHistoryLimit int           // history rows returned per metal by GET /api/metals
	MetalsCacheTTL   time.Duration // 0 disables the metals listing cache
	DBIsolation      string        // default | read_committed | repeatable_read | serializable
	AutoMigrate      bool

	SeedAdminName     string
	SeedAdminCNIC     string
	SeedAdminPhone    string
	SeedAdminPassword string
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_HISTORY_LIMIT", 30)
	v.SetDefault("METALS_CACHE_TTL", "60s")
	v.SetDefault("DB_ISOLATION", "read_committed")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("SEED_ADMIN_NAME", "Administrator")
	v.SetDefault("SEED_ADMIN_CNIC", "1234567890123")
	v.SetDefault("SEED_ADMIN_PHONE", "03001234567")

	env := v.GetString("APP_ENV")
	if env == "" {
		env = v.GetString("NODE_ENV")
	}
	if env == "" {
		env = "development"
	}

	historyLimit := v.GetInt("RATE_HISTORY_LIMIT")
	if historyLimit <= 0 {
		historyLimit = 30
	}

	return &Config{
		Env:               env,
		Port:              v.GetString("PORT"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		RedisURL:          v.GetString("REDIS_URL"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		CORSAllowOrigins:  v.GetString("CORS_ALLOW_ORIGINS"),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		RateHistoryLimit:  historyLimit,
		MetalsCacheTTL:    v.GetDuration("METALS_CACHE_TTL"),
		DBIsolation:       strings.ToLower(strings.TrimSpace(v.GetString("DB_ISOLATION"))),
		AutoMigrate:       v.GetBool("AUTO_MIGRATE"),
		SeedAdminName:     v.GetString("SEED_ADMIN_NAME"),
		SeedAdminCNIC:     v.GetString("SEED_ADMIN_CNIC"),
		SeedAdminPhone:    v.GetString("SEED_ADMIN_PHONE"),
		SeedAdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),
	}, nil
}
