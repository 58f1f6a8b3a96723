package bootstrap

import (
	"net/http"

	"metallix-backend/internal/config"
	"metallix-backend/internal/interfaces/router"
	"metallix-backend/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for Vercel serverless (api handler imports this package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.LogLevel, true)
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}

// NewHandler wraps New as a net/http handler.
func NewHandler() (http.Handler, error) {
	app, err := New()
	if err != nil {
		return nil, err
	}
	return router.Handler(app), nil
}
