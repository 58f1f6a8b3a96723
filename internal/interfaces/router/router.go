package router

import (
	"net/http"

	dashboardsvc "metallix-backend/internal/application/dashboard"
	"metallix-backend/internal/application/ledgerevents"
	offersvc "metallix-backend/internal/application/offers"
	paymentsvc "metallix-backend/internal/application/payments"
	purchasesvc "metallix-backend/internal/application/purchases"
	ratesvc "metallix-backend/internal/application/rates"
	"metallix-backend/internal/auth"
	"metallix-backend/internal/config"
	"metallix-backend/internal/constants"
	"metallix-backend/internal/infrastructure/cache"
	"metallix-backend/internal/infrastructure/database"
	adminhandler "metallix-backend/internal/interfaces/handlers/admin"
	healthhandler "metallix-backend/internal/interfaces/handlers/health"
	metalshandler "metallix-backend/internal/interfaces/handlers/metals"
	offershandler "metallix-backend/internal/interfaces/handlers/offers"
	payhandler "metallix-backend/internal/interfaces/handlers/payments"
	purchasehandler "metallix-backend/internal/interfaces/handlers/purchases"
	"metallix-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp opens the stores named in cfg and builds the Fiber app.
// Without DATABASE_URL only the health endpoint is mounted.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	rdb, err := cache.Open(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	app, err := NewApp(cfg, db, rdb)
	if err != nil {
		return nil, nil, nil, err
	}
	return app, db, rdb, nil
}

// NewApp builds the Fiber app on already opened handles. db and rdb may be nil.
func NewApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(helmet.New())
	app.Use(middleware.CORS(cfg.CORSAllowOrigins))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.HealthMarker(rdb))

	hh := &healthhandler.Handlers{Rdb: rdb}
	if db != nil {
		hh.DB = &database.Pinger{DB: db}
	}
	app.Get("/health", hh.JSON)

	if db == nil {
		return app, nil
	}

	tx, err := database.NewCoordinator(db, cfg.DBIsolation)
	if err != nil {
		return nil, err
	}
	authn := middleware.RequireAuth(&auth.GormUserFinder{DB: db}, cfg.JWTSecret)

	hg := app.Group("/health", authn, middleware.AuthorizePermission(constants.ManageHealth))
	hg.Get("/errors", hh.Errors)
	hg.Post("/reset", hh.Reset)

	api := app.Group("/api")

	// Metals and rates
	rs := &ratesvc.Service{
		DB:           db,
		Tx:           tx,
		Cache:        &cache.JSON{Rdb: rdb, TTL: cfg.MetalsCacheTTL},
		HistoryLimit: cfg.RateHistoryLimit,
	}
	mh := &metalshandler.Handlers{Service: rs}
	api.Get("/metals", mh.List)
	api.Get("/metals/:id/history", mh.History)
	api.Put("/metals/rates", authn, middleware.AuthorizePermission(constants.UpdateRates), mh.UpdateRates)

	// Purchases
	ph := &purchasehandler.Handlers{Service: &purchasesvc.Service{DB: db, Tx: tx}}
	pg := api.Group("/purchases", authn, middleware.AuthorizePermission(constants.TradeMetals))
	pg.Post("/", ph.Create)
	pg.Get("/my-purchases", ph.Mine)
	pg.Get("/:id", ph.Get)
	pg.Post("/:id/sell", ph.Sell)

	// Payments
	payh := &payhandler.Handlers{Service: &paymentsvc.Service{DB: db, Tx: tx}}
	payg := api.Group("/payments", authn)
	payg.Get("/my-payments", middleware.AuthorizePermission(constants.ViewOwnPayments), payh.Mine)
	payg.Get("/", middleware.AuthorizePermission(constants.ViewAllPayments), payh.All)
	payg.Get("/:id", middleware.AuthorizePermission(constants.ViewOwnPayments), payh.Get)
	payg.Put("/:id/status", middleware.AuthorizePermission(constants.SettlePayments), payh.UpdateStatus)

	// Offers
	oh := &offershandler.Handlers{Service: &offersvc.Service{DB: db}}
	api.Get("/offers", oh.List)

	// Admin
	ah := &adminhandler.Handlers{
		Dashboard: &dashboardsvc.Service{DB: db},
		Events:    &ledgerevents.Service{DB: db},
	}
	ag := api.Group("/admin", authn)
	ag.Get("/dashboard", middleware.AuthorizePermission(constants.ViewDashboard), ah.GetDashboard)
	ag.Get("/ledger-events", middleware.AuthorizePermission(constants.ViewLedgerEvents), ah.ListEvents)

	return app, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
