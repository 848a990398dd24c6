package main

import (
	"database/sql"
	"net/http"

	"storefront-be/internal/api"
	"storefront-be/internal/billing"
	"storefront-be/internal/cache"
	"storefront-be/internal/cashregister"
	"storefront-be/internal/config"
	"storefront-be/internal/coupon"
	"storefront-be/internal/db"
	"storefront-be/internal/finance"
	"storefront-be/internal/logger"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/realtime"
	"storefront-be/internal/storefront"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = http.ListenAndServe
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	var redisClient *cache.Client
	if cfg.RedisURL != "" {
		c, err := cache.Initialize(cfg.RedisURL)
		if err != nil {
			logger.L().Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			redisClient = c
			defer redisClient.Close()
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := newServer(cfg, database, redisClient)

	logger.L().Info("server running", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
	return startServerFunc(":"+cfg.AppPort, handler)
}

// newServer wires repositories and services into the HTTP stack. A nil
// redis client keeps billing uncached and order changes in-process.
func newServer(cfg *config.Config, database *sql.DB, redisClient *cache.Client) http.Handler {
	stores := storefront.NewRepository(database)

	enforcer := billing.NewEnforcer(database)
	var changes realtime.Broker = realtime.NewLocalBroker()
	if redisClient != nil {
		enforcer = billing.NewCachedEnforcer(enforcer, redisClient, cfg.BillingCacheTTL)
		changes = realtime.NewRedisBroker(redisClient)
	}

	registers := cashregister.NewService(cashregister.NewRepository(database), stores)
	orders := order.NewService(order.NewRepository(database), stores, enforcer,
		order.WithPublisher(changes),
	)
	summaries := finance.NewService(finance.NewRepository(database), stores, registers)

	h := api.NewHandler(api.Deps{
		Orders:    orders,
		Registers: registers,
		Finance:   summaries,
		Stores:    stores,
		Coupons:   coupon.NewRepository(database),
		Changes:   changes,
		DB:        database,
	})
	return setupRouter(cfg, h)
}

func setupRouter(cfg *config.Config, h *api.Handler) http.Handler {
	var handler http.Handler = api.NewRouter(h, cfg.CORSAllowedOrigins)
	handler = middleware.RateLimitMiddleware(cfg.InternalSecretKey)(handler)
	handler = middleware.AuthMiddleware(cfg.JWTSecret)(handler)
	handler = middleware.LoggingMiddleware(handler)
	return logger.RequestIDMiddleware(handler)
}
