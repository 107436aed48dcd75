// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"vouchersync/internal/domain/auth"
	"vouchersync/internal/domain/destination"
	"vouchersync/internal/domain/dispatch"
	"vouchersync/internal/domain/history"
	"vouchersync/internal/domain/rates"
	"vouchersync/internal/domain/source"
	"vouchersync/internal/domain/submission"
	"vouchersync/internal/infrastructure/http/v1/handlers"
	"vouchersync/internal/infrastructure/http/v1/middleware"
	"vouchersync/internal/infrastructure/storage/postgres"
	"vouchersync/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool *postgres.Pool

	Logger *logger.Logger

	AuthService  *auth.Service
	JWTValidator middleware.JWTValidator

	Registry     *destination.Registry
	Orchestrator *submission.Service
	Dispatcher   *dispatch.Service
	History      *history.Service
	Source       source.Client
	Rates        rates.Provider
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	// API v1
	api := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(cfg.AuthService)
		api.POST("/auth/login", authHandler.Login)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		syncHandler := handlers.NewSyncHandler(cfg.Registry, cfg.Orchestrator, cfg.Dispatcher, cfg.History)
		protected.POST("/sync/:destination", syncHandler.Submit)

		vouchersHandler := handlers.NewVouchersHandler(cfg.Source)
		protected.GET("/vouchers", vouchersHandler.List)

		historyHandler := handlers.NewHistoryHandler(cfg.History)
		protected.GET("/history", historyHandler.List)
		protected.GET("/history/export", historyHandler.Export)

		ratesHandler := handlers.NewRatesHandler(cfg.Rates)
		protected.GET("/rates/convert", ratesHandler.Convert)
	}

	return router
}
