// Package main is the entry point for the voucher sync API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vouchersync/internal/domain/auth"
	"vouchersync/internal/domain/destination"
	"vouchersync/internal/domain/dispatch"
	"vouchersync/internal/domain/history"
	"vouchersync/internal/domain/numbering"
	"vouchersync/internal/domain/submission"
	"vouchersync/internal/infrastructure/cloud"
	v1 "vouchersync/internal/infrastructure/http/v1"
	"vouchersync/internal/infrastructure/storage/postgres"
	"vouchersync/pkg/logger"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting vouchersync server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Destinations ---
	registry, err := destination.NewRegistry(
		destination.Config{
			Name:        destination.IndiaSales,
			URL:         mustEnv("INDIA_SALES_URL"),
			AuthHeader:  getEnv("INDIA_AUTH_HEADER", "auth-token"),
			AuthToken:   mustEnv("INDIA_AUTH_TOKEN"),
			SuccessCode: getEnv("INDIA_SALES_SUCCESS_CODE", "200"),
		},
		destination.Config{
			Name:        destination.IndiaReturn,
			URL:         mustEnv("INDIA_RETURN_URL"),
			AuthHeader:  getEnv("INDIA_AUTH_HEADER", "auth-token"),
			AuthToken:   mustEnv("INDIA_AUTH_TOKEN"),
			SuccessCode: getEnv("INDIA_RETURN_SUCCESS_CODE", "200"),
		},
		destination.Config{
			Name:         destination.NepalSales,
			URL:          mustEnv("NEPAL_SALES_URL"),
			AuthHeader:   getEnv("NEPAL_AUTH_HEADER", "auth-token"),
			AuthToken:    mustEnv("NEPAL_AUTH_TOKEN"),
			SuccessCode:  getEnv("NEPAL_SALES_SUCCESS_CODE", "101"),
			Numbered:     true,
			NumberPrefix: getEnv("NEPAL_SALES_PREFIX", "AQNS"),
			VoucherType:  "sales",
		},
		destination.Config{
			Name:                 destination.NepalPurchase,
			URL:                  mustEnv("NEPAL_PURCHASE_URL"),
			AuthHeader:           getEnv("NEPAL_AUTH_HEADER", "auth-token"),
			AuthToken:            mustEnv("NEPAL_AUTH_TOKEN"),
			SuccessCode:          getEnv("NEPAL_PURCHASE_SUCCESS_CODE", "101"),
			ReuseSourceInvoiceNo: true,
		},
	)
	if err != nil {
		log.Fatalw("invalid destination configuration", "error", err)
	}

	// --- Core services ---
	cloudClient := cloud.NewClient(getEnvDuration("SUBMIT_TIMEOUT", cloud.DefaultTimeout))

	nepalSales, _ := registry.Get(destination.NepalSales)
	allocator := numbering.NewAllocator(
		postgres.NewCounterRepo(txManager),
		postgres.NewLedgerRepo(txManager),
		postgres.NewAdvisoryLocker(pool),
		txManager,
		numbering.DefaultConfig(nepalSales.NumberPrefix),
	)

	orchestrator := submission.NewService(allocator, cloudClient)
	dispatcher := dispatch.NewService(cloudClient)

	historyRepo, err := postgres.NewHistoryRepo(txManager)
	if err != nil {
		log.Fatalw("failed to initialize history repo", "error", err)
	}
	historyService := history.NewService(historyRepo)

	sourceClient := cloud.NewSourceClient(
		mustEnv("SOURCE_API_URL"),
		getEnv("SOURCE_AUTH_HEADER", "auth-token"),
		mustEnv("SOURCE_AUTH_TOKEN"),
		getEnvDuration("SOURCE_TIMEOUT", cloud.DefaultTimeout),
	)

	ratesClient := cloud.NewRatesClient(
		mustEnv("RATES_API_URL"),
		getEnvDuration("RATES_TIMEOUT", cloud.DefaultTimeout),
	)

	// --- Auth ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))
	authService := auth.NewService(loadAdmins(log), jwtService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:         pool,
		Logger:       log,
		AuthService:  authService,
		JWTValidator: jwtService,
		Registry:     registry,
		Orchestrator: orchestrator,
		Dispatcher:   dispatcher,
		History:      historyService,
		Source:       sourceClient,
		Rates:        ratesClient,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// loadAdmins reads the configured admin set. ADMIN_USERS is a
// comma-separated list of username:bcryptHash:region1|region2 entries;
// an entry with regions "*" is a full admin.
func loadAdmins(log *logger.Logger) []auth.Admin {
	raw := mustEnv("ADMIN_USERS")
	var admins []auth.Admin
	for _, entry := range splitNonEmpty(raw, ",") {
		parts := splitNonEmpty(entry, ":")
		if len(parts) != 3 {
			log.Fatalw("malformed ADMIN_USERS entry", "entry", entry)
		}
		admin := auth.Admin{
			Username:     parts[0],
			PasswordHash: parts[1],
		}
		if parts[2] == "*" {
			admin.IsAdmin = true
		} else {
			admin.Regions = splitNonEmpty(parts[2], "|")
		}
		admins = append(admins, admin)
	}
	if len(admins) == 0 {
		log.Fatalw("ADMIN_USERS configured no admins")
	}
	return admins
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
