package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vistoenmaps/vistoenmaps-api/internal/api"
	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/database"
	"github.com/vistoenmaps/vistoenmaps-api/internal/logger"
	"github.com/vistoenmaps/vistoenmaps-api/internal/middleware"
	"github.com/vistoenmaps/vistoenmaps-api/internal/services"
	"github.com/vistoenmaps/vistoenmaps-api/pkg/config"
)

const (
	shutdownTimeout     = 15 * time.Second
	rateLimiterSweepGap = 10 * time.Minute
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize configuration
	cfg := config.New()

	appLogger := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})

	cat, err := loadCatalog(cfg)
	if err != nil {
		appLogger.Fatal("Failed to load directory catalog", err)
	}
	appLogger.Info("Directory catalog loaded", "directories", cat.Len(), "path", cfg.CatalogPath)

	// Database is optional; without it only the catalog routes are served
	var sqlDB *sql.DB
	var health api.HealthChecker
	if cfg.HasDatabase() {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", err)
		}
		defer db.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			appLogger.Fatal("Failed to run migrations", err)
		}
		sqlDB = db.DB
		health = db
	} else {
		appLogger.Warn("DATABASE_URL not set, running without business store")
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		appLogger.Fatal("Invalid TRUSTED_PROXIES", err)
	}

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(appLogger))
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.EnableRateLimit {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		r.Use(middleware.RateLimitingMiddleware(limiter))
		go sweepLimiters(ctx, limiter)
	}

	// Add recovery middleware
	r.Use(gin.Recovery())

	svcs := services.NewServices(sqlDB, cat, cfg, appLogger)
	api.SetupRoutes(r, svcs, cfg, health, appLogger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		appLogger.Info("Server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", err)
		os.Exit(1)
	}
	appLogger.Info("Server stopped")
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath != "" {
		return catalog.Load(cfg.CatalogPath)
	}
	return catalog.Default()
}

// sweepLimiters drops idle per-IP limiters until ctx is cancelled
func sweepLimiters(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(rateLimiterSweepGap)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Cleanup()
		}
	}
}
