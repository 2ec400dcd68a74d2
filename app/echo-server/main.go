package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"captionSelector/app/echo-server/metrics"
	"captionSelector/app/echo-server/router"
	"captionSelector/business/selection"
	"captionSelector/internal/middleware"
	psqlRepo "captionSelector/internal/repository/postgres"
	redisRepo "captionSelector/internal/repository/redis"
	"captionSelector/internal/rest"
	"captionSelector/pkg/config"
	"captionSelector/pkg/database"
	redisDB "captionSelector/pkg/database/redis"
	"captionSelector/pkg/logger"
	pkgmetrics "captionSelector/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Caption Selector", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.ClosePostgres(db)

	logger.Info("Database connected successfully")

	if err := psqlRepo.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	redisClient, err := redisDB.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	defer redisDB.CloseRedisClient(redisClient)

	// Init repo
	creatorRepo := psqlRepo.NewCreatorRepository(db)
	captionRepo := psqlRepo.NewCaptionRepository(db)
	statsRepo := psqlRepo.NewStatsRepository(db)
	restrictionRepo := psqlRepo.NewRestrictionRepository(db)
	configRepo := psqlRepo.NewSelectionConfigRepository(db)
	ledger := psqlRepo.NewAssignmentLedger(db)
	revocations := redisRepo.NewTokenRevocationRepository(redisClient)

	engineCfg := selection.ConfigFromSettings(cfg.Selection)

	var usage selection.UsageCounter = ledger
	if cfg.Selection.UsageBackend == "redis" {
		usage = redisRepo.NewUsageCounter(redisClient, time.Duration(engineCfg.UsageWindowDays+1)*24*time.Hour)
	}
	logger.Info("Usage counter selected", "backend", cfg.Selection.UsageBackend)

	// Init service
	selectionService, err := selection.NewSelectionService(
		creatorRepo, captionRepo, statsRepo, restrictionRepo, ledger, usage, configRepo, engineCfg,
	)
	if err != nil {
		logger.Fatal("Failed to init selection service", "error", err)
	}
	adminService := selection.NewAdminService(creatorRepo, restrictionRepo, configRepo)

	// Init handler
	selectionHandler := rest.NewSelectionHandler(selectionService)
	adminHandler := rest.NewAdminHandler(adminService)

	pkgmetrics.Init()

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(metrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Auth middleware
	authRequired := middleware.AuthMiddleware(cfg.JWT.SecretKey, revocations)
	adminOnly := middleware.AdminOnly()

	// Setup routes
	api := e.Group("/api/v1")
	router.SetSelectionRoutes(api, selectionHandler)
	router.SetAdminRoutes(api, adminHandler, authRequired, adminOnly)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
