package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Desire-2/afritech-bridge-lms-api/api/swagger"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/handler"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/middleware"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/repository"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/service"
	"github.com/Desire-2/afritech-bridge-lms-api/pkg/cache"
	"github.com/Desire-2/afritech-bridge-lms-api/pkg/config"
	"github.com/Desire-2/afritech-bridge-lms-api/pkg/database"
	"github.com/Desire-2/afritech-bridge-lms-api/pkg/logger"
	corsmiddleware "github.com/Desire-2/afritech-bridge-lms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/Desire-2/afritech-bridge-lms-api/pkg/middleware/requestid"
	"github.com/Desire-2/afritech-bridge-lms-api/pkg/storage"
)

// @title Afritech Bridge LMS API
// @version 0.1.0
// @description Course catalog, application windows and enrollment terms
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled)
	}

	courseRepo := repository.NewCourseRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	gamificationRepo := repository.NewGamificationRepository(db)

	catalogSvc := service.NewCatalogService(courseRepo, cacheSvc, metricsSvc, cfg.Catalog.CacheTTL, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, courseRepo, catalogSvc, validate, metricsSvc, cfg.Applications.MaxPerStudent, logr)
	dashboardSvc := service.NewDashboardService(applicationRepo, courseRepo, gamificationRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var receiptSvc *service.ReceiptService
	if cfg.Receipts.Enabled {
		store, err := storage.NewLocalStorage(cfg.Receipts.StorageDir)
		if err != nil {
			logr.Fatal("receipt storage init failed", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)
		receiptSvc = service.NewReceiptService(receiptRepo, applicationRepo, store, signer, metricsSvc, service.ReceiptServiceConfig{
			WorkerConcurrency: cfg.Receipts.WorkerConcurrency,
			WorkerRetries:     cfg.Receipts.WorkerRetries,
			CleanupInterval:   cfg.Receipts.CleanupInterval,
			ArtifactTTL:       cfg.Receipts.SignedURLTTL,
			DownloadBasePath:  cfg.APIPrefix + "/receipts/download",
			DefaultCurrency:   cfg.Payments.DefaultCurrency,
		}, logr)
		receiptSvc.Start(ctx)
		defer receiptSvc.Stop()
	}

	courseHandler := handler.NewCourseHandler(catalogSvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/courses", courseHandler.List)
		api.GET("/courses/:id", courseHandler.Get)

		if cfg.Applications.Enabled {
			api.POST("/applications", applicationHandler.Apply)
			api.GET("/applications", applicationHandler.List)
			api.GET("/applications/:id", applicationHandler.Get)
			api.PUT("/applications/:id/withdraw", applicationHandler.Withdraw)
		}

		if receiptSvc != nil {
			receiptHandler := handler.NewReceiptHandler(receiptSvc)
			api.POST("/applications/:id/receipt", receiptHandler.Generate)
			api.GET("/applications/export", receiptHandler.Export)
			api.GET("/receipts/:id", receiptHandler.Status)
			api.GET("/receipts/download", receiptHandler.Download)
		}

		if cfg.Dashboard.Enabled {
			api.GET("/dashboard/student/:id", dashboardHandler.Student)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server shutdown incomplete", zap.Error(err))
	}
	logr.Info("server stopped")
}
