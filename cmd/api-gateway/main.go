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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/siiau-planner-api/api/swagger"
	"github.com/noah-isme/siiau-planner-api/internal/handler"
	"github.com/noah-isme/siiau-planner-api/internal/middleware"
	"github.com/noah-isme/siiau-planner-api/internal/repository"
	"github.com/noah-isme/siiau-planner-api/internal/service"
	"github.com/noah-isme/siiau-planner-api/internal/siiau"
	"github.com/noah-isme/siiau-planner-api/migrations"
	"github.com/noah-isme/siiau-planner-api/pkg/cache"
	"github.com/noah-isme/siiau-planner-api/pkg/config"
	"github.com/noah-isme/siiau-planner-api/pkg/database"
	"github.com/noah-isme/siiau-planner-api/pkg/export"
	"github.com/noah-isme/siiau-planner-api/pkg/jobs"
	"github.com/noah-isme/siiau-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/siiau-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/siiau-planner-api/pkg/middleware/requestid"
	"github.com/noah-isme/siiau-planner-api/pkg/storage"
)

// @title SIIAU Planner API
// @version 0.1.0
// @description Course offering lookup, conflict detection and saved schedules for the SIIAU portal
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB, migrations.FS, cfg.Database.MigrationsDir, logr); err != nil {
			logr.Fatal("apply migrations", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()
	readiness := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, portal caching disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
			readiness["redis"] = redisRepo.Ping
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.DefaultTTL, logr, cacheRepo != nil)

	portal := siiau.NewClient(siiau.ClientConfig{
		BaseURL:   cfg.SIIAU.BaseURL,
		Timeout:   cfg.SIIAU.Timeout,
		UserAgent: cfg.SIIAU.UserAgent,
	}, metrics, logr)
	offeringSvc := service.NewOfferingService(portal, cacheSvc, metrics, validate, logr, service.OfferingServiceConfig{
		KeyPrefix: cfg.Cache.KeyPrefix,
		FormTTL:   cfg.Cache.FormTTL,
		MajorsTTL: cfg.Cache.MajorsTTL,
	})

	if cfg.Cache.PurgeOnStart {
		if err := offeringSvc.PurgeCache(ctx); err != nil {
			logr.Warn("portal cache purge failed", zap.Error(err))
		}
	}

	scheduleRepo := repository.NewSavedScheduleRepository(db)
	scheduleSvc := service.NewSavedScheduleService(scheduleRepo, validate, logr)
	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})

	var exportHandler *handler.ExportHandler
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("prepare export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exporter := service.NewExportService(scheduleRepo, files, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		exportRepo := repository.NewExportJobRepository(db)
		worker := service.NewExportWorker(exportRepo, exporter, metrics, logr)
		exportQueue = jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
			Workers:     cfg.Exports.WorkerConcurrency,
			MaxRetries:  cfg.Exports.WorkerRetries,
			OnExhausted: worker.HandleExhausted,
			Logger:      logr,
		})
		exportQueue.Start(ctx)

		exportSvc := service.NewExportJobService(exportRepo, scheduleRepo, exportQueue, exporter, validate, logr, service.ExportJobServiceConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		})
		exportSvc.RecoverPendingJobs(ctx)
		exportSvc.StartCleanup(ctx)
		exportHandler = handler.NewExportHandler(exportSvc)
	}

	offeringHandler := handler.NewOfferingHandler(offeringSvc)
	conflictHandler := handler.NewConflictHandler()
	scheduleHandler := handler.NewSavedScheduleHandler(scheduleSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, readiness)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", metricsHandler.Summary)

	portalRoutes := api.Group("/siiau")
	portalRoutes.GET("/form-options", offeringHandler.FormOptions)
	portalRoutes.GET("/majors", offeringHandler.Majors)
	portalRoutes.POST("/offerings/query", offeringHandler.Query)

	api.POST("/conflicts/check", conflictHandler.Check)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokenSvc))
	secured.GET("/schedules", scheduleHandler.List)
	secured.POST("/schedules", scheduleHandler.Create)
	secured.GET("/schedules/:id", scheduleHandler.Get)
	secured.PUT("/schedules/:id", scheduleHandler.Update)
	secured.DELETE("/schedules/:id", scheduleHandler.Delete)

	if exportHandler != nil {
		secured.POST("/schedules/:id/exports", exportHandler.Create)
		secured.GET("/exports/:id", exportHandler.Status)
		api.GET("/export/:token", exportHandler.Download)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
}
