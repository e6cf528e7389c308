package main

import (
	"context"
	"errors"
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

	_ "github.com/relatia/crm-api/api/swagger"
	"github.com/relatia/crm-api/internal/handler"
	"github.com/relatia/crm-api/internal/middleware"
	"github.com/relatia/crm-api/internal/models"
	"github.com/relatia/crm-api/internal/repository"
	"github.com/relatia/crm-api/internal/service"
	"github.com/relatia/crm-api/pkg/cache"
	"github.com/relatia/crm-api/pkg/config"
	"github.com/relatia/crm-api/pkg/database"
	"github.com/relatia/crm-api/pkg/jobs"
	"github.com/relatia/crm-api/pkg/logger"
	corsmiddleware "github.com/relatia/crm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/relatia/crm-api/pkg/middleware/requestid"
	"github.com/relatia/crm-api/pkg/storage"
)

// @title Relatia CRM API
// @version 1.0.0
// @description Asynchronous export pipeline for CRM records
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, metadata caching disabled", "error", err)
		redisClient = nil
	}

	exportStore, err := storage.NewLocalStorage(cfg.Export.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	complianceStore, err := storage.NewLocalStorage(cfg.Compliance.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare compliance storage", "error", err)
	}

	fileRegistry := storage.NewFileRegistry(exportStore, logr)
	signer := storage.NewSignedURLSigner(cfg.Compliance.SignedURLSecret, cfg.Compliance.ResultTTL)

	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	jobRepo := repository.NewExportJobRepository(db)
	historyRepo := repository.NewExportHistoryRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	auditSvc := service.NewAuditService(auditRepo, logr)
	authSvc := service.NewAuthService(userRepo, validator.New(), auditSvc, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "relatia-crm",
	})

	fieldRegistry := service.NewFieldRegistry()
	projector := service.NewFieldProjector(fieldRegistry, logr)
	fetcher := service.NewBatchFetcher(cfg.Export.BatchSize, logr)
	source := service.NewRecordSource(customerRepo, productRepo, interactionRepo, logr)
	exportSvc := service.NewExportService(exportStore, fileRegistry, service.ExportConfig{
		ResultTTL: cfg.Export.ResultTTL,
	}, logr)

	var jobSvc *service.ExportJobService
	queue := jobs.NewQueue("exports", func(ctx context.Context, job jobs.Job) error {
		return jobSvc.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Export.WorkerConcurrency,
		BufferSize: cfg.Export.QueueBuffer,
		Logger:     logr,
	})

	jobCfg := service.ExportJobConfig{ResultTTL: cfg.Export.ResultTTL}
	if cfg.Cache.Enabled {
		jobCfg.StatusCacheTTL = cfg.Cache.StatusTTL
		jobCfg.FieldsCacheTTL = cfg.Cache.FieldsTTL
	}
	jobSvc = service.NewExportJobService(
		jobRepo, historyRepo, queue,
		source, fetcher, projector, fieldRegistry,
		exportSvc, auditSvc, metricsSvc, cacheRepo,
		jobCfg, logr,
	)

	complianceSvc := service.NewComplianceService(
		customerRepo, interactionRepo,
		complianceStore, signer, auditSvc,
		cfg.Compliance.ResultTTL,
		cfg.APIPrefix+"/compliance/download",
		logr,
	)

	queue.Start(ctx)
	defer queue.Stop()
	jobSvc.RecoverPendingJobs(ctx)

	fileRegistry.StartSweeper(ctx, cfg.Export.SweepInterval)
	complianceSvc.StartSweeper(ctx, cfg.Compliance.SweepInterval)
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metricsSvc.SetQueueDepth(queue.Depth())
			}
		}
	}()

	authHandler := handler.NewAuthHandler(authSvc)
	exportHandler := handler.NewExportHandler(jobSvc)
	complianceHandler := handler.NewComplianceHandler(complianceSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/compliance/download/:token",
		middleware.Audit(auditRepo, models.AuditActionExportDownloaded, "COMPLIANCE_FILE"),
		complianceHandler.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	secured.POST("/exports", middleware.RequireRoles(models.ExportRoles...), exportHandler.Create)
	secured.GET("/exports/history", exportHandler.History)
	secured.GET("/exports/fields/:entityType", exportHandler.Fields)
	secured.GET("/exports/:id", exportHandler.Status)
	secured.GET("/downloads/:fileId", exportHandler.Download)
	secured.POST("/compliance/exports", middleware.RequireRoles(models.RoleAdmin), complianceHandler.Create)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown incomplete", "error", err)
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis", "error", err)
	}
}
