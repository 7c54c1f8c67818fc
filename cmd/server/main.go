package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	orderingapp "github.com/fulfillment/backend/internal/application/ordering"
	reconcileapp "github.com/fulfillment/backend/internal/application/reconcile"
	"github.com/fulfillment/backend/internal/domain/catalog"
	"github.com/fulfillment/backend/internal/domain/flags"
	"github.com/fulfillment/backend/internal/domain/shipping"
	"github.com/fulfillment/backend/internal/infrastructure/cache"
	"github.com/fulfillment/backend/internal/infrastructure/config"
	"github.com/fulfillment/backend/internal/infrastructure/logger"
	"github.com/fulfillment/backend/internal/infrastructure/persistence"
	"github.com/fulfillment/backend/internal/infrastructure/scheduler"
	"github.com/fulfillment/backend/internal/infrastructure/shipstation"
	"github.com/fulfillment/backend/internal/infrastructure/telemetry"
	"github.com/fulfillment/backend/internal/interfaces/http/handler"
	"github.com/fulfillment/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting fulfillment backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry providers (no-ops when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Database connection with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled, log); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	bundleRepo := persistence.NewGormBundleDefinitionRepository(db.DB)
	lotRepo := persistence.NewGormLotMappingRepository(db.DB)
	violationRepo := persistence.NewGormViolationRepository(db.DB)
	watermarkRepo := persistence.NewGormSyncWatermarkRepository(db.DB)
	flagRepo := persistence.NewGormFlagRepository(db.DB)

	// Lot resolution with the configured cache in front of the repository
	lotCacheFactory := cache.NewLotCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log))
	lotCache, err := lotCacheFactory.Create(catalog.NewRepositoryLotResolver(lotRepo))
	if err != nil {
		log.Fatal("Failed to initialize lot cache", zap.Error(err))
	}
	defer func() {
		if err := lotCache.Close(); err != nil {
			log.Error("Error closing lot cache", zap.Error(err))
		}
	}()

	// Shipping platform adapter
	platform, err := shipstation.NewAdapter(&shipstation.Config{
		APIKey:     cfg.Platform.APIKey,
		APISecret:  cfg.Platform.APISecret,
		BaseURL:    cfg.Platform.BaseURL,
		Timeout:    cfg.Platform.Timeout,
		MaxRetries: cfg.Platform.MaxRetries,
		RetryDelay: cfg.Platform.RetryDelay,
	})
	if err != nil {
		log.Fatal("Failed to initialize shipping platform adapter", zap.Error(err))
	}

	// Application services
	uploadService, err := orderingapp.NewUploadService(
		orderRepo,
		bundleRepo,
		lotCache,
		platform,
		orderingapp.UploadServiceConfig{
			LookbackWindow: cfg.Scheduler.LookbackWindow,
			BatchSize:      cfg.Scheduler.UploadBatchSize,
			ListPageSize:   cfg.Scheduler.ListPageSize,
		},
		log,
	)
	if err != nil {
		log.Fatal("Failed to initialize upload service", zap.Error(err))
	}

	reconcileService, err := reconcileapp.NewService(
		orderRepo,
		platform,
		watermarkRepo,
		violationRepo,
		shipping.DefaultRuleSet(),
		reconcileapp.ServiceConfig{
			DefaultLookback: cfg.Scheduler.LookbackWindow,
			ListPageSize:    cfg.Scheduler.ListPageSize,
		},
		log,
	)
	if err != nil {
		log.Fatal("Failed to initialize reconcile service", zap.Error(err))
	}

	orderService := orderingapp.NewOrderService(orderRepo, platform, log)

	// Cross-instance workflow serialization
	workflowLocker := persistence.NewAdvisoryLocker(db.DB)
	uploadService.SetWorkflowLocker(workflowLocker)
	reconcileService.SetWorkflowLocker(workflowLocker)

	// Sync metrics on both workflows
	syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:  meterProvider.Meter("fulfillment.sync"),
		Logger: log,
	})
	if err != nil {
		log.Warn("Failed to initialize sync metrics", zap.Error(err))
	} else {
		uploadService.SetSyncMetrics(syncMetrics)
		reconcileService.SetSyncMetrics(syncMetrics)
	}

	// Workflow flag evaluator, fail-open
	evaluator := flags.NewEvaluator(flagRepo, log)

	// Polling loops for both sync workflows
	if cfg.Scheduler.Enabled {
		uploadLoop, err := scheduler.NewPollLoop(uploadService, scheduler.PollLoopConfig{
			Interval:     cfg.Scheduler.UploadInterval,
			CycleTimeout: cfg.Scheduler.CycleTimeout,
		}, evaluator, log)
		if err != nil {
			log.Fatal("Failed to create upload loop", zap.Error(err))
		}
		if err := uploadLoop.Start(context.Background()); err != nil {
			log.Fatal("Failed to start upload loop", zap.Error(err))
		}
		defer stopLoop(uploadLoop, log)

		reconcileLoop, err := scheduler.NewPollLoop(reconcileService, scheduler.PollLoopConfig{
			Interval:     cfg.Scheduler.ReconcileInterval,
			CycleTimeout: cfg.Scheduler.CycleTimeout,
		}, evaluator, log)
		if err != nil {
			log.Fatal("Failed to create reconcile loop", zap.Error(err))
		}
		if err := reconcileLoop.Start(context.Background()); err != nil {
			log.Fatal("Failed to start reconcile loop", zap.Error(err))
		}
		defer stopLoop(reconcileLoop, log)

		log.Info("Sync polling loops started",
			zap.Duration("upload_interval", cfg.Scheduler.UploadInterval),
			zap.Duration("reconcile_interval", cfg.Scheduler.ReconcileInterval),
		)
	}

	// HTTP layer
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(logger.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(telemetry.GinMiddleware(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled))

	engine.GET("/health", healthHandler(db))

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewOrderHandler(orderService)).
		Register(handler.NewViolationHandler(reconcileService)).
		Register(handler.NewSyncHandler(uploadService, reconcileService)).
		Register(handler.NewFlagHandler(flagRepo)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func stopLoop(loop *scheduler.PollLoop, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := loop.Stop(ctx); err != nil {
		log.Error("Error stopping polling loop", zap.Error(err))
	}
}

// healthHandler reports liveness including database connectivity
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
