package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "leadflow/api/swagger" // swagger docs
	"leadflow/internal/config"
	"leadflow/internal/database"
	"leadflow/internal/handler"
	"leadflow/internal/middleware"
	"leadflow/internal/repository"
	"leadflow/internal/scheduler"
	"leadflow/internal/service"
	"leadflow/internal/storage"
	"leadflow/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// @title           Leadflow Task Workflow API
// @version         1.0
// @description     Research, inquiry and audit workflow for the lead-generation pipeline.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	db, err := database.NewConnection(cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("Database connection failed", zap.Error(err))
	}
	logger.Info("Connected to PostgreSQL successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger.Named("ws"))
	go wsHub.Run(ctx)

	// Repositories
	txManager := repository.NewTransactionManager(db)
	categoryRepo := repository.NewCategoryRepository(db)
	researchRepo := repository.NewResearchTaskRepository(db)
	inquiryRepo := repository.NewInquiryTaskRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	reasonRepo := repository.NewReasonRepository(db)
	evidenceRepo := repository.NewEvidenceRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	// Services
	ruleService := service.NewRuleService(categoryRepo, cfg.Workflow.RuleCacheTTL)
	quota := service.NewQuotaGuard(ruleService, researchRepo, inquiryRepo, auditRepo, cfg.Workflow.QuotaLocation)
	evidenceService := service.NewEvidenceService(evidenceRepo, ruleService, cfg.Workflow.EvidenceRetention(), logger.Named("evidence"))
	ledgerService := service.NewLedgerService(txManager, researchRepo, inquiryRepo, activityRepo, ruleService, quota, evidenceService, wsHub, logger.Named("ledger"))
	sequencerService := service.NewSequencerService(txManager, inquiryRepo, activityRepo, ruleService, quota, evidenceService, wsHub, logger.Named("sequencer"))
	decisionService := service.NewDecisionService(txManager, researchRepo, inquiryRepo, auditRepo, reasonRepo, activityRepo, quota, wsHub, logger.Named("decision"))
	statisticsService := service.NewStatisticsService(statisticsRepo)
	activityService := service.NewActivityService(activityRepo)

	// Evidence pruning
	pruner := scheduler.NewEvidencePruner(evidenceService, logger.Named("pruner"))
	if err := pruner.Start(cfg.Workflow.EvidencePruneSchedule); err != nil {
		logger.Fatal("Failed to start evidence pruner", zap.Error(err))
	}
	defer pruner.Stop()

	// Set up Gin Router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	secret := []byte(cfg.JWT.Secret)
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, secret)
	})

	guard := func(roles ...string) gin.HandlerFunc {
		return middleware.RequireRole(secret, roles...)
	}
	api := router.Group("")
	handler.NewResearchHandler(ledgerService, logger).RegisterRoutes(api, guard)
	handler.NewInquiryHandler(ledgerService, sequencerService, logger).RegisterRoutes(api, guard)
	handler.NewAuditHandler(decisionService, logger).RegisterRoutes(api, guard)
	handler.NewAdminHandler(ledgerService, ruleService, logger).RegisterRoutes(api, guard)
	handler.NewStatisticsHandler(statisticsService, activityService, logger).RegisterRoutes(api, guard)

	if cfg.S3.Enabled() {
		store, err := storage.NewS3EvidenceStore(ctx, cfg.S3)
		if err != nil {
			logger.Fatal("Failed to initialise evidence store", zap.Error(err))
		}
		uploads := service.NewUploadService(store, logger.Named("uploads"))
		handler.NewEvidenceHandler(uploads, logger).RegisterRoutes(api, guard)
	} else {
		logger.Warn("S3_BUCKET not set, evidence upload disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if cfg.Server.GinMode != gin.ReleaseMode {
		zcfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewExample()
	}
	return logger
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
