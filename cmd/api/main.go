package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "assistix/api/swagger" // swagger docs
	"assistix/internal/blob"
	"assistix/internal/cache"
	"assistix/internal/config"
	"assistix/internal/conversation"
	"assistix/internal/database"
	"assistix/internal/handler"
	"assistix/internal/middleware"
	"assistix/internal/observability"
	"assistix/internal/repository"
	"assistix/internal/service"
	"assistix/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Assistix API
// @version         1.0
// @description     Request intake chat bot: chat transport and admin REST surface.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg)
	if err != nil {
		logger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("database connected", slog.String("driver", cfg.DBDriver))

	if err := database.SeedTaskTypes(ctx, db, logger); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	blobs, err := blob.NewStore(cfg.MediaDir)
	if err != nil {
		logger.Error("media store unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisClient := cache.Connect(ctx, cfg.RedisURL, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Repository -> Service
	txm := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	taskTypeRepo := repository.NewTaskTypeRepository(db)

	requestService := service.NewRequestService(repository.NewRequestRepository(db), taskTypeRepo, repository.NewStatisticsRepository(db), auditRepo, txm)
	adminService := service.NewAdminService(cfg.PrimaryAdminID, cfg.StaticAdminIDs(),
		repository.NewAdminRepository(db), taskTypeRepo, auditRepo, txm,
		cache.NewAdminCache(redisClient, cache.DefaultAdminTTL), logger)
	auditService := service.NewAuditService(auditRepo)

	// Chat transport and flows
	wsHub := websocket.NewHub(logger)
	notifier := service.NewNotifier(wsHub, requestService, adminService, logger)
	bot := conversation.NewBot(wsHub, requestService, adminService, notifier, blobs, logger)
	wsHub.SetHandler(bot)
	go wsHub.Run(ctx)

	secret := []byte(cfg.BotToken)
	requireAdmin := middleware.RequireAdmin(secret, adminService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Origins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "PUT", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, secret)
	})

	api := router.Group("")
	handler.NewRequestHandler(requestService, requireAdmin).RegisterRoutes(api)
	handler.NewReportHandler(requestService, requireAdmin).RegisterRoutes(api)
	handler.NewAuditHandler(auditService, requireAdmin).RegisterRoutes(api)
	handler.NewMediaHandler(blobs, requireAdmin).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.String("error", err.Error()))
		}
	}()

	logger.Info("server listening", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
