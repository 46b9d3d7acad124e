package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/config"
	"github.com/assetdesk/asset-backend/internal/database"
	"github.com/assetdesk/asset-backend/internal/handlers"
	"github.com/assetdesk/asset-backend/internal/middleware"
	"github.com/assetdesk/asset-backend/internal/services"
	"github.com/assetdesk/asset-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting asset management backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.WithField("driver", cfg.Database.Driver).Info("Database connection established")

	// Repositories
	categoryRepository := database.NewCategoryRepository(db)
	assetRepository := database.NewAssetRepository(db)
	userRepository := database.NewUserRepository(db)
	assignmentRepository := database.NewAssignmentRepository(db)
	returnRequestRepository := database.NewReturnRequestRepository(db)
	reportRepository := database.NewReportRepository(db)
	refreshTokenRepository := database.NewRefreshTokenRepository(db)
	auditRepository := database.NewAuditRepository(db)

	// Services
	clock := services.SystemClock
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	auditService := services.NewAuditService(auditRepository, clock, cfg.Security.EnableAuditLog, logger)
	rateLimitService := services.NewRateLimitService(services.RateLimitConfig{
		MaxUsernameFailures: cfg.Security.LoginMaxFailures,
		UsernameWindow:      cfg.Security.LoginFailureWindow,
		MaxIPFailures:       cfg.Security.LoginMaxIPFailures,
		IPWindow:            cfg.Security.LoginIPWindow,
	}, clock)
	authService := services.NewAuthService(userRepository, refreshTokenRepository, jwtService, rateLimitService, clock, cfg.Security.BcryptCost, logger)
	categoryService := services.NewCategoryService(categoryRepository, clock, logger)
	assetService := services.NewAssetService(assetRepository, categoryRepository, assignmentRepository, db, clock, logger)
	userService := services.NewUserService(userRepository, assignmentRepository, refreshTokenRepository, db, clock, cfg.Security.BcryptCost, logger)
	assignmentService := services.NewAssignmentService(assignmentRepository, assetRepository, userRepository, db, clock, logger)
	returnRequestService := services.NewReturnRequestService(returnRequestRepository, assignmentRepository, assetRepository, db, clock, logger)
	reportService := services.NewReportService(reportRepository, logger)

	var cronService *services.CronService
	if cfg.Cron.Enabled {
		cronService = services.NewCronService(services.CronConfig{
			TokenCleanupSchedule:     cfg.Cron.TokenCleanupSchedule,
			RevokedTokenRetention:    cfg.Cron.RevokedTokenRetention,
			RateLimitCleanupSchedule: cfg.Cron.RateLimitCleanupSchedule,
		}, refreshTokenRepository, rateLimitService, logger)
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
		logger.Info("Cron service started")
	}

	handlerSet := routeHandlers{
		auth:          handlers.NewAuthHandler(authService, auditService, logger),
		category:      handlers.NewCategoryHandler(categoryService, auditService, logger),
		asset:         handlers.NewAssetHandler(assetService, auditService, cfg.Pagination, logger),
		user:          handlers.NewUserHandler(userService, auditService, cfg.Pagination, logger),
		assignment:    handlers.NewAssignmentHandler(assignmentService, auditService, cfg.Pagination, logger),
		returnRequest: handlers.NewReturnRequestHandler(returnRequestService, auditService, cfg.Pagination, logger),
		report:        handlers.NewReportHandler(reportService, cfg.Pagination, logger),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", handlers.Health(db, version))

	registerRoutes(router.Group("/api/v1"), handlerSet,
		middleware.AuthMiddleware(jwtService, logger),
		middleware.ResolveCaller(userRepository, logger),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cronService != nil {
		cronService.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}
