package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "elocation/api/swagger" // swagger docs
	"elocation/internal/cache"
	"elocation/internal/config"
	"elocation/internal/database"
	"elocation/internal/domain"
	"elocation/internal/events"
	"elocation/internal/handler"
	"elocation/internal/logger"
	"elocation/internal/mailer"
	"elocation/internal/metrics"
	"elocation/internal/middleware"
	"elocation/internal/repository"
	"elocation/internal/service"
	"elocation/internal/storage"
	"elocation/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           eLocation Bénin API
// @version         1.0
// @description     Rental marketplace: ads, bookings, reviews, reports and back-office moderation.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		panic(err)
	}

	log := logger.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	if cfg.InsecureSecret() {
		log.Warn("JWT_SECRET is left at its default value, set it before going to production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.DSN(), log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("connected to PostgreSQL", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	// Optional infrastructure falls back to in-process implementations
	var permCache cache.PermissionCache = cache.NewMemoryCache(cfg.PermissionCacheTTL)
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			log.Warn("redis unavailable, using in-memory permission cache", zap.Error(err))
		} else {
			defer func() { _ = client.Close() }()
			permCache = cache.NewRedisCache(client, cfg.PermissionCacheTTL, log)
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		natsPub, err := events.NewNATSPublisher(cfg.NATSURL, log)
		if err != nil {
			log.Warn("nats unavailable, events will not be published", zap.Error(err))
		} else {
			publisher = natsPub
		}
	}
	defer publisher.Close()

	var photos storage.PhotoStore = storage.DisabledStore{}
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, log)
		if err != nil {
			log.Warn("minio unavailable, photo upload disabled", zap.Error(err))
		} else {
			photos = store
		}
	}

	var sender mailer.Sender = mailer.NewLogSender(log)
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, log)
	}

	m := metrics.NewManager()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(cfg.CORSOrigins, log)
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	adRepo := repository.NewAdRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	reportRepo := repository.NewReportRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	templateRepo := repository.NewEmailTemplateRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)
	guard := domain.NewIntegrityGuard(repository.NewDependencyCounter(db))
	policy := domain.BookingPolicy{Strict: cfg.BookingStrictTransitions}

	notificationService := service.NewNotificationService(notificationRepo, wsHub, publisher, log)
	templateService := service.NewEmailTemplateService(templateRepo, auditRepo, txManager, sender, log)
	userService := service.NewUserService(userRepo, roleRepo, auditRepo, txManager, guard, m, log)
	adService := service.NewAdService(adRepo, categoryRepo, auditRepo, txManager, guard, photos, notificationService, m, log)
	bookingService := service.NewBookingService(bookingRepo, adRepo, userRepo, auditRepo, txManager, policy, notificationService, templateService, publisher, m, log)
	categoryService := service.NewCategoryService(categoryRepo, auditRepo, txManager, guard, m, log)
	reviewService := service.NewReviewService(reviewRepo, adRepo, auditRepo, txManager, notificationService, m, log)
	reportService := service.NewReportService(reportRepo, adRepo, userRepo, auditRepo, txManager, notificationService, publisher, m, log)
	roleService := service.NewRoleService(roleRepo, auditRepo, txManager, permCache, log)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statsRepo, adRepo)

	if err := roleService.SeedDefaultRolesAndPermissions(ctx); err != nil {
		log.Fatal("failed to seed roles and permissions", zap.Error(err))
	}
	if err := templateService.SeedDefaultTemplates(ctx); err != nil {
		log.Warn("failed to seed email templates", zap.Error(err))
	}

	auth := middleware.NewAuthenticator([]byte(cfg.JWTSecret), roleRepo, permCache, log)

	// Initialize Handlers
	handlers := []interface{ RegisterRoutes(*gin.RouterGroup) }{
		handler.NewUserHandler(userService, auth),
		handler.NewAdHandler(adService, statisticsService, auth),
		handler.NewBookingHandler(bookingService, auth),
		handler.NewCategoryHandler(categoryService, auth),
		handler.NewReviewHandler(reviewService, auth),
		handler.NewReportHandler(reportService, auth),
		handler.NewRoleHandler(roleService, auth),
		handler.NewNotificationHandler(notificationService, auth),
		handler.NewEmailTemplateHandler(templateService, auth),
		handler.NewAuditHandler(auditService, auth),
		handler.NewStatisticsHandler(statisticsService, auth),
	}

	// Set up Gin Router
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Metrics(m))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "websocket": wsHub.Stats(c.Request.Context())})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		wsHub.ServeWs(c, []byte(cfg.JWTSecret))
	})

	// API Routing
	api := router.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
