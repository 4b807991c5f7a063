package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	archiveapp "github.com/forestcrm/backend/internal/application/archive"
	"github.com/forestcrm/backend/internal/application/cachesync"
	customerapp "github.com/forestcrm/backend/internal/application/customer"
	forestapp "github.com/forestcrm/backend/internal/application/forest"
	"github.com/forestcrm/backend/internal/application/importer"
	postalapp "github.com/forestcrm/backend/internal/application/postal"
	"github.com/forestcrm/backend/internal/application/tagsvc"
	"github.com/forestcrm/backend/internal/infrastructure/auth"
	"github.com/forestcrm/backend/internal/infrastructure/config"
	"github.com/forestcrm/backend/internal/infrastructure/event"
	"github.com/forestcrm/backend/internal/infrastructure/logger"
	"github.com/forestcrm/backend/internal/infrastructure/persistence"
	"github.com/forestcrm/backend/internal/infrastructure/taskqueue"
	"github.com/forestcrm/backend/internal/interfaces/http/handler"
	"github.com/forestcrm/backend/internal/interfaces/http/middleware"
	"github.com/forestcrm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//	@title			Forest CRM Backend API
//	@version		1.0
//	@description	森林組合向け CRM バックエンド API - 林地・顧客・相談記録・郵送履歴の管理

//	@contact.name	API Support

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Forest CRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Redis backs task dedup and the token blacklist. Both degrade to
	// in-memory stores when it is unreachable.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisAvailable := true
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, falling back to in-memory stores", zap.Error(err))
		redisAvailable = false
	}
	pingCancel()
	defer func() {
		_ = redisClient.Close()
	}()

	// Initialize repositories
	forestRepo := persistence.NewGormForestRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	archiveRepo := persistence.NewGormArchiveRepository(db.DB)
	postalRepo := persistence.NewGormPostalHistoryRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	tagRepo := persistence.NewGormTagRepository(db.DB)
	forestCustomerRepo := persistence.NewGormForestCustomerRepository(db.DB)
	customerContactRepo := persistence.NewGormCustomerContactRepository(db.DB)
	archiveLinkRepo := persistence.NewGormArchiveLinkRepository(db.DB)
	postalLinkRepo := persistence.NewGormPostalHistoryLinkRepository(db.DB)

	// Event bus fans entity updates out to the cache rebuild handlers
	bus := event.NewInMemoryEventBus(log)
	if err := bus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		_ = bus.Stop(stopCtx)
	}()

	cacheService := cachesync.NewService(
		forestRepo, archiveRepo, postalRepo,
		forestCustomerRepo, archiveLinkRepo, postalLinkRepo,
		log,
	)
	cachesync.RegisterHandlers(bus, cacheService, forestCustomerRepo, archiveLinkRepo, postalLinkRepo, log)

	// Background dispatcher for imports and cache rebuilds
	var dedupStore taskqueue.DedupStore
	if redisAvailable {
		dedupStore = taskqueue.NewRedisDedupStore(redisClient)
	} else {
		dedupStore = taskqueue.NewInMemoryDedupStore()
	}
	dispatcher := taskqueue.NewDispatcher(taskqueue.Config{
		Workers:     cfg.TaskQueue.Workers,
		QueueSize:   cfg.TaskQueue.QueueSize,
		TaskTimeout: cfg.TaskQueue.TaskTimeout,
		DedupTTL:    cfg.TaskQueue.DedupTTL,
	}, dedupStore, log)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Initialize application services
	forestService := forestapp.NewService(forestRepo, customerRepo, forestCustomerRepo, cacheService, dispatcher, bus, log)
	customerService := customerapp.NewService(customerRepo, customerContactRepo, bus, log)
	archiveService := archiveapp.NewService(archiveRepo, archiveLinkRepo, userRepo, cacheService, dispatcher, bus, log)
	postalService := postalapp.NewService(postalRepo, postalLinkRepo, userRepo, cacheService, bus, log)
	tagService := tagsvc.NewService(tagRepo, tagRepo, log)
	customerImporter := importer.NewCustomerImporter(
		customerRepo, forestRepo, customerContactRepo, forestCustomerRepo,
		cacheService, dispatcher, log,
	)

	// Initialize authentication
	jwtService := auth.NewJWTService(cfg.JWT)
	var tokenBlacklist auth.TokenBlacklist
	if redisAvailable {
		tokenBlacklist = auth.NewRedisTokenBlacklist(redisClient)
	} else {
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	}

	// Configure Gin
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	rateLimiter := middleware.NewRateLimiter(300, time.Minute)
	engine.Use(middleware.RateLimit(rateLimiter))

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = tokenBlacklist
	jwtConfig.Logger = log
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Per-user budget on top of the per-address one, so one staff
	// account behind a shared office address cannot starve the rest
	userLimiter := middleware.NewRateLimiter(120, time.Minute)
	engine.Use(middleware.RateLimitByKey(userLimiter, func(c *gin.Context) string {
		if id := middleware.GetJWTUserID(c); id != "" {
			return "user:" + id
		}
		return "ip:" + c.ClientIP()
	}))

	// Health endpoint outside the versioned API, exempt from auth
	engine.GET("/health", healthHandler(db, log))

	// Register routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSystemHandler()).
		Register(handler.NewForestHandler(forestService)).
		Register(handler.NewCustomerHandler(customerService)).
		Register(handler.NewCustomerImportHandler(customerImporter)).
		Register(handler.NewArchiveHandler(archiveService)).
		Register(handler.NewPostalHandler(postalService)).
		Register(handler.NewTagHandler(tagService))
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
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
