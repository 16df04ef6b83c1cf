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

	"carrental/internal/config"
	handlers "carrental/internal/handlers/shared"
	"carrental/internal/middleware"
	"carrental/internal/repositories/mongodb"
	"carrental/internal/services"
	"carrental/internal/validators"
	"carrental/pkg/cache"
	"carrental/pkg/database"
	"carrental/pkg/logger"
	"carrental/pkg/mq"
	"carrental/pkg/notify"
	"carrental/pkg/storage"
	"carrental/pkg/websocket"
	"carrental/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		Colors:  cfg.App.IsDevelopment(),
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if err := validators.RegisterGinValidations(); err != nil {
		appLogger.WithError(err).Fatal("Failed to register validations")
	}

	// Database
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Close()

	if !db.SupportsTransactions() {
		appLogger.Warn("MongoDB does not support transactions; booking writes are serialized in-process only")
	}

	if cfg.Database.RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.NewMigrator(db.Database, appLogger).Up(ctx)
		cancel()
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to run migrations")
		}
	}

	// Redis is optional. The interfaces stay nil unless a client was created.
	var (
		carCache     mongodb.Cache
		loginCounter services.CounterStore
		redisPinger  handlers.Pinger
	)
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			appLogger.WithError(err).Warn("Redis unavailable; running without cache and login limiter")
		} else {
			defer redisCache.Close()
			carCache = redisCache
			loginCounter = redisCache
			redisPinger = redisCache
		}
	}

	storageProvider, err := newStorageProvider(cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	publisher, closePublishers := newEventPublisher(cfg.Broker, appLogger)
	defer closePublishers()

	// Repositories
	userRepo := mongodb.NewUserRepository(db.Database)
	carRepo := mongodb.NewCarRepository(db.Database, carCache, cfg.Redis.CacheTTL)
	bookingRepo := mongodb.NewBookingRepository(db.Database, db)
	messageRepo := mongodb.NewMessageRepository(db.Database)
	favoriteRepo := mongodb.NewFavoriteRepository(db.Database)

	registry := websocket.NewRegistry(appLogger)
	locker := services.NewCarLocker()

	// Services
	authService := services.NewAuthService(
		userRepo,
		services.NewLoginLimiter(loginCounter, cfg.Security.MaxLoginAttempts, cfg.Security.LoginLockoutTime),
		services.AuthConfig{
			JWTSecret:         cfg.Security.JWTSecret,
			AccessTokenTTL:    cfg.Security.JWTAccessTokenTTL,
			PasswordMinLength: cfg.Security.PasswordMinLength,
		},
		appLogger,
	)
	imageService := services.NewImageService(storageProvider, services.ImageConfig{
		MaxFileSize: cfg.Storage.MaxFileSize,
		MaxSide:     cfg.Storage.MaxImageSide,
		URLExpiry:   cfg.Storage.URLExpiry,
	}, appLogger)
	profileService := services.NewProfileService(userRepo, imageService, appLogger)
	carService := services.NewCarService(carRepo, bookingRepo, favoriteRepo, imageService, locker, appLogger)
	favoriteService := services.NewFavoriteService(favoriteRepo, carRepo, appLogger)
	bookingService := services.NewBookingService(
		bookingRepo,
		carRepo,
		services.NewAvailabilityChecker(bookingRepo, carRepo),
		locker,
		publisher,
		services.BookingServiceConfig{StrictUpdateAuth: cfg.Booking.StrictUpdateAuth},
		appLogger,
	)
	chatService := services.NewChatService(messageRepo, userRepo, registry, appLogger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	profileHandler := handlers.NewProfileHandler(profileService, appLogger)
	carHandler := handlers.NewCarHandler(carService, appLogger)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService, appLogger)
	bookingHandler := handlers.NewBookingHandler(bookingService, appLogger)
	chatHandler := handlers.NewChatHandler(chatService, appLogger)
	healthHandler := handlers.NewHealthHandler(cfg.App.Version, map[string]handlers.Pinger{
		"mongodb": db,
		"redis":   redisPinger,
	})
	wsHandler := websocket.NewHandler(registry, chatHandler, chatService, websocket.HandlerConfig{
		ReadBufferSize:    cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:   cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout:  cfg.WebSocket.HandshakeTimeout,
		PingInterval:      cfg.WebSocket.PingInterval,
		PongTimeout:       cfg.WebSocket.PongTimeout,
		MaxMessageSize:    cfg.WebSocket.MaxMessageSize,
		SendBufferSize:    cfg.WebSocket.SendBufferSize,
		EnableCompression: cfg.WebSocket.EnableCompression,
		AllowedOrigins:    cfg.WebSocket.AllowedOrigins,
	}, appLogger)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid trusted proxies")
	}

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(appLogger))
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.MaxMultipartMemory = cfg.Storage.MaxFileSize

	if cfg.Storage.Provider == "local" {
		router.Static(cfg.Storage.Local.URLPrefix, cfg.Storage.Local.BasePath)
	}

	auth := middleware.AuthRequired(authService)

	// API routes
	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, authHandler)
		routes.SetupProfileRoutes(v1, auth, profileHandler)
		routes.SetupCarRoutes(v1, auth, carHandler, favoriteHandler)
		routes.SetupBookingRoutes(v1, auth, bookingHandler)
		routes.SetupChatRoutes(router, v1, auth, chatHandler, wsHandler, cfg.WebSocket.Path)
	}

	// Health check
	router.GET("/health", healthHandler.Health)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")

	// Hijacked websocket connections are not tracked by Shutdown.
	registry.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
}

func newStorageProvider(cfg *config.StorageConfig) (storage.StorageProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.Provider {
	case "aws":
		return storage.NewAWSS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, cfg.AWS.CDNDomain)
	case "gcp":
		// The client keeps its context for token refreshes.
		return storage.NewGCPStorage(context.Background(), cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
	default:
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	}
}

// newEventPublisher combines the configured booking event sinks. Sinks that
// fail to start are logged and skipped.
func newEventPublisher(cfg *config.BrokerConfig, log *logger.Logger) (services.EventPublisher, func()) {
	var (
		targets []services.EventPublisher
		closers []func() error
	)

	if cfg.AMQPURL != "" {
		publisher, err := mq.NewPublisher(cfg.AMQPURL, cfg.Exchange)
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable; booking events will not be published")
		} else {
			targets = append(targets, publisher)
			closers = append(closers, publisher.Close)
		}
	}

	if cfg.SNS != nil && cfg.SNS.TopicARN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		publisher, err := notify.NewSNSPublisher(ctx, cfg.SNS.Region, cfg.SNS.TopicARN, cfg.SNS.AccessKeyID, cfg.SNS.SecretAccessKey)
		cancel()
		if err != nil {
			log.WithError(err).Warn("SNS unavailable; booking notifications disabled")
		} else {
			targets = append(targets, publisher)
			closers = append(closers, publisher.Close)
		}
	}

	return services.NewMultiPublisher(targets...), func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.WithError(err).Warn("Failed to close event publisher")
			}
		}
	}
}
