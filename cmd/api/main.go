package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yizhiakuya/MemeStore/internal/api"
	"github.com/yizhiakuya/MemeStore/internal/cache"
	"github.com/yizhiakuya/MemeStore/internal/config"
	"github.com/yizhiakuya/MemeStore/internal/imaging"
	"github.com/yizhiakuya/MemeStore/internal/logger"
	"github.com/yizhiakuya/MemeStore/internal/repository"
	"github.com/yizhiakuya/MemeStore/internal/service"
	"github.com/yizhiakuya/MemeStore/internal/storage"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Database (schema migration runs here when auto_migrate is on)
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	memeRepo := repository.NewMemeRepository(db)
	tagRepo := repository.NewTagRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Cache
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisCache.Close()

	// Object storage (MinIO or any S3-compatible endpoint)
	objectStore, err := storage.NewS3Store(&storage.S3Config{
		Endpoint:         cfg.Storage.Endpoint,
		AccessKey:        cfg.Storage.AccessKey,
		SecretKey:        cfg.Storage.SecretKey,
		UseSSL:           cfg.Storage.UseSSL,
		Region:           cfg.Storage.Region,
		PublicURL:        cfg.Storage.PublicURL,
		OriginalBucket:   cfg.Storage.OriginalBucket,
		ThumbnailBucket:  cfg.Storage.ThumbnailBucket,
		CompressedBucket: cfg.Storage.CompressedBucket,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize object storage")
	}
	if err := objectStore.EnsureBuckets(context.Background()); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure storage buckets")
	}

	// Services
	memeService := service.NewMemeService(
		memeRepo,
		tagRepo,
		categoryRepo,
		objectStore,
		imaging.NewTranscoder(),
		redisCache,
		appLogger,
		&service.MemeServiceConfig{ListCacheTTL: cfg.Upload.ListCacheTTL},
	)
	importer := service.NewImporter(memeService, appLogger, &service.ImporterConfig{
		MaxFileSizeMB: cfg.Upload.MaxFileSizeMB,
		FetchTimeout:  cfg.Upload.RequestTimeout,
	})
	authService := service.NewAuthService(userRepo, redisCache, appLogger, service.AuthConfig{
		Secret:            cfg.Auth.JWTSecret,
		Issuer:            cfg.Auth.TokenIssuer,
		AccessTTL:         cfg.Auth.AccessTTL,
		RefreshTTL:        cfg.Auth.RefreshTTL,
		BlacklistTTL:      cfg.Auth.BlacklistTTL,
		MinPasswordLength: cfg.Auth.MinPasswordLn,
	})
	taxonomyService := service.NewTaxonomyService(tagRepo, categoryRepo, redisCache, appLogger)
	statsService := service.NewStatsService(memeRepo, tagRepo, categoryRepo)

	router := api.NewRouter(api.RouterDeps{
		Config:   cfg,
		Logger:   appLogger,
		DB:       db,
		Memes:    memeService,
		Importer: importer,
		Auth:     authService,
		Taxonomy: taxonomyService,
		Stats:    statsService,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
