package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant_menu/internal/api"
	"restaurant_menu/internal/app/service"
	"restaurant_menu/internal/app/worker"
	"restaurant_menu/internal/common/security"
	"restaurant_menu/internal/domain/repository"
	"restaurant_menu/internal/platform/cache"
	"restaurant_menu/internal/platform/config"
	"restaurant_menu/internal/platform/database"
	"restaurant_menu/internal/platform/logging"
	"restaurant_menu/internal/platform/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.IsProduction())
	logger.Info(ctx, "configuration loaded", "config", cfg.String())
	if len(cfg.JWTKey) == 0 {
		logger.Warn(ctx, "JWT_SECRET is not set; login and verify will fail until it is")
	}

	// 2. Initialize Database
	db, err := database.Connect(ctx, cfg.DBConnStr)
	if err != nil {
		logger.Error(ctx, "database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Error(ctx, "database migration failed", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "database ready")

	// 3. Image storage
	var images storage.ImageStore = storage.InlineStore{}
	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			logger.Error(ctx, "s3 setup failed", "error", err)
			os.Exit(1)
		}
		images = s3Store
		logger.Info(ctx, "images stored in s3", "bucket", cfg.S3Bucket)
	} else {
		logger.Info(ctx, "no image host configured; images stored inline")
	}

	// 4. Optional Redis: menu cache and image cleanup queue
	var (
		menuCache service.MenuCache
		cleaner   service.ImageCleaner = storage.ImmediateCleaner{Store: images}
	)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerDone := make(chan struct{})

	if cfg.RedisEnabled() {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error(ctx, "redis connection failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()

		menuCache = cache.NewRedisMenuCache(rdb, cfg.MenuCacheTTL)
		queue := worker.NewRedisCleanupQueue(rdb, cfg.ImageCleanupQueue)
		cleaner = queue

		cleanupWorker := worker.NewImageCleanupWorker(queue, images, logger.With("component", "image_cleanup"))
		go func() {
			defer close(workerDone)
			cleanupWorker.Start(workerCtx)
		}()
		logger.Info(ctx, "redis connected", "addr", cfg.RedisAddr)
	} else {
		close(workerDone)
	}

	// 5. Repositories and services
	userRepo := repository.NewPgUserRepository(db)
	menuRepo := repository.NewPgMenuItemRepository(db)

	authService := service.NewAuthService(userRepo, security.NewTokenIssuer(cfg.JWTKey))
	menuService := service.NewMenuService(menuRepo, images, cleaner, menuCache, logger.With("component", "menu"))

	// 6. Router & HTTP Server
	router := api.NewRouter(authService, menuService, logger, api.RouterOptions{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		SecureCookies:  cfg.IsProduction(),
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 7. Graceful Shutdown
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error(context.Background(), "server failed", "error", err)
	}

	logger.Info(context.Background(), "shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown failed", "error", err)
	}
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
	}
	logger.Info(context.Background(), "server and worker stopped")
}
