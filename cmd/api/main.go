package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/catknow/internal/api"
	"github.com/timmy/catknow/internal/cache"
	"github.com/timmy/catknow/internal/catapi"
	"github.com/timmy/catknow/internal/config"
	"github.com/timmy/catknow/internal/logger"
	"github.com/timmy/catknow/internal/ratelimit"
	"github.com/timmy/catknow/internal/service"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	if err := cfg.CatAPI.Validate(); err != nil {
		appLogger.WithError(err).Fatal("Invalid catapi configuration")
	}
	if cfg.CatAPI.APIKey == "" {
		appLogger.Warn("No API key configured, upstream requests are anonymous")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Response cache (memory, database, redis or object storage)
	responseCache := cache.New(ctx, cfg)
	defer func() {
		if err := responseCache.Close(); err != nil {
			appLogger.WithError(err).Warn("Failed to close cache backend")
		}
	}()
	cache.StartJanitor(ctx, responseCache, cfg.Cache.PurgeInterval)

	upstream := catapi.NewClient(&catapi.Config{
		BaseURL: cfg.CatAPI.BaseURL,
		APIKey:  cfg.CatAPI.APIKey,
		Timeout: cfg.CatAPI.Timeout,
		MaxRPS:  cfg.CatAPI.MaxRPS,
		Burst:   cfg.CatAPI.Burst,
	})
	catalog := service.NewCatalogService(upstream, responseCache)

	limiter := ratelimit.NewSlidingWindow(
		cfg.RateLimit.Limit,
		cfg.RateLimit.Window,
		ratelimit.WithCleanupEvery(cfg.RateLimit.CleanupInterval),
	)
	limiter.StartJanitor(ctx)

	router := api.SetupRouter(api.RouterDeps{
		Catalog:    catalog,
		Limiter:    limiter,
		Identity:   ratelimit.IdentityFromRequest(cfg.RateLimit.UseRemoteAddr),
		CacheStore: responseCache.Name(),
		Server:     cfg.Server,
		Logger:     appLogger,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":                 cfg.Server.Port,
			"mode":                 cfg.Server.Mode,
			logger.FieldCacheStore: responseCache.Name(),
			"rate_limit":           fmt.Sprintf("%d/%s", limiter.Limit(), limiter.Window()),
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
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
