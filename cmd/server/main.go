package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"shortlink/internal/clickmeta"
	"shortlink/internal/config"
	"shortlink/internal/geo"
	httphandler "shortlink/internal/handler/http"
	"shortlink/internal/ratelimit"
	"shortlink/internal/repository/postgres"
	redisrepo "shortlink/internal/repository/redis"
	"shortlink/internal/service"
	"shortlink/internal/shortcode"
	"shortlink/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.App.LogLevel)
	appLogger.Info("Starting shortlink",
		"environment", cfg.App.Environment,
		"port", cfg.Server.Port,
		"domains", cfg.App.ValidDomains,
	)

	ctx := context.Background()
	db, err := postgres.InitDB(
		ctx,
		cfg.Database.DatabaseDSN(),
		cfg.Database.MaxOpenConns,
		cfg.Database.MinIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		appLogger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		appLogger.Error("Failed to apply schema", "error", err)
		log.Fatalf("Schema migration failed: %v", err)
	}
	appLogger.Info("Database connection established")

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error("Failed to connect to redis", "error", err)
		log.Fatalf("Redis connection failed: %v", err)
	}
	defer redisClient.Close()

	linkRepo := postgres.NewLinkRepository(db)
	clickRepo := postgres.NewClickRepository(db)
	cache := redisrepo.NewCache(redisClient, cfg.Redis.CacheTTL)

	generator := shortcode.NewGenerator(cfg.App.ShortCodeLength)
	deriver := clickmeta.NewDeriver(geo.NoopResolver{})

	linkService := service.NewLinkService(
		linkRepo, clickRepo, cache, generator,
		cfg.App.ValidDomains, cfg.App.MaxCodeAttempts, appLogger,
	)
	redirectService := service.NewRedirectService(
		linkRepo, clickRepo, cache, deriver,
		cfg.App.ClickRecordTimeout, appLogger,
	)
	titleService := service.NewTitleService(nil)

	handler := httphandler.NewHandler(linkService, redirectService, titleService, appLogger)

	var limiter *ratelimit.Limiter
	if cfg.App.RateLimitEnabled {
		limiter = ratelimit.NewLimiter(redisClient, cfg.App.RateLimitPerMinute, time.Minute)
	}
	mux := httphandler.NewRouter(handler, limiter)

	finalHandler := httphandler.Chain(
		httphandler.RecoveryMiddleware(appLogger),
		httphandler.LoggingMiddleware(appLogger),
		httphandler.RequestIDMiddleware,
		httphandler.CORSMiddleware,
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", "error", err)
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exited gracefully")
}
