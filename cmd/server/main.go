package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sifan077/ListingBank/config"
	appmodel "github.com/sifan077/ListingBank/internal/app/model"
	apprepository "github.com/sifan077/ListingBank/internal/app/repository"
	appserver "github.com/sifan077/ListingBank/internal/app/server"
	appservice "github.com/sifan077/ListingBank/internal/app/service"
	httpUtil "github.com/sifan077/ListingBank/internal/http/util"
	"github.com/sifan077/ListingBank/internal/infra/logger"
	infraNATS "github.com/sifan077/ListingBank/internal/infra/nats"
	infraPostgres "github.com/sifan077/ListingBank/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/ListingBank/internal/infra/prometheus"
	infraRedis "github.com/sifan077/ListingBank/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCfg := logger.FromEnv("listingbank")
	log := logger.MustInit(logCfg)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT secret is not configured", zap.Error(httpUtil.ErrMissingSecret))
	}

	log.Info("Configuration loaded successfully",
		zap.String("http_addr", cfg.Server.Addr),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_url", infraNATS.URL(cfg.NATS)),
		zap.Duration("listing_lifetime", cfg.Listing.DefaultLifetime),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.Listing{}, &appmodel.AdminNotification{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully", zap.String("addr", infraRedis.Addr(cfg.Redis)))

	natsConn, js, err := infraNATS.Connect(cfg.NATS, log)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully")

	listingRepo := apprepository.NewCachedListingRepository(
		apprepository.NewListingRepository(gormDB),
		redisClient,
		cfg.Listing.CacheTTL,
		log.Named("listing_cache"),
	)
	notificationRepo := apprepository.NewAdminNotificationRepository(gormDB)

	// The consumer owns stream creation, so it starts before anything publishes.
	consumer := appservice.NewNotificationConsumer(js, log.Named("notifier"), notificationRepo)
	if err := consumer.Start(ctx); err != nil {
		log.Fatal("Failed to start listing event consumer", zap.Error(err))
	}

	listings := appservice.NewListingService(appservice.ListingDeps{
		Repo:            listingRepo,
		Events:          appservice.NewListingEventPublisher(js),
		Logger:          log.Named("listings"),
		DefaultLifetime: cfg.Listing.DefaultLifetime,
	})

	if !logCfg.Development {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.String("addr", promServer.Addr))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	server := appserver.New(appserver.Dependencies{
		Logger:        log,
		Postgres:      pool,
		Redis:         redisClient,
		RateLimit:     cfg.RateLimit,
		Listings:      listings,
		Notifications: notificationRepo,
		Tokens:        httpUtil.NewTokenVerifier([]byte(cfg.Auth.JWTSecret)),
	})

	go func() {
		<-ctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Graceful shutdown failed", zap.Error(err))
		}
	}()

	if err := server.Listen(cfg.Server.Addr); err != nil {
		log.Error("Fiber server exited", zap.Error(err))
	}
}
