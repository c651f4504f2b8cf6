package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PortalLink/config"
	appcache "github.com/sifan077/PortalLink/internal/app/cache"
	appmodel "github.com/sifan077/PortalLink/internal/app/model"
	apprepository "github.com/sifan077/PortalLink/internal/app/repository"
	appserver "github.com/sifan077/PortalLink/internal/app/server"
	appservice "github.com/sifan077/PortalLink/internal/app/service"
	"github.com/sifan077/PortalLink/internal/infra/logger"
	infraNATS "github.com/sifan077/PortalLink/internal/infra/nats"
	infraPostgres "github.com/sifan077/PortalLink/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/PortalLink/internal/infra/prometheus"
	infraRedis "github.com/sifan077/PortalLink/internal/infra/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	log := logger.MustInit(logger.ConfigFromEnv())
	defer func() { _ = logger.Sync() }()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("postgres_configured", cfg.Postgres.Configured()),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.Bool("redis_configured", cfg.Redis.Configured()),
		zap.Bool("nats_configured", cfg.NATS.Configured()),
		zap.Bool("prometheus_enabled", cfg.Prometheus.Enabled),
	)

	// Without a database the service still starts: reads answer empty
	// lists and writes fail with 503.
	var (
		gormDB *gorm.DB
		pool   *pgxpool.Pool
	)
	if cfg.Postgres.Configured() {
		gormDB, err = infraPostgres.NewGorm(cfg.Postgres, log)
		if err != nil {
			log.Fatal("Failed to open GORM connection", zap.Error(err))
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
		}
		defer sqlDB.Close()

		if cfg.Postgres.AutoMigrate {
			n, err := infraPostgres.Migrate(ctx, gormDB, log, appmodel.Migrations())
			if err != nil {
				log.Fatal("Failed to run database migrations", zap.Error(err))
			}
			log.Info("Database migrations complete", zap.Int("applied", n))
		}

		pool, err = infraPostgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			log.Fatal("Failed to connect to Postgres", zap.Error(err))
		}
		defer pool.Close()
		log.Info("Connected to Postgres successfully")
	} else {
		log.Warn("Postgres not configured, link storage disabled")
	}

	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, highlight cache and rate limiting disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Info("Connected to Redis successfully")
		}
	}

	var (
		natsConn *nats.Conn
		js       nats.JetStreamContext
	)
	if cfg.NATS.Configured() {
		natsConn, js, err = infraNATS.Connect(cfg.NATS)
		if err != nil {
			log.Warn("NATS unavailable, link events disabled", zap.Error(err))
			natsConn, js = nil, nil
		} else {
			defer natsConn.Drain()
			log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))
		}
	}

	stopMetrics := infraPrometheus.Serve(cfg.Prometheus, log)
	defer stopMetrics()

	linkRepo := apprepository.NewLinkRepository(gormDB)
	entityRepo := apprepository.NewEntityRepository(gormDB)
	highlightCache := appcache.NewHighlightCache(redisClient, cfg.Cache.HighlightTTL, logger.Named("cache"))
	events := appservice.NewLinkEventPublisher(js)

	if js != nil {
		consumer := appservice.NewLinkEventConsumer(js, logger.Named("link-events"), highlightCache)
		if err := consumer.Start(); err != nil {
			log.Warn("Failed to start link event consumer", zap.Error(err))
		} else {
			defer consumer.Stop()
			log.Info("Link event consumer started")
		}
	}

	links := appservice.NewLinkService(appservice.LinkDeps{
		Logger:     logger.Named("links"),
		Links:      linkRepo,
		Entities:   entityRepo,
		Events:     events,
		Highlights: highlightCache,
	})
	highlights := appservice.NewHighlightService(appservice.HighlightDeps{
		Logger: logger.Named("highlights"),
		Links:  linkRepo,
		Linker: links,
		Events: events,
		Cache:  highlightCache,
	})
	queries := appservice.NewQueryService(logger.Named("queries"), linkRepo, entityRepo)

	server := appserver.New(appserver.Dependencies{
		Logger:     log,
		Postgres:   pool,
		Redis:      redisClient,
		NATS:       natsConn,
		Links:      links,
		Highlights: highlights,
		Queries:    queries,
		RateLimit:  cfg.RateLimit,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- server.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Fiber server exited", zap.Error(err))
		}
	case sig := <-quit:
		log.Info("Shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shut down HTTP server", zap.Error(err))
		}
	}
}
