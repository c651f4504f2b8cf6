package main

import (
	"context"

	"github.com/sifan077/PortalLink/config"
	appmodel "github.com/sifan077/PortalLink/internal/app/model"
	"github.com/sifan077/PortalLink/internal/infra/logger"
	infraPostgres "github.com/sifan077/PortalLink/internal/infra/postgres"
	"go.uber.org/zap"
)

// migrate applies pending schema migrations and exits. Run it before
// rolling out a new server version.
func main() {
	log := logger.MustInit(logger.ConfigFromEnv())
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}
	if !cfg.Postgres.Configured() {
		log.Fatal("Postgres not configured, nothing to migrate")
	}

	db, err := infraPostgres.NewGorm(cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	n, err := infraPostgres.Migrate(context.Background(), db, log, appmodel.Migrations())
	if err != nil {
		log.Fatal("Migration failed", zap.Error(err), zap.Int("applied", n))
	}
	log.Info("Migrations complete", zap.Int("applied", n))
}
