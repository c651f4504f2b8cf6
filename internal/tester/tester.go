package tester

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sifan077/PortalLink/internal/app/model"
	infraPostgres "github.com/sifan077/PortalLink/internal/infra/postgres"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB opens a fresh sqlite database under t.TempDir and applies every
// schema migration to it.
func TestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "portallink.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// One connection keeps the transaction and the reads on the same file lock.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if _, err := infraPostgres.Migrate(context.Background(), db, zap.NewNop(), model.Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Seed inserts rows in order.
func Seed(t testing.TB, db *gorm.DB, rows ...interface{}) {
	t.Helper()
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}
}

// Portals seeds portals with ids 1..n in the order the names are given.
func Portals(t testing.TB, db *gorm.DB, names ...string) []model.Portal {
	t.Helper()
	portals := make([]model.Portal, 0, len(names))
	for i, name := range names {
		p := model.Portal{ID: int64(i + 1), Name: name}
		Seed(t, db, &p)
		portals = append(portals, p)
	}
	return portals
}
