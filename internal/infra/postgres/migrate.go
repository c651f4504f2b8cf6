package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migration is one versioned schema step. Steps run once, in version order,
// each inside its own transaction.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

type schemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (schemaMigration) TableName() string { return "schema_migrations" }

// Migrate applies every migration whose version is not yet recorded and
// returns how many ran. It is meant for deploy time; request paths never
// alter the schema.
func Migrate(ctx context.Context, db *gorm.DB, log *zap.Logger, migrations []Migration) (int, error) {
	if db == nil || len(migrations) == 0 {
		return 0, nil
	}
	if log == nil {
		log = zap.NewNop()
	}

	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return 0, fmt.Errorf("postgres: prepare schema_migrations: %w", err)
	}

	var applied []int
	if err := db.Model(&schemaMigration{}).Pluck("version", &applied).Error; err != nil {
		return 0, fmt.Errorf("postgres: read schema_migrations: %w", err)
	}
	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}

	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	ran := 0
	for _, m := range ordered {
		if _, ok := done[m.Version]; ok {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&schemaMigration{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("postgres: migration %d (%s): %w", m.Version, m.Name, err)
		}
		log.Info("applied schema migration", zap.Int("version", m.Version), zap.String("name", m.Name))
		ran++
	}

	return ran, nil
}

// AutoMigrate uses GORM to create or extend tables for the provided models.
func AutoMigrate(tx *gorm.DB, models ...interface{}) error {
	if tx == nil || len(models) == 0 {
		return nil
	}

	if err := tx.AutoMigrate(models...); err != nil {
		return fmt.Errorf("postgres: auto migrate: %w", err)
	}

	return nil
}
