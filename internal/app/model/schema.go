package model

import (
	infraPostgres "github.com/sifan077/PortalLink/internal/infra/postgres"
	"gorm.io/gorm"
)

// SchemaModels lists every table in migration order.
func SchemaModels() []interface{} {
	return []interface{}{
		&Portal{},
		&Article{}, &Event{}, &Publication{}, &Product{}, &Company{},
		&ArticlePortal{}, &EventPortal{}, &PublicationPortal{}, &ProductPortal{}, &CompanyPortal{},
	}
}

// Migrations is the ordered schema history. Append new steps; never edit
// one that has shipped.
func Migrations() []infraPostgres.Migration {
	return []infraPostgres.Migration{
		{
			Version: 1,
			Name:    "create content, portal and association tables",
			Up: func(tx *gorm.DB) error {
				return infraPostgres.AutoMigrate(tx, SchemaModels()...)
			},
		},
		{
			Version: 2,
			Name:    "one article per highlight position per portal",
			Up: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_article_portals_portal_highlight
					ON article_portals (portal_id, highlight_position)
					WHERE highlight_position <> ''`).Error
			},
		},
	}
}
