package model

import "time"

// The entity tables are owned by the content services. They are declared
// here so the schema can be provisioned for standalone runs and tests, and
// so link queries have something to join against.

type Portal struct {
	ID   int64  `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:255;not null"`
}

func (Portal) TableName() string { return "portals" }

type Article struct {
	ID                string    `gorm:"primaryKey;size:64"`
	Title             string    `gorm:"size:512;not null;default:''"`
	Image             string    `gorm:"type:text;not null;default:''"`
	HighlightPosition string    `gorm:"size:32;not null;default:''"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

func (Article) TableName() string { return "articles" }

type Event struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"size:512;not null;default:''"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Event) TableName() string { return "events" }

type Publication struct {
	ID          string    `gorm:"primaryKey;size:64"`
	Title       string    `gorm:"size:512;not null;default:''"`
	RedirectURL string    `gorm:"type:text;not null;default:''"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Publication) TableName() string { return "publications" }

type Product struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"size:512;not null;default:''"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Product) TableName() string { return "products" }

type Company struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"size:512;not null;default:''"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Company) TableName() string { return "companies" }

// EntityRef is the slice of an entity this service reads: identity, the
// title used to seed slugs and, where the kind has them, image and redirect.
type EntityRef struct {
	Kind        EntityKind
	ID          string
	Title       string
	Image       string
	RedirectURL string
}
