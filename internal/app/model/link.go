package model

import "time"

const (
	StatusPublished = "published"
	StatusHidden    = "hidden"
)

// ValidStatus reports whether s is an accepted association status.
func ValidStatus(s string) bool {
	return s == StatusPublished || s == StatusHidden
}

// Link is one entity<->portal association joined with the portal name.
// RedirectURL is only populated for publications, HighlightPosition only for
// articles.
type Link struct {
	EntityID          string    `json:"entity_id" gorm:"column:entity_id"`
	PortalID          int64     `json:"portal_id" gorm:"column:portal_id"`
	PortalName        string    `json:"portal_name" gorm:"column:portal_name"`
	Slug              string    `json:"slug" gorm:"column:slug"`
	Status            string    `json:"status" gorm:"column:status"`
	RedirectURL       string    `json:"redirect_url,omitempty" gorm:"column:redirect_url"`
	HighlightPosition string    `json:"highlight_position,omitempty" gorm:"column:highlight_position"`
	CreatedAt         time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Association table models. They exist for migrations; reads and writes go
// through Link with the table chosen from the KindSpec.

type ArticlePortal struct {
	EntityID          string    `gorm:"primaryKey;size:64"`
	PortalID          int64     `gorm:"primaryKey;autoIncrement:false;uniqueIndex:ux_article_portals_portal_slug,priority:1"`
	Slug              string    `gorm:"size:255;not null;uniqueIndex:ux_article_portals_portal_slug,priority:2"`
	Status            string    `gorm:"size:32;not null;default:published"`
	HighlightPosition string    `gorm:"size:32;not null;default:''"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`

	Article *Article `gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE"`
	Portal  *Portal  `gorm:"foreignKey:PortalID;constraint:OnDelete:CASCADE"`
}

func (ArticlePortal) TableName() string { return "article_portals" }

type EventPortal struct {
	EntityID  string    `gorm:"primaryKey;size:64"`
	PortalID  int64     `gorm:"primaryKey;autoIncrement:false;uniqueIndex:ux_event_portals_portal_slug,priority:1"`
	Slug      string    `gorm:"size:255;not null;uniqueIndex:ux_event_portals_portal_slug,priority:2"`
	Status    string    `gorm:"size:32;not null;default:published"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Event  *Event  `gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE"`
	Portal *Portal `gorm:"foreignKey:PortalID;constraint:OnDelete:CASCADE"`
}

func (EventPortal) TableName() string { return "event_portals" }

type PublicationPortal struct {
	EntityID    string    `gorm:"primaryKey;size:64"`
	PortalID    int64     `gorm:"primaryKey;autoIncrement:false;uniqueIndex:ux_publication_portals_portal_slug,priority:1"`
	Slug        string    `gorm:"size:255;not null;uniqueIndex:ux_publication_portals_portal_slug,priority:2"`
	Status      string    `gorm:"size:32;not null;default:published"`
	RedirectURL string    `gorm:"type:text;not null;default:''"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	Publication *Publication `gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE"`
	Portal      *Portal      `gorm:"foreignKey:PortalID;constraint:OnDelete:CASCADE"`
}

func (PublicationPortal) TableName() string { return "publication_portals" }

type ProductPortal struct {
	EntityID  string    `gorm:"primaryKey;size:64"`
	PortalID  int64     `gorm:"primaryKey;autoIncrement:false;uniqueIndex:ux_product_portals_portal_slug,priority:1"`
	Slug      string    `gorm:"size:255;not null;uniqueIndex:ux_product_portals_portal_slug,priority:2"`
	Status    string    `gorm:"size:32;not null;default:published"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Product *Product `gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE"`
	Portal  *Portal  `gorm:"foreignKey:PortalID;constraint:OnDelete:CASCADE"`
}

func (ProductPortal) TableName() string { return "product_portals" }

// CompanyPortal is the simpler variant: slug and status only.
type CompanyPortal struct {
	EntityID  string    `gorm:"primaryKey;size:64"`
	PortalID  int64     `gorm:"primaryKey;autoIncrement:false;uniqueIndex:ux_company_portals_portal_slug,priority:1"`
	Slug      string    `gorm:"size:255;not null;uniqueIndex:ux_company_portals_portal_slug,priority:2"`
	Status    string    `gorm:"size:32;not null;default:published"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Company *Company `gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE"`
	Portal  *Portal  `gorm:"foreignKey:PortalID;constraint:OnDelete:CASCADE"`
}

func (CompanyPortal) TableName() string { return "company_portals" }
