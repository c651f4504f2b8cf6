package model

// ListedEntity is an entity row of a portal-filtered listing.
type ListedEntity struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	HighlightPosition string   `json:"highlight_position,omitempty"`
	Portals           []string `json:"portals"`
}

// ListingRow is one (entity, matching portal) pair before de-duplication.
type ListingRow struct {
	EntityID                string `gorm:"column:entity_id"`
	Title                   string `gorm:"column:title"`
	EntityHighlightPosition string `gorm:"column:entity_highlight_position"`
	LinkHighlightPosition   string `gorm:"column:link_highlight_position"`
	PortalName              string `gorm:"column:portal_name"`
}
