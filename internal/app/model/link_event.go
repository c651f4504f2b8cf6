package model

import "time"

// LinkEvent announces a change to an entity<->portal association.
type LinkEvent struct {
	ID        string     `json:"id"`
	Kind      EntityKind `json:"kind"`
	EntityID  string     `json:"entity_id"`
	PortalID  int64      `json:"portal_id"`
	Action    string     `json:"action"`
	Position  string     `json:"position,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

const (
	LinkActionLinked    = "linked"
	LinkActionUnlinked  = "unlinked"
	LinkActionStatus    = "status"
	LinkActionRedirect  = "redirect"
	LinkActionHighlight = "highlight"
)

const (
	LinkStreamName     = "PORTAL_LINKS"
	LinkStreamSubject  = "portal.links.events"
	LinkConsumerName   = "link-cache-invalidator"
	LinkStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
