package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind signals an entity type this service does not link to portals.
var ErrUnknownKind = errors.New("unknown entity kind")

// EntityKind names a publishable entity type.
type EntityKind string

const (
	KindArticle     EntityKind = "article"
	KindEvent       EntityKind = "event"
	KindPublication EntityKind = "publication"
	KindProduct     EntityKind = "product"
	KindCompany     EntityKind = "company"
)

// KindSpec describes where an entity kind and its portal associations live.
type KindSpec struct {
	Kind        EntityKind
	EntityTable string
	TitleColumn string
	// ImageColumn is empty when the entity has no image.
	ImageColumn  string
	LinkTable    string
	HasRedirect  bool
	HasHighlight bool
}

var kindSpecs = map[EntityKind]KindSpec{
	KindArticle: {
		Kind:         KindArticle,
		EntityTable:  "articles",
		TitleColumn:  "title",
		ImageColumn:  "image",
		LinkTable:    "article_portals",
		HasHighlight: true,
	},
	KindEvent: {
		Kind:        KindEvent,
		EntityTable: "events",
		TitleColumn: "name",
		LinkTable:   "event_portals",
	},
	KindPublication: {
		Kind:        KindPublication,
		EntityTable: "publications",
		TitleColumn: "title",
		LinkTable:   "publication_portals",
		HasRedirect: true,
	},
	KindProduct: {
		Kind:        KindProduct,
		EntityTable: "products",
		TitleColumn: "name",
		LinkTable:   "product_portals",
	},
	KindCompany: {
		Kind:        KindCompany,
		EntityTable: "companies",
		TitleColumn: "name",
		LinkTable:   "company_portals",
	},
}

// Kinds lists every supported kind in a stable order.
func Kinds() []EntityKind {
	return []EntityKind{KindArticle, KindEvent, KindPublication, KindProduct, KindCompany}
}

// ParseKind accepts singular or plural kind names, case-insensitively.
func ParseKind(raw string) (EntityKind, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "companies":
		return KindCompany, nil
	case "articles", "events", "publications", "products":
		s = strings.TrimSuffix(s, "s")
	}
	k := EntityKind(s)
	if _, ok := kindSpecs[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
	return k, nil
}

// Spec returns the descriptor for k. Callers are expected to hold a kind
// obtained from ParseKind or one of the constants.
func (k EntityKind) Spec() (KindSpec, error) {
	spec, ok := kindSpecs[k]
	if !ok {
		return KindSpec{}, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
	return spec, nil
}
