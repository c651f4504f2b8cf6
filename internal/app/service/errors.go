package service

import (
	"errors"

	"github.com/sifan077/PortalLink/internal/app/repository"
)

var (
	// ErrInvalidPosition is returned for a highlight position outside the vocabulary.
	ErrInvalidPosition = errors.New("invalid highlight position")
	// ErrInvalidStatus is returned for a link status outside the vocabulary.
	ErrInvalidStatus = errors.New("invalid link status")
	// ErrHighlightUnsupported is returned when a highlight is set on a non-article link.
	ErrHighlightUnsupported = errors.New("highlight positions apply to articles only")
	// ErrMissingEntityID is returned when an operation names no entity.
	ErrMissingEntityID = errors.New("entity id is required")
)

// outcomes labels the errors worth telling apart in metrics.
var outcomes = map[string]error{
	"not_configured": repository.ErrNotConfigured,
	"not_found":      repository.ErrEntityNotFound,
	"portal_missing": repository.ErrPortalNotFound,
	"unlinked":       repository.ErrLinkNotFound,
	"slug_conflict":  repository.ErrSlugConflict,
	"highlight_race": repository.ErrHighlightTaken,
	"schema_drift":   repository.ErrSchemaDrift,
}

// degradable reports whether a read may answer with an empty result instead
// of failing: no backend, or a table that has not been provisioned yet.
func degradable(err error) bool {
	return errors.Is(err, repository.ErrNotConfigured) || errors.Is(err, repository.ErrTableMissing)
}
