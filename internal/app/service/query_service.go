package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sifan077/PortalLink/internal/app/model"
	"github.com/sifan077/PortalLink/internal/app/repository"
	"go.uber.org/zap"
)

// QueryService answers display questions that join entities with their
// portal links.
type QueryService interface {
	ListPortals(ctx context.Context) ([]model.Portal, error)
	// ListVisibleEntities lists each entity linked to at least one of the
	// named portals once. No names means any portal.
	ListVisibleEntities(ctx context.Context, kind model.EntityKind, portalNames []string) ([]model.ListedEntity, error)
}

type queryService struct {
	logger   *zap.Logger
	links    repository.LinkRepository
	entities repository.EntityRepository
}

// NewQueryService returns a read-only query service.
func NewQueryService(logger *zap.Logger, links repository.LinkRepository, entities repository.EntityRepository) QueryService {
	return &queryService{logger: orNop(logger), links: links, entities: entities}
}

func (s *queryService) ListPortals(ctx context.Context) ([]model.Portal, error) {
	portals, err := s.entities.ListPortals(ctx)
	if err != nil {
		if degradable(err) {
			s.logger.Warn("link backend unavailable, listing no portals", zap.Error(err))
			return []model.Portal{}, nil
		}
		return nil, fmt.Errorf("list portals: %w", err)
	}
	return portals, nil
}

func (s *queryService) ListVisibleEntities(ctx context.Context, kind model.EntityKind, portalNames []string) ([]model.ListedEntity, error) {
	rows, err := s.links.ListEntitiesInPortals(ctx, kind, cleanNames(portalNames))
	if err != nil {
		if degradable(err) {
			s.logger.Warn("link backend unavailable, listing no entities",
				zap.String("kind", string(kind)),
				zap.Error(err))
			return []model.ListedEntity{}, nil
		}
		return nil, fmt.Errorf("list visible entities: %w", err)
	}
	return collapseListing(rows), nil
}

// collapseListing folds (entity, portal) rows into one entry per entity,
// keeping row order. Rows of one entity arrive sorted by portal name; the
// first per-portal highlight among them replaces the entity's own value.
func collapseListing(rows []model.ListingRow) []model.ListedEntity {
	out := []model.ListedEntity{}
	index := make(map[string]int, len(rows))
	overridden := make(map[string]bool, len(rows))

	for _, row := range rows {
		i, ok := index[row.EntityID]
		if !ok {
			out = append(out, model.ListedEntity{
				ID:                row.EntityID,
				Title:             row.Title,
				HighlightPosition: row.EntityHighlightPosition,
				Portals:           []string{},
			})
			i = len(out) - 1
			index[row.EntityID] = i
		}

		entry := &out[i]
		if n := len(entry.Portals); n == 0 || entry.Portals[n-1] != row.PortalName {
			entry.Portals = append(entry.Portals, row.PortalName)
		}
		if !overridden[row.EntityID] && row.LinkHighlightPosition != "" {
			entry.HighlightPosition = row.LinkHighlightPosition
			overridden[row.EntityID] = true
		}
	}
	return out
}

func cleanNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
