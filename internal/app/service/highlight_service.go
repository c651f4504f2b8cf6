package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sifan077/PortalLink/internal/app/cache"
	"github.com/sifan077/PortalLink/internal/app/model"
	"github.com/sifan077/PortalLink/internal/app/repository"
	infraPrometheus "github.com/sifan077/PortalLink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// HighlightService keeps each highlight position of a portal on at most one
// article.
type HighlightService interface {
	Positions() []string
	SetHighlightPosition(ctx context.Context, entityID string, portalID int64, position string) ([]model.Link, error)
	GetHighlightedEntities(ctx context.Context, portalID int64) ([]model.Highlight, error)
	// SetHighlightedEntityForPosition links the article to the portal when
	// needed, then gives it the position. An empty entityID empties the slot.
	SetHighlightedEntityForPosition(ctx context.Context, portalID int64, position, entityID string) ([]model.Highlight, error)
	ClearPosition(ctx context.Context, portalID int64, position string) error
}

// HighlightDeps groups the collaborators of the highlight service.
type HighlightDeps struct {
	Logger *zap.Logger
	Links  repository.LinkRepository
	// Linker links articles that are not yet on the portal.
	Linker LinkService
	Events LinkEventPublisher
	Cache  cache.HighlightCache
}

type highlightService struct {
	logger *zap.Logger
	links  repository.LinkRepository
	linker LinkService
	events LinkEventPublisher
	cache  cache.HighlightCache
}

// NewHighlightService returns a highlight service backed by the article link table.
func NewHighlightService(deps HighlightDeps) HighlightService {
	return &highlightService{
		logger: orNop(deps.Logger),
		links:  deps.Links,
		linker: deps.Linker,
		events: orNopPublisher(deps.Events),
		cache:  orNopCache(deps.Cache),
	}
}

func (s *highlightService) Positions() []string {
	return model.HighlightPositions()
}

func (s *highlightService) SetHighlightPosition(ctx context.Context, entityID string, portalID int64, position string) ([]model.Link, error) {
	err := s.setPosition(ctx, entityID, portalID, position)
	infraPrometheus.ObserveLinkOperation(string(model.KindArticle), "highlight", err, outcomes)
	if err != nil {
		return nil, fmt.Errorf("set highlight position: %w", err)
	}

	links, err := s.links.ListByEntity(ctx, model.KindArticle, entityID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *highlightService) setPosition(ctx context.Context, entityID string, portalID int64, position string) error {
	position = strings.TrimSpace(position)
	if position != "" && !model.ValidHighlightPosition(position) {
		return fmt.Errorf("%w: %q", ErrInvalidPosition, position)
	}
	if strings.TrimSpace(entityID) == "" {
		return ErrMissingEntityID
	}

	changed, err := s.links.SetHighlight(ctx, entityID, portalID, position)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	s.cache.Invalidate(ctx, portalID)

	s.logger.Info("highlight position set",
		zap.String("entity_id", entityID),
		zap.Int64("portal_id", portalID),
		zap.String("position", position))
	publishEvent(ctx, s.logger, s.events, model.LinkEvent{
		Kind:     model.KindArticle,
		EntityID: entityID,
		PortalID: portalID,
		Action:   model.LinkActionHighlight,
		Position: position,
	})
	return nil
}

func (s *highlightService) GetHighlightedEntities(ctx context.Context, portalID int64) ([]model.Highlight, error) {
	if cached, ok := s.cache.Get(ctx, portalID); ok {
		return cached, nil
	}

	generation, genErr := s.cache.Generation(ctx, portalID)
	highlights, err := s.links.ListHighlights(ctx, portalID)
	if err != nil {
		if degradable(err) {
			s.logger.Warn("link backend unavailable, listing no highlights",
				zap.Int64("portal_id", portalID),
				zap.Error(err))
			return []model.Highlight{}, nil
		}
		return nil, fmt.Errorf("list highlights: %w", err)
	}

	if genErr == nil {
		s.cache.Set(ctx, portalID, generation, highlights)
	}
	return highlights, nil
}

func (s *highlightService) SetHighlightedEntityForPosition(ctx context.Context, portalID int64, position, entityID string) ([]model.Highlight, error) {
	position = strings.TrimSpace(position)
	if !model.ValidHighlightPosition(position) {
		return nil, fmt.Errorf("set highlighted entity: %w: %q", ErrInvalidPosition, position)
	}

	if strings.TrimSpace(entityID) == "" {
		if err := s.ClearPosition(ctx, portalID, position); err != nil {
			return nil, err
		}
		return s.current(ctx, portalID)
	}

	if _, err := s.links.Get(ctx, model.KindArticle, entityID, portalID); err != nil {
		if !errors.Is(err, repository.ErrLinkNotFound) {
			return nil, fmt.Errorf("set highlighted entity: %w", err)
		}
		// Not on the portal yet: the article's own title seeds the slug.
		if _, err := s.linker.Link(ctx, model.KindArticle, entityID, portalID, ""); err != nil {
			return nil, fmt.Errorf("set highlighted entity: %w", err)
		}
	}

	if _, err := s.SetHighlightPosition(ctx, entityID, portalID, position); err != nil {
		return nil, err
	}
	return s.current(ctx, portalID)
}

func (s *highlightService) ClearPosition(ctx context.Context, portalID int64, position string) error {
	position = strings.TrimSpace(position)
	if !model.ValidHighlightPosition(position) {
		return fmt.Errorf("clear highlight position: %w: %q", ErrInvalidPosition, position)
	}

	n, err := s.links.ClearHighlight(ctx, portalID, position)
	infraPrometheus.ObserveLinkOperation(string(model.KindArticle), "clear_highlight", err, outcomes)
	if err != nil {
		return fmt.Errorf("clear highlight position: %w", err)
	}
	if n == 0 {
		return nil
	}

	s.cache.Invalidate(ctx, portalID)
	s.logger.Info("highlight position cleared",
		zap.Int64("portal_id", portalID),
		zap.String("position", position))
	publishEvent(ctx, s.logger, s.events, model.LinkEvent{
		Kind:     model.KindArticle,
		PortalID: portalID,
		Action:   model.LinkActionHighlight,
		Position: "",
	})
	return nil
}

// current reads highlights straight from the database after a write.
func (s *highlightService) current(ctx context.Context, portalID int64) ([]model.Highlight, error) {
	highlights, err := s.links.ListHighlights(ctx, portalID)
	if err != nil {
		return nil, fmt.Errorf("list highlights: %w", err)
	}
	return highlights, nil
}
