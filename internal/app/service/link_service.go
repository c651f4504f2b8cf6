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
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// LinkService manages the portals an entity is visible on. Every mutation
// returns the entity's refreshed link list.
type LinkService interface {
	ListLinks(ctx context.Context, kind model.EntityKind, entityID string) ([]model.Link, error)
	Link(ctx context.Context, kind model.EntityKind, entityID string, portalID int64, seedTitle string) ([]model.Link, error)
	Unlink(ctx context.Context, kind model.EntityKind, entityID string, portalID int64) ([]model.Link, error)
	BulkLink(ctx context.Context, kind model.EntityKind, entityID string, rawPortalIDs []any, seedTitle string) (*BulkLinkResult, error)
	UpdateStatus(ctx context.Context, kind model.EntityKind, entityID string, portalID int64, status string) ([]model.Link, error)
	SyncRedirectURL(ctx context.Context, publicationID string) ([]model.Link, error)
}

// LinkDeps groups the collaborators of the link service.
type LinkDeps struct {
	Logger     *zap.Logger
	Links      repository.LinkRepository
	Entities   repository.EntityRepository
	Events     LinkEventPublisher
	Highlights cache.HighlightCache
}

type linkService struct {
	logger     *zap.Logger
	links      repository.LinkRepository
	entities   repository.EntityRepository
	events     LinkEventPublisher
	highlights cache.HighlightCache
}

// NewLinkService returns a service implementation backed by the given repositories.
func NewLinkService(deps LinkDeps) LinkService {
	return &linkService{
		logger:     orNop(deps.Logger),
		links:      deps.Links,
		entities:   deps.Entities,
		events:     orNopPublisher(deps.Events),
		highlights: orNopCache(deps.Highlights),
	}
}

// PortalFailure records why one portal of a bulk link was not linked.
type PortalFailure struct {
	PortalID int64  `json:"portal_id"`
	Error    string `json:"error"`
}

// BulkLinkResult reports the outcome of BulkLink per portal. Partial success
// is kept; nothing is rolled back.
type BulkLinkResult struct {
	Requested []int64         `json:"requested"`
	Linked    []int64         `json:"linked"`
	Existing  []int64         `json:"existing"`
	Failures  []PortalFailure `json:"failures"`
	Links     []model.Link    `json:"links"`
	// Err combines the per-portal failures.
	Err error `json:"-"`
}

func (s *linkService) ListLinks(ctx context.Context, kind model.EntityKind, entityID string) ([]model.Link, error) {
	links, err := s.links.ListByEntity(ctx, kind, entityID)
	if err != nil {
		if degradable(err) {
			s.logger.Warn("link backend unavailable, listing no links",
				zap.String("kind", string(kind)),
				zap.String("entity_id", entityID),
				zap.Error(err))
			return []model.Link{}, nil
		}
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *linkService) Link(ctx context.Context, kind model.EntityKind, entityID string, portalID int64, seedTitle string) ([]model.Link, error) {
	err := s.link(ctx, kind, entityID, portalID, seedTitle)
	infraPrometheus.ObserveLinkOperation(string(kind), "link", err, outcomes)
	if err != nil {
		return nil, fmt.Errorf("link to portal %d: %w", portalID, err)
	}
	return s.refreshed(ctx, kind, entityID)
}

func (s *linkService) link(ctx context.Context, kind model.EntityKind, entityID string, portalID int64, seedTitle string) error {
	if strings.TrimSpace(entityID) == "" {
		return ErrMissingEntityID
	}
	entity, err := s.entities.Lookup(ctx, kind, entityID)
	if err != nil {
		return err
	}
	_, err = s.linkEntity(ctx, entity, portalID, seedTitle)
	return err
}

// linkEntity links an already loaded entity to one portal and reports
// whether a new association was created.
func (s *linkService) linkEntity(ctx context.Context, entity *model.EntityRef, portalID int64, seedTitle string) (bool, error) {
	if _, err := s.entities.GetPortal(ctx, portalID); err != nil {
		return false, err
	}

	existing, err := s.links.Get(ctx, entity.Kind, entity.ID, portalID)
	if err == nil {
		s.logger.Debug("entity already linked to portal",
			zap.String("kind", string(entity.Kind)),
			zap.String("entity_id", entity.ID),
			zap.Int64("portal_id", portalID),
			zap.String("slug", existing.Slug))
		return false, nil
	}
	if !errors.Is(err, repository.ErrLinkNotFound) {
		return false, err
	}

	seed := seedTitle
	if strings.TrimSpace(seed) == "" {
		seed = entity.Title
	}
	taken, err := s.links.TakenSlugs(ctx, entity.Kind, portalID, SlugBase(seed, entity.ID))
	if err != nil {
		return false, err
	}
	slug, probes, err := GenerateSlug(seed, entity.ID, takenIn(taken))
	if err != nil {
		return false, err
	}
	infraPrometheus.ObserveSlugProbes(probes)

	spec, err := entity.Kind.Spec()
	if err != nil {
		return false, err
	}
	link := &model.Link{
		EntityID: entity.ID,
		PortalID: portalID,
		Slug:     slug,
		Status:   model.StatusPublished,
	}
	if spec.HasRedirect {
		link.RedirectURL = entity.RedirectURL
	}

	inserted, err := s.links.Insert(ctx, entity.Kind, link)
	if err != nil {
		return false, err
	}
	if inserted {
		s.logger.Info("entity linked to portal",
			zap.String("kind", string(entity.Kind)),
			zap.String("entity_id", entity.ID),
			zap.Int64("portal_id", portalID),
			zap.String("slug", slug))
		s.publish(ctx, entity.Kind, entity.ID, portalID, model.LinkActionLinked, "")
	}
	return inserted, nil
}

func (s *linkService) Unlink(ctx context.Context, kind model.EntityKind, entityID string, portalID int64) ([]model.Link, error) {
	deleted, err := s.links.Delete(ctx, kind, entityID, portalID)
	infraPrometheus.ObserveLinkOperation(string(kind), "unlink", err, outcomes)
	if err != nil {
		return nil, fmt.Errorf("unlink from portal %d: %w", portalID, err)
	}

	if deleted {
		s.logger.Info("entity unlinked from portal",
			zap.String("kind", string(kind)),
			zap.String("entity_id", entityID),
			zap.Int64("portal_id", portalID))
		if kind == model.KindArticle {
			s.highlights.Invalidate(ctx, portalID)
		}
		s.publish(ctx, kind, entityID, portalID, model.LinkActionUnlinked, "")
	}
	return s.refreshed(ctx, kind, entityID)
}

func (s *linkService) BulkLink(ctx context.Context, kind model.EntityKind, entityID string, rawPortalIDs []any, seedTitle string) (*BulkLinkResult, error) {
	portalIDs := NormalizePortalIDs(rawPortalIDs)
	result := &BulkLinkResult{
		Requested: portalIDs,
		Linked:    []int64{},
		Existing:  []int64{},
		Failures:  []PortalFailure{},
		Links:     []model.Link{},
	}
	if len(portalIDs) == 0 {
		return result, nil
	}
	if strings.TrimSpace(entityID) == "" {
		return nil, fmt.Errorf("bulk link: %w", ErrMissingEntityID)
	}

	entity, err := s.entities.Lookup(ctx, kind, entityID)
	if err != nil {
		infraPrometheus.ObserveLinkOperation(string(kind), "bulk_link", err, outcomes)
		return nil, fmt.Errorf("bulk link: %w", err)
	}

	for _, portalID := range portalIDs {
		inserted, err := s.linkEntity(ctx, entity, portalID, seedTitle)
		infraPrometheus.ObserveLinkOperation(string(kind), "bulk_link", err, outcomes)
		if err != nil {
			if errors.Is(err, repository.ErrNotConfigured) {
				return nil, fmt.Errorf("bulk link: %w", err)
			}
			s.logger.Warn("bulk link failed for portal",
				zap.String("kind", string(kind)),
				zap.String("entity_id", entityID),
				zap.Int64("portal_id", portalID),
				zap.Error(err))
			result.Failures = append(result.Failures, PortalFailure{PortalID: portalID, Error: err.Error()})
			result.Err = multierr.Append(result.Err, fmt.Errorf("portal %d: %w", portalID, err))
			continue
		}
		if inserted {
			result.Linked = append(result.Linked, portalID)
		} else {
			result.Existing = append(result.Existing, portalID)
		}
	}

	links, err := s.refreshed(ctx, kind, entityID)
	if err != nil {
		return nil, err
	}
	result.Links = links
	return result, nil
}

func (s *linkService) UpdateStatus(ctx context.Context, kind model.EntityKind, entityID string, portalID int64, status string) ([]model.Link, error) {
	err := s.updateStatus(ctx, kind, entityID, portalID, status)
	infraPrometheus.ObserveLinkOperation(string(kind), "status", err, outcomes)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.publish(ctx, kind, entityID, portalID, model.LinkActionStatus, "")
	return s.refreshed(ctx, kind, entityID)
}

func (s *linkService) updateStatus(ctx context.Context, kind model.EntityKind, entityID string, portalID int64, status string) error {
	if !model.ValidStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.links.UpdateStatus(ctx, kind, entityID, portalID, status)
}

func (s *linkService) SyncRedirectURL(ctx context.Context, publicationID string) ([]model.Link, error) {
	entity, err := s.entities.Lookup(ctx, model.KindPublication, publicationID)
	if err == nil {
		var n int64
		n, err = s.links.UpdateRedirectURL(ctx, entity.ID, entity.RedirectURL)
		if err == nil && n > 0 {
			s.logger.Info("publication redirect copied to links",
				zap.String("entity_id", entity.ID),
				zap.Int64("links", n))
			s.publish(ctx, model.KindPublication, entity.ID, 0, model.LinkActionRedirect, "")
		}
	}
	infraPrometheus.ObserveLinkOperation(string(model.KindPublication), "sync_redirect", err, outcomes)
	if err != nil {
		return nil, fmt.Errorf("sync redirect url: %w", err)
	}
	return s.refreshed(ctx, model.KindPublication, publicationID)
}

// refreshed lists links after a write. Unlike ListLinks it does not
// degrade: a write that went through must be able to read back.
func (s *linkService) refreshed(ctx context.Context, kind model.EntityKind, entityID string) ([]model.Link, error) {
	links, err := s.links.ListByEntity(ctx, kind, entityID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *linkService) publish(ctx context.Context, kind model.EntityKind, entityID string, portalID int64, action, position string) {
	publishEvent(ctx, s.logger, s.events, model.LinkEvent{
		Kind:     kind,
		EntityID: entityID,
		PortalID: portalID,
		Action:   action,
		Position: position,
	})
}

func publishEvent(ctx context.Context, logger *zap.Logger, events LinkEventPublisher, event model.LinkEvent) {
	if err := events.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish link event",
			zap.String("action", event.Action),
			zap.String("entity_id", event.EntityID),
			zap.Int64("portal_id", event.PortalID),
			zap.Error(err))
	}
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func orNopPublisher(p LinkEventPublisher) LinkEventPublisher {
	if p == nil {
		return NopLinkEventPublisher{}
	}
	return p
}

func orNopCache(c cache.HighlightCache) cache.HighlightCache {
	if c == nil {
		return cache.NopHighlightCache{}
	}
	return c
}
