package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sifan077/PortalLink/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LinkRepository defines the data access contract for entity<->portal links.
// Every method is parameterised by the entity kind, which selects the
// association table.
type LinkRepository interface {
	ListByEntity(ctx context.Context, kind model.EntityKind, entityID string) ([]model.Link, error)
	Get(ctx context.Context, kind model.EntityKind, entityID string, portalID int64) (*model.Link, error)
	// Insert adds the link unless the (entity, portal) pair already exists.
	// It reports whether a row was written.
	Insert(ctx context.Context, kind model.EntityKind, link *model.Link) (bool, error)
	Delete(ctx context.Context, kind model.EntityKind, entityID string, portalID int64) (bool, error)
	// TakenSlugs returns the slugs in the portal equal to base or starting with "base-".
	TakenSlugs(ctx context.Context, kind model.EntityKind, portalID int64, base string) (map[string]struct{}, error)
	UpdateStatus(ctx context.Context, kind model.EntityKind, entityID string, portalID int64, status string) error
	UpdateRedirectURL(ctx context.Context, entityID, redirectURL string) (int64, error)

	// SetHighlight moves position onto the article's link in one transaction,
	// clearing it from any other article in the same portal first. It
	// reports false without writing when the article already holds position.
	SetHighlight(ctx context.Context, entityID string, portalID int64, position string) (bool, error)
	ClearHighlight(ctx context.Context, portalID int64, position string) (int64, error)
	ListHighlights(ctx context.Context, portalID int64) ([]model.Highlight, error)

	ListEntitiesInPortals(ctx context.Context, kind model.EntityKind, portalNames []string) ([]model.ListingRow, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository. A nil db yields a
// repository whose every call fails with ErrNotConfigured.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) conn(ctx context.Context, kind model.EntityKind) (*gorm.DB, model.KindSpec, error) {
	spec, err := kind.Spec()
	if err != nil {
		return nil, model.KindSpec{}, err
	}
	if r.db == nil {
		return nil, spec, ErrNotConfigured
	}
	return r.db.WithContext(ctx), spec, nil
}

func linkSelect(spec model.KindSpec) string {
	cols := []string{
		"l.entity_id", "l.portal_id", "p.name AS portal_name", "l.slug", "l.status",
		"l.created_at", "l.updated_at",
	}
	if spec.HasRedirect {
		cols = append(cols, "l.redirect_url")
	} else {
		cols = append(cols, "'' AS redirect_url")
	}
	if spec.HasHighlight {
		cols = append(cols, "l.highlight_position")
	} else {
		cols = append(cols, "'' AS highlight_position")
	}
	return strings.Join(cols, ", ")
}

func linkInsertColumns(spec model.KindSpec) []string {
	cols := []string{"entity_id", "portal_id", "slug", "status", "created_at", "updated_at"}
	if spec.HasRedirect {
		cols = append(cols, "redirect_url")
	}
	if spec.HasHighlight {
		cols = append(cols, "highlight_position")
	}
	return cols
}

func (r *linkRepository) joined(db *gorm.DB, spec model.KindSpec) *gorm.DB {
	return db.Table(spec.LinkTable + " AS l").
		Select(linkSelect(spec)).
		Joins("JOIN portals p ON p.id = l.portal_id")
}

func (r *linkRepository) ListByEntity(ctx context.Context, kind model.EntityKind, entityID string) ([]model.Link, error) {
	db, spec, err := r.conn(ctx, kind)
	if err != nil {
		return nil, err
	}

	links := []model.Link{}
	if err := r.joined(db, spec).
		Where("l.entity_id = ?", entityID).
		Order("p.name ASC, l.portal_id ASC").
		Scan(&links).Error; err != nil {
		return nil, classify(err)
	}
	return links, nil
}

func (r *linkRepository) Get(ctx context.Context, kind model.EntityKind, entityID string, portalID int64) (*model.Link, error) {
	db, spec, err := r.conn(ctx, kind)
	if err != nil {
		return nil, err
	}

	var links []model.Link
	if err := r.joined(db, spec).
		Where("l.entity_id = ? AND l.portal_id = ?", entityID, portalID).
		Limit(1).
		Scan(&links).Error; err != nil {
		return nil, classify(err)
	}
	if len(links) == 0 {
		return nil, ErrLinkNotFound
	}
	return &links[0], nil
}

func (r *linkRepository) Insert(ctx context.Context, kind model.EntityKind, link *model.Link) (bool, error) {
	db, spec, err := r.conn(ctx, kind)
	if err != nil {
		return false, err
	}

	if link.Status == "" {
		link.Status = model.StatusPublished
	}
	result := db.Table(spec.LinkTable).
		Select(linkInsertColumns(spec)).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_id"}, {Name: "portal_id"}},
			DoNothing: true,
		}).
		Create(link)
	if result.Error != nil {
		return false, classify(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *linkRepository) Delete(ctx context.Context, kind model.EntityKind, entityID string, portalID int64) (bool, error) {
	db, spec, err := r.conn(ctx, kind)
	if err != nil {
		return false, err
	}

	result := db.Table(spec.LinkTable).
		Where("entity_id = ? AND portal_id = ?", entityID, portalID).
		Delete(&model.Link{})
	if result.Error != nil {
		return false, classify(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *linkRepository) TakenSlugs(ctx context.Context, kind model.EntityKind, portalID int64, base string) (map[string]struct{}, error) {
	db, spec, err := r.conn(ctx, kind)
	if err != nil {
		return nil, err
	}

	var slugs []string
	if err := db.Table(spec.LinkTable).
		Where("portal_id = ? AND (slug = ? OR slug LIKE ?)", portalID, base, base+"-%").
		Pluck("slug", &slugs).Error; err != nil {
		return nil, classify(err)
	}

	taken := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		taken[s] = struct{}{}
	}
	return taken, nil
}

func (r *linkRepository) UpdateStatus(ctx context.Context, kind model.EntityKind, entityID string, portalID int64, status string) error {
	db, spec, err := r.conn(ctx, kind)
	if err != nil {
		return err
	}

	result := db.Table(spec.LinkTable).
		Where("entity_id = ? AND portal_id = ?", entityID, portalID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (r *linkRepository) UpdateRedirectURL(ctx context.Context, entityID, redirectURL string) (int64, error) {
	db, spec, err := r.conn(ctx, model.KindPublication)
	if err != nil {
		return 0, err
	}

	result := db.Table(spec.LinkTable).
		Where("entity_id = ?", entityID).
		Updates(map[string]interface{}{
			"redirect_url": redirectURL,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, classify(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *linkRepository) SetHighlight(ctx context.Context, entityID string, portalID int64, position string) (bool, error) {
	db, spec, err := r.conn(ctx, model.KindArticle)
	if err != nil {
		return false, err
	}

	changed := false
	now := time.Now().UTC()
	err = db.Transaction(func(tx *gorm.DB) error {
		var current struct {
			HighlightPosition string
		}
		if err := tx.Table(spec.LinkTable).
			Select("highlight_position").
			Where("entity_id = ? AND portal_id = ?", entityID, portalID).
			Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLinkNotFound
			}
			return err
		}
		if current.HighlightPosition == position {
			return nil
		}

		if position != "" {
			if err := tx.Table(spec.LinkTable).
				Where("portal_id = ? AND highlight_position = ? AND entity_id <> ?", portalID, position, entityID).
				Updates(map[string]interface{}{
					"highlight_position": "",
					"updated_at":         now,
				}).Error; err != nil {
				return err
			}
		}

		if err := tx.Table(spec.LinkTable).
			Where("entity_id = ? AND portal_id = ? AND highlight_position <> ?", entityID, portalID, position).
			Updates(map[string]interface{}{
				"highlight_position": position,
				"updated_at":         now,
			}).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, classify(err)
	}
	return changed, nil
}

func (r *linkRepository) ClearHighlight(ctx context.Context, portalID int64, position string) (int64, error) {
	db, spec, err := r.conn(ctx, model.KindArticle)
	if err != nil {
		return 0, err
	}

	result := db.Table(spec.LinkTable).
		Where("portal_id = ? AND highlight_position = ?", portalID, position).
		Updates(map[string]interface{}{
			"highlight_position": "",
			"updated_at":         time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, classify(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *linkRepository) ListHighlights(ctx context.Context, portalID int64) ([]model.Highlight, error) {
	db, spec, err := r.conn(ctx, model.KindArticle)
	if err != nil {
		return nil, err
	}

	highlights := []model.Highlight{}
	if err := db.Table(spec.LinkTable+" AS l").
		Select("l.highlight_position AS position, l.entity_id, a."+spec.TitleColumn+" AS title, a."+spec.ImageColumn+" AS image").
		Joins("JOIN "+spec.EntityTable+" a ON a.id = l.entity_id").
		Where("l.portal_id = ? AND l.highlight_position <> ''", portalID).
		Scan(&highlights).Error; err != nil {
		return nil, classify(err)
	}

	sort.SliceStable(highlights, func(i, j int) bool {
		return positionOrder(highlights[i].Position) < positionOrder(highlights[j].Position)
	})
	return highlights, nil
}

// positionOrder sorts unknown positions after the vocabulary.
func positionOrder(p string) int {
	if rank := model.PositionRank(p); rank >= 0 {
		return rank
	}
	return len(model.HighlightPositions())
}

func (r *linkRepository) ListEntitiesInPortals(ctx context.Context, kind model.EntityKind, portalNames []string) ([]model.ListingRow, error) {
	db, spec, err := r.conn(ctx, kind)
	if err != nil {
		return nil, err
	}

	cols := []string{"e.id AS entity_id", "e." + spec.TitleColumn + " AS title", "p.name AS portal_name"}
	if spec.HasHighlight {
		cols = append(cols,
			"e.highlight_position AS entity_highlight_position",
			"l.highlight_position AS link_highlight_position")
	} else {
		cols = append(cols,
			"'' AS entity_highlight_position",
			"'' AS link_highlight_position")
	}

	q := db.Table(spec.EntityTable + " AS e").
		Select(strings.Join(cols, ", ")).
		Joins("JOIN " + spec.LinkTable + " l ON l.entity_id = e.id").
		Joins("JOIN portals p ON p.id = l.portal_id")
	if len(portalNames) > 0 {
		q = q.Where("p.name IN ?", portalNames)
	}

	rows := []model.ListingRow{}
	if err := q.Order("e." + spec.TitleColumn + " ASC, e.id ASC, p.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return rows, nil
}
