package repository

import (
	"context"
	"errors"

	"github.com/sifan077/PortalLink/internal/app/model"
	"gorm.io/gorm"
)

// EntityRepository reads the entity and portal tables owned by other
// services. It never writes to them.
type EntityRepository interface {
	Lookup(ctx context.Context, kind model.EntityKind, id string) (*model.EntityRef, error)
	GetPortal(ctx context.Context, id int64) (*model.Portal, error)
	ListPortals(ctx context.Context) ([]model.Portal, error)
}

type entityRepository struct {
	db *gorm.DB
}

// NewEntityRepository returns a GORM-backed EntityRepository.
func NewEntityRepository(db *gorm.DB) EntityRepository {
	return &entityRepository{db: db}
}

type entityRow struct {
	ID          string `gorm:"column:id"`
	Title       string `gorm:"column:title"`
	Image       string `gorm:"column:image"`
	RedirectURL string `gorm:"column:redirect_url"`
}

func (r *entityRepository) Lookup(ctx context.Context, kind model.EntityKind, id string) (*model.EntityRef, error) {
	spec, err := kind.Spec()
	if err != nil {
		return nil, err
	}
	if r.db == nil {
		return nil, ErrNotConfigured
	}

	cols := "id, " + spec.TitleColumn + " AS title"
	if spec.ImageColumn != "" {
		cols += ", " + spec.ImageColumn + " AS image"
	} else {
		cols += ", '' AS image"
	}
	if spec.HasRedirect {
		cols += ", redirect_url"
	} else {
		cols += ", '' AS redirect_url"
	}

	var row entityRow
	if err := r.db.WithContext(ctx).
		Table(spec.EntityTable).
		Select(cols).
		Where("id = ?", id).
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, classify(err)
	}

	return &model.EntityRef{
		Kind:        kind,
		ID:          row.ID,
		Title:       row.Title,
		Image:       row.Image,
		RedirectURL: row.RedirectURL,
	}, nil
}

func (r *entityRepository) GetPortal(ctx context.Context, id int64) (*model.Portal, error) {
	if r.db == nil {
		return nil, ErrNotConfigured
	}

	var portal model.Portal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&portal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortalNotFound
		}
		return nil, classify(err)
	}
	return &portal, nil
}

func (r *entityRepository) ListPortals(ctx context.Context) ([]model.Portal, error) {
	if r.db == nil {
		return nil, ErrNotConfigured
	}

	portals := []model.Portal{}
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&portals).Error; err != nil {
		return nil, classify(err)
	}
	return portals, nil
}
