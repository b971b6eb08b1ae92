package trays

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/internal/repo"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

// Repository handles tray persistence.
type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

func (r *Repository) Create(ctx context.Context, tray *models.Tray) error {
	return r.DB(ctx).Omit("Location").Create(tray).Error
}

func (r *Repository) Save(ctx context.Context, tray *models.Tray) error {
	return r.DB(ctx).Omit("Location").Save(tray).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Tray, error) {
	return repo.FindByID[models.Tray](ctx, r.Base, id, "Location")
}

func (r *Repository) LocationExists(ctx context.Context, id int64) (bool, error) {
	return repo.Exists[models.Location](ctx, r.Base, "id = ?", id)
}

func (r *Repository) List(ctx context.Context, params pagination.Params, filter Filter) ([]models.Tray, int64, error) {
	return repo.Page[models.Tray](ctx, r.Base, params, func(q *gorm.DB) *gorm.DB {
		if filter.LocationID != nil {
			q = q.Where("location_id = ?", *filter.LocationID)
		}
		if filter.Status != nil {
			q = q.Where("status = ?", *filter.Status)
		}
		if params.Normalize().Search != "" {
			pattern := params.LikePattern()
			q = q.Where("LOWER(name) LIKE ? OR LOWER(tray_code) LIKE ?", pattern, pattern)
		}
		return q
	}, "Location")
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return repo.SoftDelete[models.Tray](ctx, r.Base, id, map[string]any{"status": enums.RecordStatusInactive})
}
