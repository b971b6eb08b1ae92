package locations

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/internal/repo"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

// Repository handles location persistence.
type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

func (r *Repository) Create(ctx context.Context, loc *models.Location) error {
	return r.DB(ctx).Create(loc).Error
}

func (r *Repository) Save(ctx context.Context, loc *models.Location) error {
	return r.DB(ctx).Save(loc).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Location, error) {
	return repo.FindByID[models.Location](ctx, r.Base, id)
}

func (r *Repository) List(ctx context.Context, params pagination.Params, status *enums.RecordStatus) ([]models.Location, int64, error) {
	return repo.Page[models.Location](ctx, r.Base, params, func(q *gorm.DB) *gorm.DB {
		if status != nil {
			q = q.Where("status = ?", *status)
		}
		if params.Normalize().Search != "" {
			pattern := params.LikePattern()
			q = q.Where("LOWER(name) LIKE ? OR LOWER(location_code) LIKE ?", pattern, pattern)
		}
		return q
	})
}

func (r *Repository) CountTrays(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Tray{}).Where("location_id = ?", id).Count(&count).Error
	return count, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return repo.SoftDelete[models.Location](ctx, r.Base, id, map[string]any{"status": enums.RecordStatusInactive})
}
