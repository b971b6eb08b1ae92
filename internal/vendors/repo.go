package vendors

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/internal/repo"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

// Repository handles vendor persistence.
type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

func (r *Repository) Create(ctx context.Context, v *models.Vendor) error {
	return r.DB(ctx).Create(v).Error
}

func (r *Repository) Save(ctx context.Context, v *models.Vendor) error {
	return r.DB(ctx).Save(v).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Vendor, error) {
	return repo.FindByID[models.Vendor](ctx, r.Base, id)
}

func (r *Repository) List(ctx context.Context, params pagination.Params, status *enums.RecordStatus) ([]models.Vendor, int64, error) {
	return repo.Page[models.Vendor](ctx, r.Base, params, func(q *gorm.DB) *gorm.DB {
		if status != nil {
			q = q.Where("status = ?", *status)
		}
		if params.Normalize().Search != "" {
			pattern := params.LikePattern()
			q = q.Where("LOWER(name) LIKE ? OR LOWER(vendor_code) LIKE ?", pattern, pattern)
		}
		return q
	})
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return repo.SoftDelete[models.Vendor](ctx, r.Base, id, map[string]any{"status": enums.RecordStatusInactive})
}
