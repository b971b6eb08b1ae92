package customers

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/internal/repo"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

// Repository handles customer persistence.
type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

func (r *Repository) Create(ctx context.Context, c *models.Customer) error {
	return r.DB(ctx).Create(c).Error
}

func (r *Repository) Save(ctx context.Context, c *models.Customer) error {
	return r.DB(ctx).Save(c).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Customer, error) {
	return repo.FindByID[models.Customer](ctx, r.Base, id)
}

func (r *Repository) List(ctx context.Context, params pagination.Params, status *enums.RecordStatus) ([]models.Customer, int64, error) {
	return repo.Page[models.Customer](ctx, r.Base, params, func(q *gorm.DB) *gorm.DB {
		if status != nil {
			q = q.Where("status = ?", *status)
		}
		if params.Normalize().Search != "" {
			pattern := params.LikePattern()
			q = q.Where("LOWER(name) LIKE ? OR LOWER(customer_code) LIKE ? OR LOWER(shop_name) LIKE ?", pattern, pattern, pattern)
		}
		return q
	})
}

// CustomersWithMappings returns which of ids own at least one price override.
func (r *Repository) CustomersWithMappings(ctx context.Context, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []int64
	err := r.DB(ctx).Model(&models.PriceMapping{}).
		Distinct("customer_id").
		Where("customer_id IN ?", ids).
		Pluck("customer_id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

// CountDependents returns sale orders and price overrides referencing the customer.
func (r *Repository) CountDependents(ctx context.Context, id int64) (orders int64, mappings int64, err error) {
	if err = r.DB(ctx).Model(&models.SaleOrder{}).Where("customer_id = ?", id).Count(&orders).Error; err != nil {
		return 0, 0, err
	}
	if err = r.DB(ctx).Model(&models.PriceMapping{}).Where("customer_id = ?", id).Count(&mappings).Error; err != nil {
		return 0, 0, err
	}
	return orders, mappings, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return repo.SoftDelete[models.Customer](ctx, r.Base, id, map[string]any{"status": enums.RecordStatusInactive})
}
