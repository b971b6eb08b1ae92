package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/lensretail-backend/internal/repo"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
)

// Repository handles price-mapping persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to price-mapping operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// LoadHierarchy returns active brands with their active products, price
// records, coatings and only the overrides owned by customerID.
func (r *Repository) LoadHierarchy(ctx context.Context, customerID int64) ([]models.LensBrand, error) {
	active := func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true).Order("id ASC")
	}

	var brands []models.LensBrand
	err := r.DB(ctx).
		Scopes(active).
		Preload("Products", active).
		Preload("Products.PriceRecords", active).
		Preload("Products.PriceRecords.Coating").
		Preload("Products.PriceRecords.PriceMappings", "customer_id = ?", customerID).
		Find(&brands).Error
	if err != nil {
		return nil, err
	}
	return brands, nil
}

// CustomerExists reports whether an active customer row exists.
func (r *Repository) CustomerExists(ctx context.Context, customerID int64) (bool, error) {
	return repo.Exists[models.Customer](ctx, r.Base, "id = ?", customerID)
}

// CountMappings returns how many overrides the customer has.
func (r *Repository) CountMappings(ctx context.Context, customerID int64) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.PriceMapping{}).Where("customer_id = ?", customerID).Count(&count).Error
	return count, err
}

// FindPriceRecords loads the active price records in ids with their product.
func (r *Repository) FindPriceRecords(ctx context.Context, ids []int64) ([]models.LensPriceRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var records []models.LensPriceRecord
	err := r.DB(ctx).
		Preload("Product").
		Where("id IN ?", ids).
		Where("is_active = ?", true).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Override is one row to upsert.
type Override struct {
	PriceID      int64
	DiscountRate decimal.Decimal
}

// UpsertOverrides writes every override for customerID in one transaction,
// replacing the rate of rows that already exist.
func (r *Repository) UpsertOverrides(ctx context.Context, customerID int64, overrides []Override) (int, error) {
	if len(overrides) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([]models.PriceMapping, 0, len(overrides))
	for _, o := range overrides {
		rows = append(rows, models.PriceMapping{
			CustomerID:   customerID,
			PriceID:      o.PriceID,
			DiscountRate: o.DiscountRate,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "price_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"discount_rate", "updated_at"}),
		}).CreateInBatches(&rows, 500).Error
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ListMappings returns the customer's overrides with their price record,
// product, brand and coating.
func (r *Repository) ListMappings(ctx context.Context, customerID int64) ([]models.PriceMapping, error) {
	var mappings []models.PriceMapping
	err := r.DB(ctx).
		Preload("PriceRecord").
		Preload("PriceRecord.Product").
		Preload("PriceRecord.Product.Brand").
		Preload("PriceRecord.Coating").
		Where("customer_id = ?", customerID).
		Order("price_id ASC").
		Find(&mappings).Error
	if err != nil {
		return nil, err
	}
	return mappings, nil
}

// DeleteForCustomer removes every override of the customer.
func (r *Repository) DeleteForCustomer(ctx context.Context, customerID int64) (int64, error) {
	res := r.DB(ctx).Where("customer_id = ?", customerID).Delete(&models.PriceMapping{})
	return res.RowsAffected, res.Error
}
