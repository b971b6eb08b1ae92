package saleorders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/internal/repo"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

// Repository handles sale order persistence.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) FindCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	return repo.FindByID[models.Customer](ctx, r.Base, id)
}

// FindPriceRecords returns active price records keyed by id.
func (r *Repository) FindPriceRecords(ctx context.Context, ids []int64) (map[int64]models.LensPriceRecord, error) {
	var rows []models.LensPriceRecord
	if err := r.DB(ctx).Where("id IN ? AND is_active = ?", ids, true).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]models.LensPriceRecord, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// CustomerRates returns the customer's override rate per price record.
func (r *Repository) CustomerRates(ctx context.Context, customerID int64, priceIDs []int64) (map[int64]decimal.Decimal, error) {
	var rows []models.PriceMapping
	if err := r.DB(ctx).Where("customer_id = ? AND price_id IN ?", customerID, priceIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.PriceID] = row.DiscountRate
	}
	return out, nil
}

func (r *Repository) MaterialExists(ctx context.Context, id int64) (bool, error) {
	return repo.Exists[models.LensMaterial](ctx, r.Base, "id = ? AND is_active = ?", id, true)
}

func (r *Repository) TintingExists(ctx context.Context, id int64) (bool, error) {
	return repo.Exists[models.LensTinting](ctx, r.Base, "id = ? AND is_active = ?", id, true)
}

// NextOrderNo returns the next SO-YYYYMMDD-NNNNNN number for day.
func (r *Repository) NextOrderNo(ctx context.Context, day time.Time) (string, error) {
	prefix := fmt.Sprintf("SO-%s-", day.Format("20060102"))
	var count int64
	if err := r.DB(ctx).Model(&models.SaleOrder{}).Where("order_no LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%06d", prefix, count+1), nil
}

// Create inserts the order and its items in one transaction.
func (r *Repository) Create(ctx context.Context, order *models.SaleOrder) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil
		defer func() { order.Items = items }()

		if err := tx.Omit("Customer").Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].SaleOrderID = order.ID
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Omit("PriceRecord").Create(&items).Error
	})
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.SaleOrder, error) {
	return repo.FindByID[models.SaleOrder](ctx, r.Base, id,
		"Customer", "Items", "Items.PriceRecord", "Items.PriceRecord.Product", "Items.PriceRecord.Coating")
}

func (r *Repository) List(ctx context.Context, params pagination.Params, filter Filter) ([]models.SaleOrder, int64, error) {
	return repo.Page[models.SaleOrder](ctx, r.Base, params, func(q *gorm.DB) *gorm.DB {
		if filter.Status != nil {
			q = q.Where("status = ?", *filter.Status)
		}
		if filter.CustomerID != nil {
			q = q.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.From != nil {
			q = q.Where("order_date >= ?", startOfDay(*filter.From))
		}
		if filter.To != nil {
			q = q.Where("order_date < ?", startOfDay(*filter.To).AddDate(0, 0, 1))
		}
		if params.Normalize().Search != "" {
			q = q.Where("LOWER(order_no) LIKE ?", params.LikePattern())
		}
		return q
	}, "Customer")
}

// UpdateStatus moves the order from one status to another; it reports false
// when the row was not in from anymore.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to enums.SaleOrderStatus) (bool, error) {
	res := r.DB(ctx).Model(&models.SaleOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
