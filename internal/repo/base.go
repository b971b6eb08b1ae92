package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

// Base is embedded by the domain repositories. It carries the connection
// and binds each query to the caller's context.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB starts a query session. A nil ctx yields the bare connection, which
// only migrations and tests use.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Page counts the rows matched by filter and then loads one page of them in
// ascending id order with the given preloads. filter may be nil.
func Page[T any](ctx context.Context, b Base, params pagination.Params, filter func(*gorm.DB) *gorm.DB, preloads ...string) ([]T, int64, error) {
	var model T
	query := b.DB(ctx).Model(&model)
	if filter != nil {
		query = filter(query)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []T{}, 0, nil
	}

	page := query.Session(&gorm.Session{})
	for _, p := range preloads {
		page = page.Preload(p)
	}
	var rows []T
	if err := page.Order("id ASC").Scopes(params.Scope()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Exists reports whether at least one row of T matches the condition.
func Exists[T any](ctx context.Context, b Base, query string, args ...any) (bool, error) {
	var model T
	var count int64
	if err := b.DB(ctx).Model(&model).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// First loads the first row of T matching the condition, in primary key
// order, applying preloads.
func First[T any](ctx context.Context, b Base, preloads []string, query string, args ...any) (*T, error) {
	q := b.DB(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	var row T
	if err := q.Where(query, args...).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func FindByID[T any](ctx context.Context, b Base, id int64, preloads ...string) (*T, error) {
	return First[T](ctx, b, preloads, "id = ?", id)
}

// SoftDelete applies deactivate to the row and stamps deleted_at in one
// transaction. It returns gorm.ErrRecordNotFound when nothing matched.
func SoftDelete[T any](ctx context.Context, b Base, id int64, deactivate map[string]any) error {
	return b.DB(ctx).Transaction(func(tx *gorm.DB) error {
		var model T
		if len(deactivate) > 0 {
			res := tx.Model(&model).Where("id = ?", id).Updates(deactivate)
			if res.Error != nil {
				return res.Error
			}
		}
		res := tx.Where("id = ?", id).Delete(&model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
