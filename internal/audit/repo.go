package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/internal/repo"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

// Repository persists audit and error logs.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) CreateAudit(ctx context.Context, entry *models.AuditLog) error {
	return r.DB(ctx).Create(entry).Error
}

func (r *Repository) CreateError(ctx context.Context, entry *models.ErrorLog) error {
	return r.DB(ctx).Create(entry).Error
}

func (r *Repository) ListAudit(ctx context.Context, params pagination.Params, f AuditFilter) ([]models.AuditLog, int64, error) {
	return page[models.AuditLog](ctx, r, params, func(q *gorm.DB) *gorm.DB {
		if f.UserID != nil {
			q = q.Where("user_id = ?", *f.UserID)
		}
		if f.Action != nil {
			q = q.Where("action = ?", *f.Action)
		}
		if f.EntityType != "" {
			q = q.Where("entity_type = ?", f.EntityType)
		}
		if f.EntityID != "" {
			q = q.Where("entity_id = ?", f.EntityID)
		}
		return window(q, f.From, f.To)
	})
}

func (r *Repository) ListErrors(ctx context.Context, params pagination.Params, f ErrorFilter) ([]models.ErrorLog, int64, error) {
	return page[models.ErrorLog](ctx, r, params, func(q *gorm.DB) *gorm.DB {
		if f.Code != "" {
			q = q.Where("code = ?", f.Code)
		}
		if f.RequestID != "" {
			q = q.Where("request_id = ?", f.RequestID)
		}
		return window(q, f.From, f.To)
	})
}

// DeleteAuditBefore removes audit rows created before cutoff.
func (r *Repository) DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	return res.RowsAffected, res.Error
}

// DeleteErrorsBefore removes error rows created before cutoff.
func (r *Repository) DeleteErrorsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).Where("created_at < ?", cutoff).Delete(&models.ErrorLog{})
	return res.RowsAffected, res.Error
}

// page lists newest first, unlike the id-ordered catalog pages.
func page[T any](ctx context.Context, r *Repository, params pagination.Params, filter func(*gorm.DB) *gorm.DB) ([]T, int64, error) {
	var model T
	query := filter(r.DB(ctx).Model(&model))

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := []T{}
	if total == 0 {
		return rows, 0, nil
	}
	if err := query.Order("created_at DESC").Scopes(params.Scope()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func window(q *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}
	return q
}
