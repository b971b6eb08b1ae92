package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/internal/repo"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts user. is_active carries a column default, so an explicit
// false is written in a second statement inside the same transaction.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if user.IsActive {
			return nil
		}
		return tx.Model(user).UpdateColumn("is_active", false).Error
	})
}

// FindByEmail expects email already lower-cased.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return repo.First[models.User](ctx, r.Base, nil, "email = ?", email)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return repo.First[models.User](ctx, r.Base, nil, "id = ?", id)
}

func (r *Repository) List(ctx context.Context, params pagination.Params, filter Filter) ([]models.User, int64, error) {
	search := params.Normalize().Search
	return repo.Page[models.User](ctx, r.Base, params, func(q *gorm.DB) *gorm.DB {
		if filter.Role != nil {
			q = q.Where("role = ?", *filter.Role)
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if search != "" {
			like := params.LikePattern()
			q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
		}
		return q
	})
}

func (r *Repository) Save(ctx context.Context, user *models.User) error {
	return r.DB(ctx).Save(user).Error
}

func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.touch(ctx, id, map[string]any{"password_hash": hash, "updated_at": time.Now().UTC()})
}

// UpdateLastLogin leaves updated_at alone; a login is not a profile edit.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.touch(ctx, id, map[string]any{"last_login_at": at})
}

// touch writes columns without hooks and reports gorm.ErrRecordNotFound for
// an unknown id.
func (r *Repository) touch(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	res := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumns(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
