package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
)

// UserDTO is a user as the API returns it; the password hash never leaves
// the service.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Phone       *string        `json:"phone,omitempty"`
	Role        enums.UserRole `json:"role"`
	IsActive    bool           `json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateInput is the admin request for a new user.
type CreateInput struct {
	Email    string
	Password string
	Name     string
	Phone    *string
	Role     string
	IsActive *bool
}

// UpdateInput changes profile fields; nil fields are left untouched.
type UpdateInput struct {
	Name     *string
	Phone    *string
	Role     *string
	IsActive *bool
}

// Filter narrows the admin user list.
type Filter struct {
	Role     *enums.UserRole
	IsActive *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
