package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/lensretail-backend/api/validators"
	"github.com/angelmondragon/lensretail-backend/internal/users"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
)

type createUserBody struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Name     string  `json:"name" validate:"required,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Role     string  `json:"role" validate:"required,oneof=admin manager sales store"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type updateUserBody struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin manager sales store"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type resetPasswordBody struct {
	Password string `json:"password" validate:"required"`
}

func userHandler(svc users.Service, logg *logger.Logger, fn endpoint) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "user")
	}
	return serve(logg, fn)
}

func AdminUserCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return userHandler(svc, logg, func(r *http.Request) (int, any, error) {
		var body createUserBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return 0, nil, err
		}
		user, err := svc.Create(r.Context(), users.CreateInput{
			Email:    body.Email,
			Password: body.Password,
			Name:     body.Name,
			Phone:    body.Phone,
			Role:     body.Role,
			IsActive: body.IsActive,
		})
		return http.StatusCreated, user, err
	})
}

func AdminUserGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return userHandler(svc, logg, func(r *http.Request) (int, any, error) {
		id, err := pathUUID(r, "id")
		if err != nil {
			return 0, nil, err
		}
		user, err := svc.Get(r.Context(), id)
		return http.StatusOK, user, err
	})
}

// AdminUserList accepts role and is_active filters.
func AdminUserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return userHandler(svc, logg, func(r *http.Request) (int, any, error) {
		params, err := pageParams(r)
		if err != nil {
			return 0, nil, err
		}
		var filter users.Filter
		if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
			role, err := enums.ParseUserRole(raw)
			if err != nil {
				return 0, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role").
					WithDetails(map[string]string{"role": "unknown role"})
			}
			filter.Role = &role
		}
		if filter.IsActive, err = validators.ParseQueryBool(r, "is_active"); err != nil {
			return 0, nil, err
		}
		page, err := svc.List(r.Context(), params, filter)
		return http.StatusOK, page, err
	})
}

func AdminUserUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return userHandler(svc, logg, func(r *http.Request) (int, any, error) {
		id, err := pathUUID(r, "id")
		if err != nil {
			return 0, nil, err
		}
		var body updateUserBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return 0, nil, err
		}
		user, err := svc.Update(r.Context(), id, users.UpdateInput{
			Name:     body.Name,
			Phone:    body.Phone,
			Role:     body.Role,
			IsActive: body.IsActive,
		})
		return http.StatusOK, user, err
	})
}

func AdminUserResetPassword(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return userHandler(svc, logg, func(r *http.Request) (int, any, error) {
		id, err := pathUUID(r, "id")
		if err != nil {
			return 0, nil, err
		}
		var body resetPasswordBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return 0, nil, err
		}
		return http.StatusNoContent, nil, svc.ResetPassword(r.Context(), id, body.Password)
	})
}
