package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/lensretail-backend/api/middleware"
	"github.com/angelmondragon/lensretail-backend/api/validators"
	"github.com/angelmondragon/lensretail-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
)

type refreshBody struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// bearer returns the Authorization credential without its scheme.
func bearer(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func authHandler(svc auth.Service, logg *logger.Logger, fn endpoint) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "auth")
	}
	return serve(logg, fn)
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return authHandler(svc, logg, func(r *http.Request) (int, any, error) {
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return 0, nil, err
		}
		tokens, err := svc.Login(r.Context(), body)
		return http.StatusOK, tokens, err
	})
}

// AuthRefresh rotates the refresh token. The expired access token may come
// from the body or the Authorization header.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return authHandler(svc, logg, func(r *http.Request) (int, any, error) {
		var body refreshBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return 0, nil, err
		}
		access := strings.TrimSpace(body.AccessToken)
		if access == "" {
			access = bearer(r)
		}
		if access == "" {
			return 0, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing access token")
		}
		tokens, err := svc.Refresh(r.Context(), auth.RefreshRequest{AccessToken: access, RefreshToken: body.RefreshToken})
		return http.StatusOK, tokens, err
	})
}

// AuthLogout revokes the session behind the presented access token.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return authHandler(svc, logg, func(r *http.Request) (int, any, error) {
		if err := svc.Logout(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, map[string]string{"status": "logged_out"}, nil
	})
}

func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return authHandler(svc, logg, func(r *http.Request) (int, any, error) {
		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			return 0, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
		}
		user, err := svc.Me(r.Context(), userID)
		return http.StatusOK, user, err
	})
}
