// Package auth implements login, refresh, logout and the current-user lookup
// on top of the users repository and the Redis session manager.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/internal/users"
	pkgAuth "github.com/angelmondragon/lensretail-backend/pkg/auth"
	"github.com/angelmondragon/lensretail-backend/pkg/auth/session"
	"github.com/angelmondragon/lensretail-backend/pkg/config"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/security"
)

var (
	errBadCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	errBadRefresh     = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
)

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionIssuer interface {
	Generate(ctx context.Context, userID uuid.UUID) (session.Issued, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (session.Issued, error)
	Revoke(ctx context.Context, accessID string) error
}

type ServiceParams struct {
	Users    userStore
	Sessions sessionIssuer
	JWT      config.JWTConfig
}

type service struct {
	users    userStore
	sessions sessionIssuer
	jwt      config.JWTConfig
	now      func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Users == nil:
		return nil, errors.New("auth: user store required")
	case p.Sessions == nil:
		return nil, errors.New("auth: session issuer required")
	}
	return &service{users: p.Users, sessions: p.Sessions, jwt: p.JWT, now: time.Now}, nil
}

// decoyHash is verified against when the email is unknown so that a miss
// costs the same argon2 work as a wrong password.
var decoyHash = sync.OnceValue(func() string {
	hash, _ := security.HashPassword("decoy-password-0", config.PasswordConfig{})
	return hash
})

func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, errBadCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		_, _ = security.VerifyPassword(req.Password, decoyHash())
		return nil, errBadCredentials
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok || !user.IsActive {
		return nil, errBadCredentials
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record last login")
	}
	user.LastLoginAt = &now

	issued, err := s.sessions.Generate(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}
	return s.tokens(now, user, issued)
}

// Refresh accepts an expired access token: only its signature, subject and
// jti matter here.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwt, strings.TrimSpace(req.AccessToken))
	if err != nil || claims.ID == "" {
		return nil, errBadRefresh
	}

	issued, err := s.sessions.Rotate(ctx, claims.ID, strings.TrimSpace(req.RefreshToken))
	if errors.Is(err, session.ErrInvalidRefreshToken) {
		return nil, errBadRefresh
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.activeUser(ctx, issued, claims.UserID)
	if err != nil {
		_ = s.sessions.Revoke(ctx, issued.AccessID)
		return nil, err
	}
	return s.tokens(s.now().UTC(), user, issued)
}

// activeUser confirms the rotated session still belongs to an enabled
// account matching the token subject.
func (s *service) activeUser(ctx context.Context, issued session.Issued, subject uuid.UUID) (*models.User, error) {
	if issued.UserID != subject {
		return nil, errBadRefresh
	}
	user, err := s.users.FindByID(ctx, issued.UserID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	case !user.IsActive:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled")
	}
	return user, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	return users.FromModel(user), nil
}

func (s *service) tokens(now time.Time, user *models.User, issued session.Issued) (*TokenResponse, error) {
	access, err := pkgAuth.MintAccessToken(s.jwt, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    issued.AccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign access token")
	}
	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: issued.RefreshToken,
		ExpiresIn:    s.jwt.ExpirationMinutes * 60,
		User:         users.FromModel(user),
	}, nil
}
