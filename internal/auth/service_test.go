package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/lensretail-backend/pkg/auth"
	"github.com/angelmondragon/lensretail-backend/pkg/auth/session"
	"github.com/angelmondragon/lensretail-backend/pkg/config"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/security"
)

const counterPassword = "counter-secret1"

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "lensretail", ExpirationMinutes: 30}

type fixture struct {
	svc      Service
	user     *models.User
	users    *memoryUsers
	sessions *memorySessions
}

func newFixture(t *testing.T, role enums.UserRole) fixture {
	t.Helper()
	hash, err := security.HashPassword(counterPassword, config.PasswordConfig{})
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Email:        string(role) + "@lensretail.in",
		PasswordHash: hash,
		Name:         "Counter " + string(role),
		Role:         role,
		IsActive:     true,
	}
	users := &memoryUsers{user: user}
	sessions := &memorySessions{live: map[string]sessionEntry{}}
	svc, err := NewService(ServiceParams{Users: users, Sessions: sessions, JWT: testJWT})
	require.NoError(t, err)
	return fixture{svc: svc, user: user, users: users, sessions: sessions}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, pkgerrors.As(err).Code(), err.Error())
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	_, err := NewService(ServiceParams{Sessions: &memorySessions{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Users: &memoryUsers{}})
	assert.Error(t, err)
}

func TestLoginIssuesTokensForRole(t *testing.T) {
	f := newFixture(t, enums.UserRoleSales)

	resp, err := f.svc.Login(context.Background(), LoginRequest{Email: " SALES@LensRetail.in ", Password: counterPassword})
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleSales, claims.Role)
	assert.Contains(t, f.sessions.live, claims.ID)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, 1800, resp.ExpiresIn)
	require.NotNil(t, resp.User.LastLoginAt)
}

func TestLoginRejections(t *testing.T) {
	f := newFixture(t, enums.UserRoleStore)
	ctx := context.Background()

	for name, req := range map[string]LoginRequest{
		"wrong password": {Email: f.user.Email, Password: "wrong-pass1"},
		"unknown email":  {Email: "nobody@lensretail.in", Password: counterPassword},
		"blank email":    {Email: "  ", Password: counterPassword},
	} {
		_, err := f.svc.Login(ctx, req)
		requireCode(t, err, pkgerrors.CodeUnauthorized)
		assert.Equal(t, "invalid credentials", pkgerrors.As(err).Message(), name)
	}

	f.user.IsActive = false
	_, err := f.svc.Login(ctx, LoginRequest{Email: f.user.Email, Password: counterPassword})
	requireCode(t, err, pkgerrors.CodeUnauthorized)
	assert.Empty(t, f.sessions.live)
}

func TestLoginStoreOutage(t *testing.T) {
	f := newFixture(t, enums.UserRoleStore)
	f.users.err = errors.New("connection reset")

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: f.user.Email, Password: counterPassword})
	requireCode(t, err, pkgerrors.CodeDependency)
}

func TestRefreshRotatesOnce(t *testing.T) {
	f := newFixture(t, enums.UserRoleManager)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, LoginRequest{Email: f.user.Email, Password: counterPassword})
	require.NoError(t, err)

	second, err := f.svc.Refresh(ctx, RefreshRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Len(t, f.sessions.live, 1)

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	requireCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshRevokesDisabledAccount(t *testing.T) {
	f := newFixture(t, enums.UserRoleManager)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, LoginRequest{Email: f.user.Email, Password: counterPassword})
	require.NoError(t, err)
	f.user.IsActive = false

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	requireCode(t, err, pkgerrors.CodeUnauthorized)
	assert.Empty(t, f.sessions.live)
}

func TestRefreshRejectsForgedAccessToken(t *testing.T) {
	f := newFixture(t, enums.UserRoleManager)
	_, err := f.svc.Refresh(context.Background(), RefreshRequest{AccessToken: "not-a-jwt", RefreshToken: "x"})
	requireCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLogoutAndMe(t *testing.T) {
	f := newFixture(t, enums.UserRoleAdmin)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, LoginRequest{Email: f.user.Email, Password: counterPassword})
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims.ID))
	assert.Empty(t, f.sessions.live)
	requireCode(t, f.svc.Logout(ctx, " "), pkgerrors.CodeUnauthorized)

	me, err := f.svc.Me(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, f.user.Email, me.Email)

	_, err = f.svc.Me(ctx, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)
}

type memoryUsers struct {
	user *models.User
	err  error
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil || m.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return m.user, nil
}

func (m *memoryUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil || m.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return m.user, nil
}

func (m *memoryUsers) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	if m.user != nil && m.user.ID == id {
		m.user.LastLoginAt = &at
	}
	return nil
}

type sessionEntry struct {
	userID uuid.UUID
	token  string
}

type memorySessions struct {
	live map[string]sessionEntry
}

func (m *memorySessions) Generate(_ context.Context, userID uuid.UUID) (session.Issued, error) {
	issued := session.Issued{AccessID: session.NewAccessID(), UserID: userID, RefreshToken: uuid.NewString()}
	m.live[issued.AccessID] = sessionEntry{userID: userID, token: issued.RefreshToken}
	return issued, nil
}

func (m *memorySessions) Rotate(ctx context.Context, oldAccessID, provided string) (session.Issued, error) {
	entry, ok := m.live[oldAccessID]
	if !ok || entry.token != provided {
		return session.Issued{}, session.ErrInvalidRefreshToken
	}
	delete(m.live, oldAccessID)
	return m.Generate(ctx, entry.userID)
}

func (m *memorySessions) Revoke(_ context.Context, accessID string) error {
	delete(m.live, accessID)
	return nil
}
