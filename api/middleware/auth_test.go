package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lensretail-backend/pkg/auth"
	"github.com/angelmondragon/lensretail-backend/pkg/config"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
)

var authCfg = config.JWTConfig{Secret: "counter-secret", Issuer: "lensretail", ExpirationMinutes: 60}

type stubSessions struct {
	live bool
	err  error
}

func (s stubSessions) HasSession(context.Context, string) (bool, error) {
	return s.live, s.err
}

func signedToken(t *testing.T, userID uuid.UUID, role enums.UserRole, jti string, issued time.Time) string {
	t.Helper()
	token, err := auth.MintAccessToken(authCfg, issued, auth.AccessTokenPayload{UserID: userID, Role: role, JTI: jti})
	require.NoError(t, err)
	return token
}

func TestAuthRejections(t *testing.T) {
	valid := signedToken(t, uuid.New(), enums.UserRoleAdmin, "s-1", time.Now())
	expired := signedToken(t, uuid.New(), enums.UserRoleAdmin, "s-2", time.Now().Add(-2*time.Hour))

	tests := []struct {
		name     string
		header   string
		sessions stubSessions
		want     int
	}{
		{"no header", "", stubSessions{live: true}, http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, stubSessions{live: true}, http.StatusUnauthorized},
		{"bare token", valid, stubSessions{live: true}, http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", stubSessions{live: true}, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, stubSessions{live: true}, http.StatusUnauthorized},
		{"revoked session", "Bearer " + valid, stubSessions{live: false}, http.StatusUnauthorized},
		{"session store down", "Bearer " + valid, stubSessions{err: errors.New("redis down")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			handler := Auth(authCfg, tt.sessions, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true }))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/trays", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			assert.False(t, reached)
		})
	}
}

func TestAuthPopulatesContext(t *testing.T) {
	userID := uuid.New()
	token := signedToken(t, userID, enums.UserRoleSales, "session-9", time.Now())

	var user, role, sessionID string
	handler := Auth(authCfg, stubSessions{live: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = UserIDFromContext(r.Context())
		role = RoleFromContext(r.Context())
		sessionID = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trays", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), user)
	assert.Equal(t, "sales", role)
	assert.Equal(t, "session-9", sessionID)
}

func TestRequireRoles(t *testing.T) {
	handler := RequireRoles(nil, enums.UserRoleAdmin, enums.UserRoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for role, want := range map[string]int{
		"admin":   http.StatusNoContent,
		"manager": http.StatusNoContent,
		"sales":   http.StatusForbidden,
		"":        http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/vendors/3", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}
