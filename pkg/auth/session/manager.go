// Package session keeps refresh sessions in Redis. Each session lives under
// the access token's jti, so revoking it invalidates both tokens at once.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/lensretail-backend/pkg/config"
	pkgredis "github.com/angelmondragon/lensretail-backend/pkg/redis"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// Store is the Redis surface the manager needs.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware asks on every request.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Issued is handed back to the auth service after login or rotation.
type Issued struct {
	AccessID     string
	UserID       uuid.UUID
	RefreshToken string
}

// stored is the session value. Only a digest of the refresh token is kept so
// a Redis dump cannot be replayed.
type stored struct {
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	IssuedAt  time.Time `json:"issued_at"`
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager requires the refresh lifetime to outlast the access token.
func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session: store required")
	}
	refresh := cfg.RefreshTokenTTL()
	access := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if refresh <= 0 || refresh <= access {
		return nil, fmt.Errorf("session: refresh ttl %s must be positive and exceed access ttl %s", refresh, access)
	}
	return &Manager{store: store, ttl: refresh, now: time.Now}, nil
}

func (m *Manager) Generate(ctx context.Context, userID uuid.UUID) (Issued, error) {
	if userID == uuid.Nil {
		return Issued{}, errors.New("session: user id required")
	}
	return m.issue(ctx, userID)
}

// Rotate exchanges a refresh token for a new session. The old session is
// deleted so a refresh token works exactly once.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, refreshToken string) (Issued, error) {
	oldAccessID, refreshToken = strings.TrimSpace(oldAccessID), strings.TrimSpace(refreshToken)
	if oldAccessID == "" || refreshToken == "" {
		return Issued{}, ErrInvalidRefreshToken
	}
	key := m.store.AccessSessionKey(oldAccessID)
	raw, err := m.store.Get(ctx, key)
	if pkgredis.IsMiss(err) {
		return Issued{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return Issued{}, fmt.Errorf("session: load: %w", err)
	}

	var current stored
	if json.Unmarshal([]byte(raw), &current) != nil || current.UserID == uuid.Nil {
		return Issued{}, ErrInvalidRefreshToken
	}
	if subtle.ConstantTimeCompare([]byte(current.TokenHash), []byte(digest(refreshToken))) != 1 {
		return Issued{}, ErrInvalidRefreshToken
	}

	next, err := m.issue(ctx, current.UserID)
	if err != nil {
		return Issued{}, err
	}
	if err := m.store.Del(ctx, key); err != nil {
		return Issued{}, fmt.Errorf("session: drop rotated: %w", err)
	}
	return next, nil
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return errors.New("session: access id required")
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, errors.New("session: access id required")
	}
	_, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case pkgredis.IsMiss(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (m *Manager) issue(ctx context.Context, userID uuid.UUID) (Issued, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return Issued{}, fmt.Errorf("session: refresh token entropy: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(secret)
	accessID := NewAccessID()

	value, err := json.Marshal(stored{UserID: userID, TokenHash: digest(token), IssuedAt: m.now().UTC()})
	if err != nil {
		return Issued{}, err
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), string(value), m.ttl); err != nil {
		return Issued{}, fmt.Errorf("session: save: %w", err)
	}
	return Issued{AccessID: accessID, UserID: userID, RefreshToken: token}, nil
}

// NewAccessID returns the identifier used as JWT jti and session key.
func NewAccessID() string {
	return uuid.NewString()
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
