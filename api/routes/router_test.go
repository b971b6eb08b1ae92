package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lensretail-backend/internal/customers"
	"github.com/angelmondragon/lensretail-backend/internal/users"
	pkgAuth "github.com/angelmondragon/lensretail-backend/pkg/auth"
	"github.com/angelmondragon/lensretail-backend/pkg/config"
	"github.com/angelmondragon/lensretail-backend/pkg/db/dbtest"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	"github.com/angelmondragon/lensretail-backend/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-secret",
			Issuer:            "lensretail-test",
			ExpirationMinutes: 30,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, db stubPinger) (http.Handler, *prometheus.Registry) {
	t.Helper()

	conn := dbtest.Open(t)
	userSvc, err := users.NewService(users.NewRepository(conn), cfg.Password)
	require.NoError(t, err)
	customerSvc, err := customers.NewService(customers.NewRepository(conn))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})

	handler := NewRouter(cfg, logg, Dependencies{
		DB:          db,
		Sessions:    stubSessions{},
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Users:       userSvc,
		Customers:   customerSvc,
	})
	return handler, reg
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  string(role) + "@lensretail.test",
		Role:   role,
	})
	require.NoError(t, err)
	return token
}

func doRequest(handler http.Handler, method, target, token string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutes(t *testing.T) {
	cfg := testConfig()
	handler, _ := newTestRouter(t, cfg, stubPinger{})

	live := doRequest(handler, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, live.Code)

	ready := doRequest(handler, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, ready.Code)
}

func TestReadinessReportsDatabaseOutage(t *testing.T) {
	cfg := testConfig()
	handler, _ := newTestRouter(t, cfg, stubPinger{err: errors.New("connection refused")})

	resp := doRequest(handler, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	cfg := testConfig()
	handler, _ := newTestRouter(t, cfg, stubPinger{})

	for _, target := range []string{
		"/api/v1/customers",
		"/api/v1/price-mappings/customers/1/hierarchy",
		"/api/v1/admin/users",
	} {
		resp := doRequest(handler, http.MethodGet, target, "", "")
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", target, resp.Code)
		}
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	handler, _ := newTestRouter(t, cfg, stubPinger{})

	sales := doRequest(handler, http.MethodGet, "/api/v1/admin/users", buildToken(t, cfg, enums.UserRoleSales), "")
	if sales.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for sales got %d", sales.Code)
	}

	admin := doRequest(handler, http.MethodGet, "/api/v1/admin/users", buildToken(t, cfg, enums.UserRoleAdmin), "")
	if admin.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d: %s", admin.Code, admin.Body.String())
	}
}

func TestCustomerRoutesRoundTrip(t *testing.T) {
	cfg := testConfig()
	handler, _ := newTestRouter(t, cfg, stubPinger{})
	token := buildToken(t, cfg, enums.UserRoleSales)

	created := doRequest(handler, http.MethodPost, "/api/v1/customers", token,
		`{"customer_code":"CUST-001","name":"Vision Care Opticals","phone":"9876543210","credit_limit":"25000"}`)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	var envelope struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &envelope))
	require.NotZero(t, envelope.Data.ID)

	list := doRequest(handler, http.MethodGet, "/api/v1/customers?search=vision", token, "")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), "CUST-001")

	// sales may create customers but not delete them
	deleted := doRequest(handler, http.MethodDelete, "/api/v1/customers/1", token, "")
	assert.Equal(t, http.StatusForbidden, deleted.Code)
}

func TestMetricsEndpointExposesRouteSeries(t *testing.T) {
	cfg := testConfig()
	handler, _ := newTestRouter(t, cfg, stubPinger{})

	doRequest(handler, http.MethodGet, "/health/live", "", "")

	resp := doRequest(handler, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `route="/health/live"`)
}
