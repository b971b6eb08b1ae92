package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lensretail-backend/pkg/db/dbtest"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

func TestRecordAndListAudit(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)
	ctx := context.Background()

	user := uuid.New()
	target, ok := Describe("PUT", "/api/v1/customers/12")
	require.True(t, ok)
	svc.Record(ctx, Entry{UserID: &user, Target: target, Changes: []byte(`{"name":"Vision"}`), IPAddress: "10.0.0.1", RequestID: "req-1"})
	login, _ := Describe("POST", "/api/v1/auth/login")
	svc.Record(ctx, Entry{Target: login})

	all, err := svc.ListAudit(ctx, pagination.Params{}, AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Pagination.Total)

	action := enums.AuditActionUpdate
	page, err := svc.ListAudit(ctx, pagination.Params{}, AuditFilter{Action: &action, EntityType: "customers", EntityID: "12"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.JSONEq(t, `{"name":"Vision"}`, string(page.Items[0].Changes))
	assert.Equal(t, user, *page.Items[0].UserID)
	assert.Equal(t, "req-1", *page.Items[0].RequestID)
}

func TestRecordErrorAndPurge(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)
	ctx := context.Background()

	svc.RecordError(ctx, ErrorEntry{RequestID: "req-9", Method: "POST", Path: "/api/v1/price-mappings/apply", Code: "DEPENDENCY_ERROR", Message: "apply discounts", Detail: map[string]any{"step": "upsert"}})
	svc.RecordError(ctx, ErrorEntry{Method: "GET", Path: "/api/v1/customers", Code: "INTERNAL_ERROR", Message: "boom"})

	page, err := svc.ListErrors(ctx, pagination.Params{}, ErrorFilter{Code: "DEPENDENCY_ERROR"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.JSONEq(t, `{"step":"upsert"}`, string(page.Items[0].Detail))

	old := time.Now().UTC().AddDate(0, 0, -40)
	require.NoError(t, conn.Model(&models.ErrorLog{}).Where("code = ?", "INTERNAL_ERROR").Update("created_at", old).Error)

	removed, err := svc.PurgeErrors(ctx, time.Now().UTC().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = svc.PurgeAudit(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

type failingRepo struct{ *Repository }

func (failingRepo) CreateAudit(context.Context, *models.AuditLog) error { return errors.New("db down") }

func TestRecordSwallowsWriteFailures(t *testing.T) {
	svc, err := NewService(failingRepo{NewRepository(dbtest.Open(t))}, nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), Entry{Target: Target{Action: enums.AuditActionCreate, EntityType: "customers"}})
	})
}
