package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error
}

func TestWriteSuccessStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, map[string]any{"order_number": "SO-20261019-000001"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"order_number":"SO-20261019-000001"}}`, rec.Body.String())
}

func TestWriteErrorExposesClientMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 0 and 100").
		WithDetails(map[string]any{"field": "discount_rate"})
	WriteError(context.Background(), nil, rec, err)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	public := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", public.Code)
	assert.Equal(t, "discount must be between 0 and 100", public.Message)
	assert.Equal(t, map[string]any{"field": "discount_rate"}, public.Details)
}

func TestWriteErrorHidesServerFailures(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("pq: relation \"price_mappings\" does not exist"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	public := decodeError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", public.Code)
	assert.Equal(t, "internal server error", public.Message)
	assert.Nil(t, public.Details)

	rec = httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeDependency, "redis dial failed"))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "dependency unavailable", decodeError(t, rec).Message)
}

func TestWriteErrorSinkReceivesRetryableFailures(t *testing.T) {
	var captured []pkgerrors.Code
	ctx := WithErrorSink(context.Background(), func(_ context.Context, typed *pkgerrors.Error) {
		captured = append(captured, typed.Code())
	})

	WriteError(ctx, nil, httptest.NewRecorder(), pkgerrors.New(pkgerrors.CodeNotFound, "customer not found"))
	WriteError(ctx, nil, httptest.NewRecorder(), pkgerrors.New(pkgerrors.CodeDependency, "db down"))
	WriteError(ctx, nil, httptest.NewRecorder(), errors.New("boom"))

	assert.Equal(t, []pkgerrors.Code{pkgerrors.CodeDependency, pkgerrors.CodeInternal}, captured)
}

func TestWriteNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())
}
