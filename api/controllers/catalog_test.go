package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lensretail-backend/internal/catalog"
	"github.com/angelmondragon/lensretail-backend/internal/customers"
	"github.com/angelmondragon/lensretail-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

func TestCatalogHandlersAgainstSQLite(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := catalog.NewService(catalog.NewRepository(conn))
	require.NoError(t, err)
	logg := testLogger()

	create := func(kind catalog.Kind, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		CatalogCreate(svc, kind, logg).ServeHTTP(rec, newRequest(nil, http.MethodPost, "/", body, nil))
		return rec
	}

	rec := create(catalog.KindBrand, `{"name":"Essilor"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var brand catalog.BrandDTO
	decodeData(t, rec, &brand)

	rec = create(catalog.KindProduct, fmt.Sprintf(`{"brand_id":%d,"lens_name":"Varilux Comfort","product_code":"VX-C"}`, brand.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product catalog.ProductDTO
	decodeData(t, rec, &product)

	rec = create(catalog.KindCoating, `{"name":"Crizal Sapphire"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var coating catalog.MasterDTO
	decodeData(t, rec, &coating)

	rec = create(catalog.KindPriceRecord, fmt.Sprintf(`{"product_id":%d,"coating_id":%d,"price":"4500.00"}`, product.ID, coating.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = create(catalog.KindBrand, `{"name":"Essilor"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	CatalogList(svc, catalog.KindPriceRecord, logg).ServeHTTP(rec, newRequest(nil, http.MethodGet, fmt.Sprintf("/?product_id=%d", product.ID), "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page pagination.Result[catalog.PriceRecordDTO]
	decodeData(t, rec, &page)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].Price.Equal(decimal.NewFromInt(4500)), "price %s", page.Items[0].Price)

	rec = httptest.NewRecorder()
	CatalogDelete(svc, catalog.KindBrand, logg).ServeHTTP(rec, newRequest(nil, http.MethodDelete, "/", "", map[string]string{"id": fmt.Sprint(brand.ID)}))
	assert.Equal(t, http.StatusConflict, rec.Code, "brand with products must not be deletable")

	rec = httptest.NewRecorder()
	CatalogGet(svc, catalog.KindMaterial, logg).ServeHTTP(rec, newRequest(nil, http.MethodGet, "/", "", map[string]string{"id": "999"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCustomerHandlersAgainstSQLite(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := customers.NewService(customers.NewRepository(conn))
	require.NoError(t, err)
	logg := testLogger()

	rec := httptest.NewRecorder()
	CustomerCreate(svc, logg).ServeHTTP(rec, newRequest(nil, http.MethodPost, "/", `{"customer_code":"cust-01","name":"Vision Care","credit_limit":"5000"}`, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created customers.CustomerDTO
	decodeData(t, rec, &created)
	assert.Equal(t, "CUST-01", created.CustomerCode)
	assert.False(t, created.HasPriceMapping)

	rec = httptest.NewRecorder()
	CustomerUpdate(svc, logg).ServeHTTP(rec, newRequest(nil, http.MethodPut, "/", `{"status":"archived"}`, map[string]string{"id": fmt.Sprint(created.ID)}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeErrorCode(t, rec))

	rec = httptest.NewRecorder()
	CustomerList(svc, logg).ServeHTTP(rec, newRequest(nil, http.MethodGet, "/?status=active&search=vision", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page pagination.Result[customers.CustomerDTO]
	decodeData(t, rec, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Pagination.Total)

	rec = httptest.NewRecorder()
	CustomerDelete(svc, logg).ServeHTTP(rec, newRequest(nil, http.MethodDelete, "/", "", map[string]string{"id": fmt.Sprint(created.ID)}))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
