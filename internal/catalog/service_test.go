package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lensretail-backend/pkg/db/dbtest"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

func newService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func str(v string) *string { return &v }

func i64(v int64) *int64 { return &v }

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func codeOf(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	return typed.Code()
}

func TestBrandLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	brand, err := svc.CreateBrand(ctx, BrandInput{Name: str("  Essilor "), Description: str("French lenses")})
	require.NoError(t, err)
	assert.Equal(t, "Essilor", brand.Name)
	assert.True(t, brand.IsActive)

	_, err = svc.CreateBrand(ctx, BrandInput{Name: str("Essilor")})
	assert.Equal(t, pkgerrors.CodeConflict, codeOf(t, err))

	_, err = svc.CreateBrand(ctx, BrandInput{Name: str("   ")})
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))

	updated, err := svc.UpdateBrand(ctx, brand.ID, BrandInput{Name: str("Essilor Luxottica"), IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Essilor Luxottica", updated.Name)
	assert.False(t, updated.IsActive)

	require.NoError(t, svc.Delete(ctx, KindBrand, brand.ID))
	_, err = svc.GetBrand(ctx, brand.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, codeOf(t, err))

	err = svc.Delete(ctx, KindBrand, brand.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, codeOf(t, err))
}

func boolPtr(v bool) *bool { return &v }

func TestCreateInactiveBrand(t *testing.T) {
	svc, _ := newService(t)
	brand, err := svc.CreateBrand(context.Background(), BrandInput{Name: str("Hoya"), IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, brand.IsActive)

	reloaded, err := svc.GetBrand(context.Background(), brand.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
}

func TestListBrandsPaginatesAndSearches(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for _, name := range []string{"Essilor", "Zeiss", "Hoya", "Rodenstock", "Essilor Kids"} {
		_, err := svc.CreateBrand(ctx, BrandInput{Name: str(name)})
		require.NoError(t, err)
	}

	page, err := svc.ListBrands(ctx, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(5), page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)

	found, err := svc.ListBrands(ctx, pagination.Params{Search: "ESSILOR"})
	require.NoError(t, err)
	assert.Len(t, found.Items, 2)

	none, err := svc.ListBrands(ctx, pagination.Params{Search: "nikon"})
	require.NoError(t, err)
	assert.NotNil(t, none.Items)
	assert.Empty(t, none.Items)
}

func TestProductRequiresBrandAndUniqueCode(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductInput{BrandID: i64(99), LensName: str("Varilux"), ProductCode: str("ess-var")})
	assert.Equal(t, pkgerrors.CodeNotFound, codeOf(t, err))

	brand, err := svc.CreateBrand(ctx, BrandInput{Name: str("Essilor")})
	require.NoError(t, err)

	product, err := svc.CreateProduct(ctx, ProductInput{BrandID: &brand.ID, LensName: str("Varilux"), ProductCode: str("ess-var")})
	require.NoError(t, err)
	assert.Equal(t, "ESS-VAR", product.ProductCode)
	assert.Equal(t, "Essilor", product.BrandName)

	_, err = svc.CreateProduct(ctx, ProductInput{BrandID: &brand.ID, LensName: str("Other"), ProductCode: str("ESS-VAR")})
	assert.Equal(t, pkgerrors.CodeConflict, codeOf(t, err))

	_, err = svc.CreateProduct(ctx, ProductInput{BrandID: &brand.ID, ProductCode: str("X")})
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))

	list, err := svc.ListProducts(ctx, pagination.Params{Search: "vari"}, ProductFilter{BrandID: &brand.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Essilor", list.Items[0].BrandName)

	updated, err := svc.UpdateProduct(ctx, product.ID, ProductInput{LensName: str("Varilux Comfort")})
	require.NoError(t, err)
	assert.Equal(t, "Varilux Comfort", updated.LensName)
	assert.Equal(t, "Essilor", updated.BrandName)
}

func TestMastersByKind(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	coating, err := svc.CreateMaster(ctx, KindCoating, MasterInput{Name: str("Crizal")})
	require.NoError(t, err)
	assert.Nil(t, coating.RefractiveIndex)

	material, err := svc.CreateMaster(ctx, KindMaterial, MasterInput{Name: str("Polycarbonate"), RefractiveIndex: price("1.59")})
	require.NoError(t, err)
	require.NotNil(t, material.RefractiveIndex)
	assert.True(t, material.RefractiveIndex.Equal(decimal.RequireFromString("1.59")))

	_, err = svc.CreateMaster(ctx, KindMaterial, MasterInput{Name: str("Glass"), RefractiveIndex: price("3")})
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))

	tint, err := svc.CreateMaster(ctx, KindTinting, MasterInput{Name: str("Grey 50%")})
	require.NoError(t, err)

	_, err = svc.CreateMaster(ctx, KindTinting, MasterInput{Name: str("Grey 50%")})
	assert.Equal(t, pkgerrors.CodeConflict, codeOf(t, err))

	renamed, err := svc.UpdateMaster(ctx, KindTinting, tint.ID, MasterInput{Name: str("Grey 60%")})
	require.NoError(t, err)
	assert.Equal(t, "Grey 60%", renamed.Name)

	got, err := svc.GetMaster(ctx, KindCoating, coating.ID)
	require.NoError(t, err)
	assert.Equal(t, "Crizal", got.Name)

	list, err := svc.ListMasters(ctx, KindMaterial, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	_, err = svc.CreateMaster(ctx, KindBrand, MasterInput{Name: str("nope")})
	assert.Equal(t, pkgerrors.CodeNotFound, codeOf(t, err))
}

func TestPriceRecordRules(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	brand, _ := svc.CreateBrand(ctx, BrandInput{Name: str("Essilor")})
	product, err := svc.CreateProduct(ctx, ProductInput{BrandID: &brand.ID, LensName: str("Varilux"), ProductCode: str("ESS-VAR")})
	require.NoError(t, err)
	coating, err := svc.CreateMaster(ctx, KindCoating, MasterInput{Name: str("Crizal")})
	require.NoError(t, err)

	_, err = svc.CreatePriceRecord(ctx, PriceRecordInput{ProductID: &product.ID, CoatingID: &coating.ID, Price: price("0")})
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))

	record, err := svc.CreatePriceRecord(ctx, PriceRecordInput{ProductID: &product.ID, CoatingID: &coating.ID, Price: price("1500.005")})
	require.NoError(t, err)
	assert.True(t, record.Price.Equal(decimal.RequireFromString("1500.01")))
	assert.Equal(t, "Crizal", record.CoatingName)

	_, err = svc.CreatePriceRecord(ctx, PriceRecordInput{ProductID: &product.ID, CoatingID: &coating.ID, Price: price("1600")})
	assert.Equal(t, pkgerrors.CodeConflict, codeOf(t, err))

	_, err = svc.UpdatePriceRecord(ctx, record.ID, PriceRecordInput{CoatingID: i64(coating.ID + 1)})
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))

	updated, err := svc.UpdatePriceRecord(ctx, record.ID, PriceRecordInput{Price: price("1750")})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(1750)))
	assert.Equal(t, "Varilux", updated.LensName)

	list, err := svc.ListPriceRecords(ctx, pagination.Params{}, PriceRecordFilter{ProductID: &product.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Crizal", list.Items[0].CoatingName)
}

func TestDeleteBlockedByDependents(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	brand, _ := svc.CreateBrand(ctx, BrandInput{Name: str("Essilor")})
	product, _ := svc.CreateProduct(ctx, ProductInput{BrandID: &brand.ID, LensName: str("Varilux"), ProductCode: str("ESS-VAR")})
	coating, _ := svc.CreateMaster(ctx, KindCoating, MasterInput{Name: str("Crizal")})
	record, err := svc.CreatePriceRecord(ctx, PriceRecordInput{ProductID: &product.ID, CoatingID: &coating.ID, Price: price("1500")})
	require.NoError(t, err)

	customer := models.Customer{CustomerCode: "C001", Name: "Vision Optics", Status: "active"}
	require.NoError(t, repo.Create(ctx, &customer))
	require.NoError(t, repo.Create(ctx, &models.PriceMapping{CustomerID: customer.ID, PriceID: record.ID, DiscountRate: decimal.NewFromInt(10)}))

	for kind, id := range map[Kind]int64{KindBrand: brand.ID, KindProduct: product.ID, KindCoating: coating.ID, KindPriceRecord: record.ID} {
		err := svc.Delete(ctx, kind, id)
		assert.Equal(t, pkgerrors.CodeConflict, codeOf(t, err), string(kind))
	}

	require.NoError(t, repo.DB(ctx).Where("price_id = ?", record.ID).Delete(&models.PriceMapping{}).Error)
	require.NoError(t, svc.Delete(ctx, KindPriceRecord, record.ID))
	require.NoError(t, svc.Delete(ctx, KindProduct, product.ID))
	require.NoError(t, svc.Delete(ctx, KindCoating, coating.ID))
	require.NoError(t, svc.Delete(ctx, KindBrand, brand.ID))
}

type countingListener struct{ calls int }

func (c *countingListener) CatalogChanged(context.Context) { c.calls++ }

func TestWritesNotifyListeners(t *testing.T) {
	listener := &countingListener{}
	svc, err := NewService(NewRepository(dbtest.Open(t)), listener)
	require.NoError(t, err)
	ctx := context.Background()

	brand, err := svc.CreateBrand(ctx, BrandInput{Name: str("Essilor")})
	require.NoError(t, err)
	product, err := svc.CreateProduct(ctx, ProductInput{BrandID: &brand.ID, LensName: str("Varilux"), ProductCode: str("ESS-VAR")})
	require.NoError(t, err)
	coating, err := svc.CreateMaster(ctx, KindCoating, MasterInput{Name: str("Crizal")})
	require.NoError(t, err)
	record, err := svc.CreatePriceRecord(ctx, PriceRecordInput{ProductID: &product.ID, CoatingID: &coating.ID, Price: price("1500")})
	require.NoError(t, err)
	assert.Equal(t, 4, listener.calls)

	_, err = svc.UpdatePriceRecord(ctx, record.ID, PriceRecordInput{Price: price("1650")})
	require.NoError(t, err)
	assert.Equal(t, 5, listener.calls)

	// materials never appear in a price hierarchy
	_, err = svc.CreateMaster(ctx, KindMaterial, MasterInput{Name: str("Polycarbonate"), RefractiveIndex: price("1.59")})
	require.NoError(t, err)
	assert.Equal(t, 5, listener.calls)

	// failed writes stay silent
	_, err = svc.CreateBrand(ctx, BrandInput{Name: str("Essilor")})
	assert.Equal(t, pkgerrors.CodeConflict, codeOf(t, err))
	assert.Equal(t, 5, listener.calls)

	require.NoError(t, svc.Delete(ctx, KindPriceRecord, record.ID))
	assert.Equal(t, 6, listener.calls)
}
