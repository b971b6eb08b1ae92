package pricing

import (
	"context"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/pkg/config"
	"github.com/angelmondragon/lensretail-backend/pkg/db/dbtest"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	"github.com/angelmondragon/lensretail-backend/pkg/metrics"
	"github.com/angelmondragon/lensretail-backend/pkg/redis"
	"github.com/angelmondragon/lensretail-backend/pkg/types"
)

type fixture struct {
	customer models.Customer
	other    models.Customer
	brand    models.LensBrand
	zeiss    models.LensBrand
	products []models.LensProduct
	coatings []models.Coating
	records  []models.LensPriceRecord
	zeissRec models.LensPriceRecord
	inactive models.LensPriceRecord
}

func seedCatalog(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	var f fixture

	f.customer = models.Customer{CustomerCode: "C001", Name: "Vision Optics", Status: "active"}
	f.other = models.Customer{CustomerCode: "C002", Name: "Clear Sight", Status: "active"}
	require.NoError(t, db.Create(&f.customer).Error)
	require.NoError(t, db.Create(&f.other).Error)

	f.brand = models.LensBrand{Name: "Essilor", IsActive: true}
	f.zeiss = models.LensBrand{Name: "Zeiss", IsActive: true}
	require.NoError(t, db.Create(&f.brand).Error)
	require.NoError(t, db.Create(&f.zeiss).Error)

	f.coatings = []models.Coating{{Name: "Crizal", IsActive: true}, {Name: "Blue UV", IsActive: true}}
	require.NoError(t, db.Create(&f.coatings).Error)

	f.products = []models.LensProduct{
		{BrandID: f.brand.ID, LensName: "Varilux Comfort", ProductCode: "ESS-VAR", IsActive: true},
		{BrandID: f.brand.ID, LensName: "Eyezen Start", ProductCode: "ESS-EYZ", IsActive: true},
	}
	require.NoError(t, db.Create(&f.products).Error)

	prices := [][2]int64{{1500, 2000}, {5000, 6500}}
	for i, p := range f.products {
		for j, c := range f.coatings {
			rec := models.LensPriceRecord{ProductID: p.ID, CoatingID: c.ID, Price: decimal.NewFromInt(prices[i][j]), IsActive: true}
			require.NoError(t, db.Create(&rec).Error)
			f.records = append(f.records, rec)
		}
	}

	zeissProduct := models.LensProduct{BrandID: f.zeiss.ID, LensName: "SmartLife", ProductCode: "ZS-SL", IsActive: true}
	require.NoError(t, db.Create(&zeissProduct).Error)
	f.zeissRec = models.LensPriceRecord{ProductID: zeissProduct.ID, CoatingID: f.coatings[0].ID, Price: decimal.NewFromInt(3000), IsActive: true}
	require.NoError(t, db.Create(&f.zeissRec).Error)
	f.inactive = models.LensPriceRecord{ProductID: zeissProduct.ID, CoatingID: f.coatings[1].ID, Price: decimal.NewFromInt(3500), IsActive: true}
	require.NoError(t, db.Create(&f.inactive).Error)
	require.NoError(t, db.Model(&f.inactive).Update("is_active", false).Error)
	return f
}

type memoryCache struct {
	values  map[string]string
	gets    int
	deletes int
}

func newMemoryCache() *memoryCache { return &memoryCache{values: map[string]string{}} }

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.gets++
	v, ok := m.values[key]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	m.deletes++
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryCache) Incr(_ context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(m.values[key], 10, 64)
	n++
	m.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *memoryCache) HierarchyCacheKey(customerID int64) string {
	return "test:hierarchy:" + strconv.FormatInt(customerID, 10)
}

func (m *memoryCache) CatalogVersionKey() string { return "test:catalog_version" }

func newTestService(t *testing.T, db *gorm.DB, cache hierarchyCache) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "pricing-test", Output: io.Discard})
	svc, err := NewService(NewRepository(db), cache, config.PricingConfig{HierarchyCacheTTL: time.Minute, MaxBatchSize: 10},
		metrics.NewDiscountMetrics(prometheus.NewRegistry()), logg)
	require.NoError(t, err)
	return svc
}

func entry(f fixture, idx int, pct int64) types.DiscountEntry {
	rec := f.records[idx]
	return types.DiscountEntry{
		BrandID:   f.brand.ID,
		ProductID: rec.ProductID,
		CoatingID: rec.CoatingID,
		PriceID:   rec.ID,
		Discount:  decimal.NewFromInt(pct),
	}
}

func TestHierarchyShape(t *testing.T) {
	db := dbtest.Open(t)
	f := seedCatalog(t, db)
	svc := newTestService(t, db, nil)

	tree, err := svc.Hierarchy(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.False(t, tree.HasPriceMapping)
	require.Len(t, tree.Brands, 2)

	essilor := tree.Brands[0]
	assert.Equal(t, "Essilor", essilor.Name)
	require.Len(t, essilor.Products, 2)
	require.Len(t, essilor.Products[0].PriceRecords, 2)
	first := essilor.Products[0].PriceRecords[0]
	assert.Equal(t, "Crizal", first.Coating.Name)
	assert.True(t, first.Price.Equal(decimal.NewFromInt(1500)))
	assert.Empty(t, first.PriceMappings)

	require.Len(t, tree.Brands[1].Products[0].PriceRecords, 1, "inactive price records are hidden")
}

func TestHierarchyUnknownCustomer(t *testing.T) {
	db := dbtest.Open(t)
	seedCatalog(t, db)
	svc := newTestService(t, db, nil)

	_, err := svc.Hierarchy(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = svc.Hierarchy(context.Background(), 0)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestApplyDiscountsUpsertsAndScopesByCustomer(t *testing.T) {
	db := dbtest.Open(t)
	f := seedCatalog(t, db)
	svc := newTestService(t, db, nil)
	ctx := context.Background()

	res, err := svc.ApplyDiscounts(ctx, types.ApplyDiscountsRequest{
		CustomerID: f.customer.ID,
		Discounts:  []types.DiscountEntry{entry(f, 0, 20), entry(f, 1, 10), entry(f, 2, 10), entry(f, 3, 10)},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Affected)

	res, err = svc.ApplyDiscounts(ctx, types.ApplyDiscountsRequest{
		CustomerID: f.customer.ID,
		Discounts:  []types.DiscountEntry{entry(f, 0, 25)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Affected)

	var count int64
	require.NoError(t, db.Model(&models.PriceMapping{}).Where("customer_id = ?", f.customer.ID).Count(&count).Error)
	assert.Equal(t, int64(4), count, "second batch updates in place")

	tree, err := svc.Hierarchy(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, tree.HasPriceMapping)
	mapping := tree.Brands[0].Products[0].PriceRecords[0].PriceMappings
	require.Len(t, mapping, 1)
	assert.True(t, mapping[0].DiscountRate.Equal(decimal.NewFromInt(25)))

	otherTree, err := svc.Hierarchy(ctx, f.other.ID)
	require.NoError(t, err)
	assert.False(t, otherTree.HasPriceMapping)
	assert.Empty(t, otherTree.Brands[0].Products[0].PriceRecords[0].PriceMappings)
}

func TestApplyDiscountsDedupesLastWriteWins(t *testing.T) {
	db := dbtest.Open(t)
	f := seedCatalog(t, db)
	svc := newTestService(t, db, nil)

	res, err := svc.ApplyDiscounts(context.Background(), types.ApplyDiscountsRequest{
		CustomerID: f.customer.ID,
		Discounts:  []types.DiscountEntry{entry(f, 0, 10), entry(f, 1, 10), entry(f, 0, 30)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Affected)

	var stored models.PriceMapping
	require.NoError(t, db.Where("customer_id = ? AND price_id = ?", f.customer.ID, f.records[0].ID).First(&stored).Error)
	assert.True(t, stored.DiscountRate.Equal(decimal.NewFromInt(30)))
}

func TestApplyDiscountsValidation(t *testing.T) {
	db := dbtest.Open(t)
	f := seedCatalog(t, db)
	svc := newTestService(t, db, nil)
	ctx := context.Background()

	cases := map[string]types.ApplyDiscountsRequest{
		"missing customer": {Discounts: []types.DiscountEntry{entry(f, 0, 10)}},
		"empty batch":      {CustomerID: f.customer.ID},
		"out of range":     {CustomerID: f.customer.ID, Discounts: []types.DiscountEntry{entry(f, 0, 150)}},
		"negative":         {CustomerID: f.customer.ID, Discounts: []types.DiscountEntry{entry(f, 0, -1)}},
	}
	for name, req := range cases {
		_, err := svc.ApplyDiscounts(ctx, req)
		require.Error(t, err, name)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code(), name)
	}

	_, err := svc.ApplyDiscounts(ctx, types.ApplyDiscountsRequest{CustomerID: f.customer.ID, Discounts: []types.DiscountEntry{entry(f, 0, 150)}})
	assert.Equal(t, "discount must be at most 100", pkgerrors.As(err).Message())

	wrongBrand := entry(f, 0, 10)
	wrongBrand.BrandID = f.zeiss.ID
	wrongCoating := entry(f, 1, 10)
	wrongCoating.CoatingID = f.coatings[0].ID
	missing := entry(f, 2, 10)
	missing.PriceID = 9999
	inactive := types.DiscountEntry{BrandID: f.zeiss.ID, ProductID: f.inactive.ProductID, CoatingID: f.inactive.CoatingID, PriceID: f.inactive.ID, Discount: decimal.NewFromInt(5)}

	_, err = svc.ApplyDiscounts(ctx, types.ApplyDiscountsRequest{
		CustomerID: f.customer.ID,
		Discounts:  []types.DiscountEntry{wrongBrand, wrongCoating, missing, inactive},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details := typed.Details().(map[string]any)
	assert.Len(t, details["entries"], 4)

	var count int64
	require.NoError(t, db.Model(&models.PriceMapping{}).Count(&count).Error)
	assert.Zero(t, count, "rejected batches write nothing")

	_, err = svc.ApplyDiscounts(ctx, types.ApplyDiscountsRequest{CustomerID: 4242, Discounts: []types.DiscountEntry{entry(f, 0, 10)}})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestApplyDiscountsBatchLimit(t *testing.T) {
	db := dbtest.Open(t)
	f := seedCatalog(t, db)
	svc := newTestService(t, db, nil)

	big := make([]types.DiscountEntry, 0, 11)
	for i := 0; i < 11; i++ {
		big = append(big, entry(f, i%4, 5))
	}
	_, err := svc.ApplyDiscounts(context.Background(), types.ApplyDiscountsRequest{CustomerID: f.customer.ID, Discounts: big})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestHierarchyCacheInvalidatedOnApply(t *testing.T) {
	db := dbtest.Open(t)
	f := seedCatalog(t, db)
	cache := newMemoryCache()
	svc := newTestService(t, db, cache)
	ctx := context.Background()

	_, err := svc.Hierarchy(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Contains(t, cache.values, cache.HierarchyCacheKey(f.customer.ID))

	// a cached tree is served even if the database changes underneath
	require.NoError(t, db.Model(&models.LensBrand{}).Where("id = ?", f.zeiss.ID).Update("name", "Carl Zeiss").Error)
	cached, err := svc.Hierarchy(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zeiss", cached.Brands[1].Name)

	_, err = svc.ApplyDiscounts(ctx, types.ApplyDiscountsRequest{CustomerID: f.customer.ID, Discounts: []types.DiscountEntry{entry(f, 0, 10)}})
	require.NoError(t, err)
	assert.NotContains(t, cache.values, cache.HierarchyCacheKey(f.customer.ID))

	fresh, err := svc.Hierarchy(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carl Zeiss", fresh.Brands[1].Name)
	assert.True(t, fresh.HasPriceMapping)
}

func TestHierarchyCacheRetiredByCatalogChange(t *testing.T) {
	db := dbtest.Open(t)
	f := seedCatalog(t, db)
	cache := newMemoryCache()
	svc := newTestService(t, db, cache)
	ctx := context.Background()

	_, err := svc.Hierarchy(ctx, f.customer.ID)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.LensBrand{}).Where("id = ?", f.zeiss.ID).Update("name", "Carl Zeiss").Error)
	svc.CatalogChanged(ctx)
	assert.Equal(t, "1", cache.values[cache.CatalogVersionKey()])

	fresh, err := svc.Hierarchy(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carl Zeiss", fresh.Brands[1].Name)

	// the rebuilt tree is cached under the new version
	require.NoError(t, db.Model(&models.LensBrand{}).Where("id = ?", f.zeiss.ID).Update("name", "Zeiss Vision").Error)
	cached, err := svc.Hierarchy(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carl Zeiss", cached.Brands[1].Name)
}

func TestListAndClearOverrides(t *testing.T) {
	db := dbtest.Open(t)
	f := seedCatalog(t, db)
	svc := newTestService(t, db, nil)
	ctx := context.Background()

	_, err := svc.ApplyDiscounts(ctx, types.ApplyDiscountsRequest{
		CustomerID: f.customer.ID,
		Discounts:  []types.DiscountEntry{entry(f, 0, 20), entry(f, 3, 10)},
	})
	require.NoError(t, err)

	overrides, err := svc.ListOverrides(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	assert.Equal(t, "Essilor", overrides[0].BrandName)
	assert.Equal(t, "Varilux Comfort", overrides[0].LensName)
	assert.Equal(t, "Crizal", overrides[0].CoatingName)
	assert.True(t, overrides[0].EffectivePrice.Equal(decimal.NewFromInt(1200)))
	assert.True(t, overrides[1].EffectivePrice.Equal(decimal.NewFromInt(5850)))

	removed, err := svc.ClearOverrides(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	overrides, err = svc.ListOverrides(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestDedupeLastWinsKeepsFirstPosition(t *testing.T) {
	in := []types.DiscountEntry{
		{PriceID: 3, Discount: decimal.NewFromInt(1)},
		{PriceID: 1, Discount: decimal.NewFromInt(2)},
		{PriceID: 3, Discount: decimal.NewFromInt(9)},
	}
	out := dedupeLastWins(in)
	require.Len(t, out, 2)
	assert.Equal(t, int64(3), out[0].PriceID)
	assert.True(t, out[0].Discount.Equal(decimal.NewFromInt(9)))
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(nil, nil, config.PricingConfig{}, nil, nil)
	assert.Error(t, err)
}
