package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/lensretail-backend/internal/discounts/editor"
	"github.com/angelmondragon/lensretail-backend/pkg/config"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	"github.com/angelmondragon/lensretail-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/lensretail-backend/pkg/redis"
	"github.com/angelmondragon/lensretail-backend/pkg/types"
)

type pricingRepository interface {
	LoadHierarchy(ctx context.Context, customerID int64) ([]models.LensBrand, error)
	CustomerExists(ctx context.Context, customerID int64) (bool, error)
	CountMappings(ctx context.Context, customerID int64) (int64, error)
	FindPriceRecords(ctx context.Context, ids []int64) ([]models.LensPriceRecord, error)
	UpsertOverrides(ctx context.Context, customerID int64, overrides []Override) (int, error)
	ListMappings(ctx context.Context, customerID int64) ([]models.PriceMapping, error)
	DeleteForCustomer(ctx context.Context, customerID int64) (int64, error)
}

// hierarchyCache is satisfied by the redis client.
type hierarchyCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	HierarchyCacheKey(customerID int64) string
	CatalogVersionKey() string
}

// cachedHierarchy is the cache payload, tagged with the catalog version it
// was built from.
type cachedHierarchy struct {
	Version string                `json:"version"`
	Tree    *types.PriceHierarchy `json:"tree"`
}

// Service exposes customer price-mapping operations.
type Service interface {
	Hierarchy(ctx context.Context, customerID int64) (*types.PriceHierarchy, error)
	ApplyDiscounts(ctx context.Context, req types.ApplyDiscountsRequest) (*types.ApplyDiscountsResult, error)
	ListOverrides(ctx context.Context, customerID int64) ([]OverrideDTO, error)
	ClearOverrides(ctx context.Context, customerID int64) (int64, error)
	CatalogChanged(ctx context.Context)
}

type service struct {
	repo    pricingRepository
	cache   hierarchyCache
	cfg     config.PricingConfig
	metrics *metrics.DiscountMetrics
	logg    *logger.Logger
}

// NewService builds the pricing service. cache and m may be nil.
func NewService(repo pricingRepository, cache hierarchyCache, cfg config.PricingConfig, m *metrics.DiscountMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, cache: cache, cfg: cfg, metrics: m, logg: logg}, nil
}

// OverrideDTO is one stored override with the price it produces.
type OverrideDTO struct {
	ID             int64           `json:"id"`
	PriceID        int64           `json:"priceId"`
	BrandID        int64           `json:"brandId"`
	BrandName      string          `json:"brandName"`
	ProductID      int64           `json:"productId"`
	LensName       string          `json:"lens_name"`
	CoatingID      int64           `json:"coatingId"`
	CoatingName    string          `json:"coatingName"`
	BasePrice      decimal.Decimal `json:"basePrice"`
	DiscountRate   decimal.Decimal `json:"discountRate"`
	EffectivePrice decimal.Decimal `json:"effectivePrice"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (s *service) Hierarchy(ctx context.Context, customerID int64) (*types.PriceHierarchy, error) {
	if err := s.requireCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	version, versioned := s.catalogVersion(ctx)
	if versioned {
		if cached, ok := s.readCache(ctx, customerID, version); ok {
			return cached, nil
		}
	}

	brands, err := s.repo.LoadHierarchy(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price hierarchy")
	}
	count, err := s.repo.CountMappings(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count price mappings")
	}

	tree := buildHierarchy(brands, count > 0)
	if versioned {
		s.writeCache(ctx, customerID, tree, version)
	}
	return tree, nil
}

func (s *service) ApplyDiscounts(ctx context.Context, req types.ApplyDiscountsRequest) (*types.ApplyDiscountsResult, error) {
	affected, err := s.apply(ctx, req)
	if err != nil {
		s.metrics.BatchRejected()
		return nil, err
	}
	s.metrics.BatchApplied(affected)
	s.invalidate(ctx, req.CustomerID)

	ctx = s.logg.WithCustomerID(ctx, req.CustomerID)
	s.logg.Info(s.logg.WithField(ctx, "affected", affected), "pricing.discounts_applied")
	return &types.ApplyDiscountsResult{Affected: affected}, nil
}

func (s *service) apply(ctx context.Context, req types.ApplyDiscountsRequest) (int, error) {
	if req.CustomerID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "customerId is required")
	}
	if len(req.Discounts) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "discounts must not be empty")
	}
	if s.cfg.MaxBatchSize > 0 && len(req.Discounts) > s.cfg.MaxBatchSize {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d discounts per batch", s.cfg.MaxBatchSize).
			WithDetails(map[string]any{"max": s.cfg.MaxBatchSize, "received": len(req.Discounts)})
	}
	if err := s.requireCustomer(ctx, req.CustomerID); err != nil {
		return 0, err
	}

	entries := dedupeLastWins(req.Discounts)

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.PriceID)
	}
	records, err := s.repo.FindPriceRecords(ctx, ids)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price records")
	}
	byID := make(map[int64]models.LensPriceRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	if err := validateEntries(entries, byID); err != nil {
		return 0, err
	}

	overrides := make([]Override, 0, len(entries))
	for _, e := range entries {
		overrides = append(overrides, Override{PriceID: e.PriceID, DiscountRate: e.Discount.Round(2)})
	}
	affected, err := s.repo.UpsertOverrides(ctx, req.CustomerID, overrides)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist price mappings")
	}
	return affected, nil
}

func (s *service) ListOverrides(ctx context.Context, customerID int64) ([]OverrideDTO, error) {
	if err := s.requireCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	mappings, err := s.repo.ListMappings(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list price mappings")
	}

	out := make([]OverrideDTO, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, toOverrideDTO(m))
	}
	return out, nil
}

func (s *service) ClearOverrides(ctx context.Context, customerID int64) (int64, error) {
	if err := s.requireCustomer(ctx, customerID); err != nil {
		return 0, err
	}
	removed, err := s.repo.DeleteForCustomer(ctx, customerID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear price mappings")
	}
	s.invalidate(ctx, customerID)
	return removed, nil
}

func (s *service) requireCustomer(ctx context.Context, customerID int64) error {
	if customerID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "customerId is required")
	}
	ok, err := s.repo.CustomerExists(ctx, customerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "customer %d not found", customerID)
	}
	return nil
}

// CatalogChanged retires every cached hierarchy after a catalog write. When
// the bump fails, cached trees stay stale for at most HierarchyCacheTTL.
func (s *service) CatalogChanged(ctx context.Context) {
	if s.cache == nil || s.cfg.HierarchyCacheTTL <= 0 {
		return
	}
	if _, err := s.cache.Incr(ctx, s.cache.CatalogVersionKey()); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "pricing.catalog_version_bump_failed")
	}
}

// catalogVersion reads the current catalog version. The cache is bypassed
// when it cannot be read.
func (s *service) catalogVersion(ctx context.Context) (string, bool) {
	if s.cache == nil || s.cfg.HierarchyCacheTTL <= 0 {
		return "", false
	}
	raw, err := s.cache.Get(ctx, s.cache.CatalogVersionKey())
	switch {
	case pkgredis.IsMiss(err):
		return "0", true
	case err != nil:
		return "", false
	}
	return raw, true
}

func (s *service) readCache(ctx context.Context, customerID int64, version string) (*types.PriceHierarchy, bool) {
	raw, err := s.cache.Get(ctx, s.cache.HierarchyCacheKey(customerID))
	if err != nil {
		return nil, false
	}
	var entry cachedHierarchy
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.Tree == nil {
		s.logg.Warn(s.logg.WithCustomerID(ctx, customerID), "pricing.hierarchy_cache_corrupt")
		return nil, false
	}
	if entry.Version != version {
		return nil, false
	}
	return entry.Tree, true
}

func (s *service) writeCache(ctx context.Context, customerID int64, tree *types.PriceHierarchy, version string) {
	payload, err := json.Marshal(cachedHierarchy{Version: version, Tree: tree})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.HierarchyCacheKey(customerID), string(payload), s.cfg.HierarchyCacheTTL); err != nil {
		s.logg.Warn(s.logg.WithCustomerID(ctx, customerID), "pricing.hierarchy_cache_write_failed")
	}
}

func (s *service) invalidate(ctx context.Context, customerID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.HierarchyCacheKey(customerID)); err != nil {
		s.logg.Warn(s.logg.WithCustomerID(ctx, customerID), "pricing.hierarchy_cache_invalidate_failed")
	}
}

// dedupeLastWins keeps one entry per price record, the last one submitted,
// at the position where that record first appeared.
func dedupeLastWins(in []types.DiscountEntry) []types.DiscountEntry {
	index := make(map[int64]int, len(in))
	out := make([]types.DiscountEntry, 0, len(in))
	for _, e := range in {
		if i, ok := index[e.PriceID]; ok {
			out[i] = e
			continue
		}
		index[e.PriceID] = len(out)
		out = append(out, e)
	}
	return out
}

// validateEntries checks every entry and reports all problems together.
func validateEntries(entries []types.DiscountEntry, records map[int64]models.LensPriceRecord) error {
	var errs error
	for _, e := range entries {
		if err := editor.ValidatePercent(e.Discount); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("price %d: %w", e.PriceID, err))
			continue
		}
		rec, ok := records[e.PriceID]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("price %d: price record not found", e.PriceID))
			continue
		}
		if rec.ProductID != e.ProductID || rec.CoatingID != e.CoatingID {
			errs = multierr.Append(errs, fmt.Errorf("price %d: does not belong to product %d with coating %d", e.PriceID, e.ProductID, e.CoatingID))
			continue
		}
		if rec.Product == nil || rec.Product.BrandID != e.BrandID {
			errs = multierr.Append(errs, fmt.Errorf("price %d: product %d does not belong to brand %d", e.PriceID, e.ProductID, e.BrandID))
		}
	}
	if errs == nil {
		return nil
	}

	problems := multierr.Errors(errs)
	msgs := make([]string, 0, len(problems))
	for _, err := range problems {
		msgs = append(msgs, err.Error())
	}
	msg := "invalid discount entries"
	if len(problems) == 1 {
		msg = problems[0].Error()
		var typed *pkgerrors.Error
		if errors.As(problems[0], &typed) {
			msg = typed.Message()
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, msg).WithDetails(map[string]any{"entries": msgs})
}

func buildHierarchy(brands []models.LensBrand, hasMapping bool) *types.PriceHierarchy {
	tree := &types.PriceHierarchy{
		Brands:          make([]types.HierarchyBrand, 0, len(brands)),
		HasPriceMapping: hasMapping,
	}
	for _, b := range brands {
		brand := types.HierarchyBrand{ID: b.ID, Name: b.Name, Products: make([]types.HierarchyProduct, 0, len(b.Products))}
		for _, p := range b.Products {
			product := types.HierarchyProduct{
				ID:           p.ID,
				LensName:     p.LensName,
				ProductCode:  p.ProductCode,
				PriceRecords: make([]types.HierarchyPriceRecord, 0, len(p.PriceRecords)),
			}
			for _, rec := range p.PriceRecords {
				record := types.HierarchyPriceRecord{
					ID:            rec.ID,
					Price:         rec.Price,
					PriceMappings: make([]types.PriceMappingRef, 0, len(rec.PriceMappings)),
				}
				if rec.Coating != nil {
					record.Coating = types.HierarchyCoating{ID: rec.Coating.ID, Name: rec.Coating.Name}
				} else {
					record.Coating = types.HierarchyCoating{ID: rec.CoatingID}
				}
				for _, m := range rec.PriceMappings {
					record.PriceMappings = append(record.PriceMappings, types.PriceMappingRef{
						ID:           m.ID,
						CustomerID:   m.CustomerID,
						DiscountRate: m.DiscountRate,
					})
				}
				product.PriceRecords = append(product.PriceRecords, record)
			}
			brand.Products = append(brand.Products, product)
		}
		tree.Brands = append(tree.Brands, brand)
	}
	return tree
}

func toOverrideDTO(m models.PriceMapping) OverrideDTO {
	dto := OverrideDTO{
		ID:           m.ID,
		PriceID:      m.PriceID,
		DiscountRate: m.DiscountRate,
		UpdatedAt:    m.UpdatedAt,
	}
	if rec := m.PriceRecord; rec != nil {
		dto.ProductID = rec.ProductID
		dto.CoatingID = rec.CoatingID
		dto.BasePrice = rec.Price
		dto.EffectivePrice = editor.ComputeDiscountedPrice(rec.Price, m.DiscountRate).Round(2)
		if rec.Product != nil {
			dto.LensName = rec.Product.LensName
			dto.BrandID = rec.Product.BrandID
			if rec.Product.Brand != nil {
				dto.BrandName = rec.Product.Brand.Name
			}
		}
		if rec.Coating != nil {
			dto.CoatingName = rec.Coating.Name
		}
	}
	return dto
}
