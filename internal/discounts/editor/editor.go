// Package editor holds the customer discount cascade editor: an operator sets
// percentages at brand, product or coating level, edits accumulate in memory
// and are written back as one batch of per-price-record overrides.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	"github.com/angelmondragon/lensretail-backend/pkg/types"
)

// ErrNothingToSave is returned by Save when there are no pending edits. It is
// a notice for the operator, not a failure.
var ErrNothingToSave = errors.New("no discount changes to save")

// ErrReloadFailed is returned by Save when the batch was written but the
// hierarchy could not be fetched again. The affected count is still valid.
var ErrReloadFailed = errors.New("discounts saved but the hierarchy could not be reloaded")

// Store is the remote side of the editor.
type Store interface {
	Hierarchy(ctx context.Context, customerID int64) (*types.PriceHierarchy, error)
	ApplyDiscounts(ctx context.Context, req types.ApplyDiscountsRequest) (*types.ApplyDiscountsResult, error)
}

// Editor is a single operator's editing session. It is not safe for
// concurrent use.
type Editor struct {
	store Store
	logg  *logger.Logger

	customerID int64
	hierarchy  *types.PriceHierarchy

	pending        *PendingEdits
	persisted      map[int64]decimal.Decimal
	brandDisplay   map[int64]decimal.Decimal
	productDisplay map[int64]decimal.Decimal
	dirty          bool
	expanded       bool
}

// New builds an editor bound to store. logg may be nil.
func New(store Store, logg *logger.Logger) (*Editor, error) {
	if store == nil {
		return nil, fmt.Errorf("discount store required")
	}
	return &Editor{
		store:          store,
		logg:           logg,
		pending:        NewPendingEdits(),
		persisted:      make(map[int64]decimal.Decimal),
		brandDisplay:   make(map[int64]decimal.Decimal),
		productDisplay: make(map[int64]decimal.Decimal),
	}, nil
}

// LoadHierarchy fetches the price tree for customerID and replaces the session
// state. Existing overrides above 0% are seeded as persisted edits, so a fresh
// load is never dirty. On failure the previous state is kept.
func (e *Editor) LoadHierarchy(ctx context.Context, customerID int64) error {
	if customerID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "select a customer")
	}
	tree, err := e.store.Hierarchy(ctx, customerID)
	if err != nil {
		return asDependency(err, "load price hierarchy")
	}
	if tree == nil {
		tree = &types.PriceHierarchy{}
	}

	e.customerID = customerID
	e.hierarchy = tree
	e.clearSession()
	e.loadPersisted()

	if e.logg != nil {
		ctx = e.logg.WithCustomerID(ctx, customerID)
		ctx = e.logg.WithFields(ctx, map[string]any{
			"brands":          len(tree.Brands),
			"persisted_edits": e.pending.Len(),
		})
		e.logg.Info(ctx, "discounts.hierarchy_loaded")
	}
	return nil
}

// SetBrandDiscount writes percent to every coating of every product under the
// brand, replacing any finer-grained pending values.
func (e *Editor) SetBrandDiscount(brandID int64, percent decimal.Decimal) error {
	if err := ValidatePercent(percent); err != nil {
		return err
	}
	edits, err := ApplyCascade(e.hierarchy, BrandScope(brandID), percent)
	if err != nil {
		return err
	}
	for _, edit := range edits {
		e.pending.Set(edit)
	}

	e.brandDisplay[brandID] = percent
	brand := findBrand(e.hierarchy, brandID)
	for _, product := range brand.Products {
		e.productDisplay[product.ID] = percent
	}
	e.dirty = true
	e.debug("discounts.brand_cascade", map[string]any{"brand_id": brandID, "percent": percent.String(), "entries": len(edits)})
	return nil
}

// SetProductDiscount cascades percent to the coatings of one product. Sibling
// products keep whatever they had.
func (e *Editor) SetProductDiscount(brandID, productID int64, percent decimal.Decimal) error {
	if err := ValidatePercent(percent); err != nil {
		return err
	}
	edits, err := ApplyCascade(e.hierarchy, ProductScope(brandID, productID), percent)
	if err != nil {
		return err
	}
	for _, edit := range edits {
		e.pending.Set(edit)
	}

	e.productDisplay[productID] = percent
	e.dirty = true
	e.debug("discounts.product_cascade", map[string]any{"brand_id": brandID, "product_id": productID, "percent": percent.String(), "entries": len(edits)})
	return nil
}

// SetCoatingDiscount sets a single price record's pending discount.
func (e *Editor) SetCoatingDiscount(brandID, productID, coatingID, priceRecordID int64, percent decimal.Decimal) error {
	if err := ValidatePercent(percent); err != nil {
		return err
	}
	if e.hierarchy == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no price hierarchy loaded")
	}
	if err := e.locate(brandID, productID, coatingID, priceRecordID); err != nil {
		return err
	}

	e.pending.Set(PendingEdit{
		BrandID:   brandID,
		ProductID: productID,
		CoatingID: coatingID,
		PriceID:   priceRecordID,
		Discount:  percent,
		Origin:    OriginCoating,
	})
	e.dirty = true
	e.debug("discounts.coating_set", map[string]any{"price_id": priceRecordID, "percent": percent.String()})
	return nil
}

// Save submits every pending edit for customerID as one batch. On success the
// session is cleared and the hierarchy reloaded; on failure pending edits are
// kept so the operator can retry.
func (e *Editor) Save(ctx context.Context, customerID int64) (int, error) {
	if e.pending.Len() == 0 {
		return 0, ErrNothingToSave
	}
	if customerID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "select a customer")
	}

	req := e.buildRequest(customerID)
	if err := validateBatch(req.Discounts); err != nil {
		return 0, err
	}

	result, err := e.store.ApplyDiscounts(ctx, req)
	if err != nil {
		if e.logg != nil {
			e.logg.Warn(e.logg.WithCustomerID(ctx, customerID), "discounts.save_failed")
		}
		return 0, asDependency(err, "apply discounts")
	}

	affected := 0
	if result != nil {
		affected = result.Affected
	}
	if e.logg != nil {
		ctx = e.logg.WithCustomerID(ctx, customerID)
		e.logg.Info(e.logg.WithField(ctx, "affected", affected), "discounts.saved")
	}

	e.clearSession()
	if err := e.LoadHierarchy(ctx, customerID); err != nil {
		if e.logg != nil {
			e.logg.Warn(e.logg.WithField(ctx, "reason", err.Error()), "discounts.reload_failed")
		}
		return affected, fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}
	return affected, nil
}

// Reset empties the pending edits and cascade display values without
// contacting the store. Rates already stored for the customer remain
// visible through PersistedRate and DiscountedPrice.
func (e *Editor) Reset() {
	e.clearSession()
}

// DiscountedPrice is the display price of a price record under its current
// pending discount, or the base price when it has none.
func (e *Editor) DiscountedPrice(priceID int64) (decimal.Decimal, bool) {
	if e.hierarchy == nil {
		return decimal.Zero, false
	}
	for _, brand := range e.hierarchy.Brands {
		for _, product := range brand.Products {
			for _, record := range product.PriceRecords {
				if record.ID != priceID {
					continue
				}
				if edit, ok := e.pending.Get(priceID); ok {
					return ComputeDiscountedPrice(record.Price, edit.Discount), true
				}
				if rate, ok := e.persisted[priceID]; ok {
					return ComputeDiscountedPrice(record.Price, rate), true
				}
				return record.Price, true
			}
		}
	}
	return decimal.Zero, false
}

// Filter returns the loaded brands matching query. It never changes which
// records a cascade or save covers.
func (e *Editor) Filter(query string) []types.HierarchyBrand {
	if e.hierarchy == nil {
		return nil
	}
	return FilterBrands(e.hierarchy.Brands, query)
}

func (e *Editor) ExpandAll()     { e.expanded = true }
func (e *Editor) CollapseAll()   { e.expanded = false }
func (e *Editor) Expanded() bool { return e.expanded }

// Dirty reports unsaved changes since the last load, save or reset.
func (e *Editor) Dirty() bool { return e.dirty }

func (e *Editor) CustomerID() int64 { return e.customerID }

func (e *Editor) Hierarchy() *types.PriceHierarchy { return e.hierarchy }

// Pending returns a snapshot of the pending edits in first-touched order.
func (e *Editor) Pending() []PendingEdit { return e.pending.Entries() }

func (e *Editor) PendingFor(priceID int64) (PendingEdit, bool) { return e.pending.Get(priceID) }

// PersistedRate is the override stored for the loaded customer at load time.
func (e *Editor) PersistedRate(priceID int64) (decimal.Decimal, bool) {
	v, ok := e.persisted[priceID]
	return v, ok
}

func (e *Editor) BrandDisplay(brandID int64) (decimal.Decimal, bool) {
	v, ok := e.brandDisplay[brandID]
	return v, ok
}

func (e *Editor) ProductDisplay(productID int64) (decimal.Decimal, bool) {
	v, ok := e.productDisplay[productID]
	return v, ok
}

func (e *Editor) clearSession() {
	e.pending.Clear()
	e.brandDisplay = make(map[int64]decimal.Decimal)
	e.productDisplay = make(map[int64]decimal.Decimal)
	e.dirty = false
}

// loadPersisted records the stored overrides of the loaded tree and seeds
// them as pending edits that do not count as unsaved.
func (e *Editor) loadPersisted() {
	e.persisted = make(map[int64]decimal.Decimal)
	if e.hierarchy == nil || !e.hierarchy.HasPriceMapping {
		return
	}
	for _, brand := range e.hierarchy.Brands {
		for _, product := range brand.Products {
			for _, record := range product.PriceRecords {
				rate, ok := persistedRate(record, e.customerID)
				if !ok {
					continue
				}
				e.persisted[record.ID] = rate
				e.pending.Set(PendingEdit{
					BrandID:   brand.ID,
					ProductID: product.ID,
					CoatingID: record.Coating.ID,
					PriceID:   record.ID,
					Discount:  rate,
					Origin:    OriginPersisted,
				})
			}
		}
	}
}

func persistedRate(record types.HierarchyPriceRecord, customerID int64) (decimal.Decimal, bool) {
	for _, mapping := range record.PriceMappings {
		if mapping.CustomerID != 0 && mapping.CustomerID != customerID {
			continue
		}
		if mapping.DiscountRate.GreaterThan(decimal.Zero) {
			return mapping.DiscountRate, true
		}
	}
	return decimal.Zero, false
}

func (e *Editor) locate(brandID, productID, coatingID, priceID int64) error {
	brand := findBrand(e.hierarchy, brandID)
	if brand == nil {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "brand %d not found", brandID)
	}
	product := findProduct(brand, productID)
	if product == nil {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "product %d not found under brand %d", productID, brandID)
	}
	record := findRecord(product, priceID)
	if record == nil || record.Coating.ID != coatingID {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "price record %d with coating %d not found under product %d", priceID, coatingID, productID)
	}
	return nil
}

func (e *Editor) buildRequest(customerID int64) types.ApplyDiscountsRequest {
	entries := e.pending.Entries()
	discounts := make([]types.DiscountEntry, 0, len(entries))
	for _, edit := range entries {
		discounts = append(discounts, types.DiscountEntry{
			BrandID:   edit.BrandID,
			ProductID: edit.ProductID,
			CoatingID: edit.CoatingID,
			PriceID:   edit.PriceID,
			Discount:  edit.Discount,
		})
	}
	return types.ApplyDiscountsRequest{CustomerID: customerID, Discounts: discounts}
}

// validateBatch re-checks every entry before anything leaves the process.
func validateBatch(entries []types.DiscountEntry) error {
	var errs error
	for _, entry := range entries {
		if err := ValidatePercent(entry.Discount); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("price %d: %w", entry.PriceID, err))
		}
	}
	if errs == nil {
		return nil
	}
	msgs := make([]string, 0)
	for _, err := range multierr.Errors(errs) {
		msgs = append(msgs, err.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "discount batch has out-of-range entries").
		WithDetails(map[string]any{"entries": msgs})
}

func asDependency(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func (e *Editor) debug(msg string, fields map[string]any) {
	if e.logg == nil {
		return
	}
	ctx := e.logg.WithCustomerID(context.Background(), e.customerID)
	e.logg.Debug(e.logg.WithFields(ctx, fields), msg)
}
