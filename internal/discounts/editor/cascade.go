package editor

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/types"
)

var (
	minPercent = decimal.Zero
	maxPercent = decimal.NewFromInt(100)
	hundred    = decimal.NewFromInt(100)
)

// ScopeLevel is the granularity a cascade is applied at.
type ScopeLevel string

const (
	ScopeBrand   ScopeLevel = "brand"
	ScopeProduct ScopeLevel = "product"
)

// Scope selects the subtree a cascade writes to.
type Scope struct {
	Level     ScopeLevel
	BrandID   int64
	ProductID int64
}

func BrandScope(brandID int64) Scope {
	return Scope{Level: ScopeBrand, BrandID: brandID}
}

func ProductScope(brandID, productID int64) Scope {
	return Scope{Level: ScopeProduct, BrandID: brandID, ProductID: productID}
}

// ApplyCascade returns one edit per coating price record under scope, each
// carrying percent. It does not mutate the tree; callers overwrite their
// pending map with the result so the last cascade wins.
func ApplyCascade(tree *types.PriceHierarchy, scope Scope, percent decimal.Decimal) ([]PendingEdit, error) {
	if tree == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no price hierarchy loaded")
	}
	brand := findBrand(tree, scope.BrandID)
	if brand == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "brand %d not found", scope.BrandID)
	}

	origin := OriginBrand
	products := brand.Products
	if scope.Level == ScopeProduct {
		product := findProduct(brand, scope.ProductID)
		if product == nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %d not found under brand %d", scope.ProductID, scope.BrandID)
		}
		origin = OriginProduct
		products = []types.HierarchyProduct{*product}
	}

	var edits []PendingEdit
	for _, product := range products {
		for _, record := range product.PriceRecords {
			edits = append(edits, PendingEdit{
				BrandID:   brand.ID,
				ProductID: product.ID,
				CoatingID: record.Coating.ID,
				PriceID:   record.ID,
				Discount:  percent,
				Origin:    origin,
			})
		}
	}
	return edits, nil
}

// ValidatePercent rejects discounts outside [0, 100], naming the bound.
func ValidatePercent(percent decimal.Decimal) error {
	if percent.LessThan(minPercent) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must be at least 0").
			WithDetails(map[string]any{"field": "discount", "bound": "min", "min": 0, "value": percent.String()})
	}
	if percent.GreaterThan(maxPercent) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must be at most 100").
			WithDetails(map[string]any{"field": "discount", "bound": "max", "max": 100, "value": percent.String()})
	}
	return nil
}

// ComputeDiscountedPrice returns base reduced by percent. Display only.
func ComputeDiscountedPrice(base, percent decimal.Decimal) decimal.Decimal {
	if percent.IsZero() {
		return base
	}
	return base.Sub(base.Mul(percent).Div(hundred))
}

// ParsePercent reads operator input. Anything that is not a number is 0.
func ParsePercent(text string) decimal.Decimal {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	if trimmed == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// FilterBrands keeps brands whose name, or any product's lens name, contains
// query case-insensitively. An empty query keeps everything.
func FilterBrands(brands []types.HierarchyBrand, query string) []types.HierarchyBrand {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return brands
	}
	out := make([]types.HierarchyBrand, 0, len(brands))
	for _, brand := range brands {
		if strings.Contains(strings.ToLower(brand.Name), needle) {
			out = append(out, brand)
			continue
		}
		for _, product := range brand.Products {
			if strings.Contains(strings.ToLower(product.LensName), needle) {
				out = append(out, brand)
				break
			}
		}
	}
	return out
}

func findBrand(tree *types.PriceHierarchy, brandID int64) *types.HierarchyBrand {
	for i := range tree.Brands {
		if tree.Brands[i].ID == brandID {
			return &tree.Brands[i]
		}
	}
	return nil
}

func findProduct(brand *types.HierarchyBrand, productID int64) *types.HierarchyProduct {
	for i := range brand.Products {
		if brand.Products[i].ID == productID {
			return &brand.Products[i]
		}
	}
	return nil
}

func findRecord(product *types.HierarchyProduct, priceID int64) *types.HierarchyPriceRecord {
	for i := range product.PriceRecords {
		if product.PriceRecords[i].ID == priceID {
			return &product.PriceRecords[i]
		}
	}
	return nil
}
