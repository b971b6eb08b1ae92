package types

import "github.com/shopspring/decimal"

// PriceHierarchy is the brand -> product -> coating price tree served per
// customer. Field names follow the public wire contract consumed by the
// discount editor.
type PriceHierarchy struct {
	Brands          []HierarchyBrand `json:"brands"`
	HasPriceMapping bool             `json:"hasPriceMapping"`
}

type HierarchyBrand struct {
	ID       int64              `json:"id"`
	Name     string             `json:"name"`
	Products []HierarchyProduct `json:"lensProductMasters"`
}

type HierarchyProduct struct {
	ID           int64                  `json:"id"`
	LensName     string                 `json:"lens_name"`
	ProductCode  string                 `json:"product_code"`
	PriceRecords []HierarchyPriceRecord `json:"lensPriceMasters"`
}

type HierarchyPriceRecord struct {
	ID            int64             `json:"id"`
	Price         decimal.Decimal   `json:"price"`
	Coating       HierarchyCoating  `json:"coating"`
	PriceMappings []PriceMappingRef `json:"priceMappings"`
}

type HierarchyCoating struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PriceMappingRef is the existing override for the requested customer, if any.
type PriceMappingRef struct {
	ID           int64           `json:"id"`
	CustomerID   int64           `json:"customerId"`
	DiscountRate decimal.Decimal `json:"discountRate"`
}

// ApplyDiscountsRequest is the batch write submitted by the editor.
type ApplyDiscountsRequest struct {
	CustomerID int64           `json:"customerId"`
	Discounts  []DiscountEntry `json:"discounts"`
}

type DiscountEntry struct {
	BrandID   int64           `json:"brandId"`
	ProductID int64           `json:"productId"`
	CoatingID int64           `json:"coatingId"`
	PriceID   int64           `json:"priceId"`
	Discount  decimal.Decimal `json:"discount"`
}

// ApplyDiscountsResult reports how many overrides were written.
type ApplyDiscountsResult struct {
	Affected int `json:"affected"`
}
