package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
)

// BrandInput creates or updates a lens brand. Nil fields are left unchanged on update.
type BrandInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

type BrandDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toBrandDTO(m models.LensBrand) BrandDTO {
	return BrandDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ProductInput creates or updates a lens product.
type ProductInput struct {
	BrandID     *int64
	LensName    *string
	ProductCode *string
	Description *string
	IsActive    *bool
}

type ProductDTO struct {
	ID          int64     `json:"id"`
	BrandID     int64     `json:"brand_id"`
	BrandName   string    `json:"brand_name,omitempty"`
	LensName    string    `json:"lens_name"`
	ProductCode string    `json:"product_code"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductDTO(m models.LensProduct) ProductDTO {
	dto := ProductDTO{
		ID:          m.ID,
		BrandID:     m.BrandID,
		LensName:    m.LensName,
		ProductCode: m.ProductCode,
		Description: m.Description,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Brand != nil {
		dto.BrandName = m.Brand.Name
	}
	return dto
}

// MasterInput covers the simple named masters: coatings, materials and tintings.
// RefractiveIndex only applies to materials.
type MasterInput struct {
	Name            *string
	Description     *string
	RefractiveIndex *decimal.Decimal
	IsActive        *bool
}

type MasterDTO struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	RefractiveIndex *decimal.Decimal `json:"refractive_index,omitempty"`
	IsActive        bool             `json:"is_active"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func coatingDTO(m models.Coating) MasterDTO {
	return MasterDTO{ID: m.ID, Name: m.Name, Description: m.Description, IsActive: m.IsActive, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func materialDTO(m models.LensMaterial) MasterDTO {
	dto := MasterDTO{ID: m.ID, Name: m.Name, Description: m.Description, IsActive: m.IsActive, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
	if m.RefractiveIndex.Valid {
		idx := m.RefractiveIndex.Decimal
		dto.RefractiveIndex = &idx
	}
	return dto
}

func tintingDTO(m models.LensTinting) MasterDTO {
	return MasterDTO{ID: m.ID, Name: m.Name, Description: m.Description, IsActive: m.IsActive, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

// PriceRecordInput creates or updates the base price of a (product, coating) pair.
type PriceRecordInput struct {
	ProductID *int64
	CoatingID *int64
	Price     *decimal.Decimal
	IsActive  *bool
}

type PriceRecordDTO struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	LensName    string          `json:"lens_name,omitempty"`
	CoatingID   int64           `json:"coating_id"`
	CoatingName string          `json:"coating_name,omitempty"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toPriceRecordDTO(m models.LensPriceRecord) PriceRecordDTO {
	dto := PriceRecordDTO{
		ID:        m.ID,
		ProductID: m.ProductID,
		CoatingID: m.CoatingID,
		Price:     m.Price,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Product != nil {
		dto.LensName = m.Product.LensName
	}
	if m.Coating != nil {
		dto.CoatingName = m.Coating.Name
	}
	return dto
}

// ProductFilter narrows product lists.
type ProductFilter struct {
	BrandID *int64
}

// PriceRecordFilter narrows price record lists.
type PriceRecordFilter struct {
	ProductID *int64
	CoatingID *int64
}
