package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LensBrand is the top level of the discount hierarchy.
type LensBrand struct {
	ID          int64          `gorm:"primaryKey;autoIncrement"`
	Name        string         `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description *string        `gorm:"type:text"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`

	Products []LensProduct `gorm:"foreignKey:BrandID"`
}

// LensProduct belongs to a brand and owns one price record per coating.
type LensProduct struct {
	ID          int64          `gorm:"primaryKey;autoIncrement"`
	BrandID     int64          `gorm:"column:brand_id;not null;index"`
	LensName    string         `gorm:"column:lens_name;type:varchar(150);not null"`
	ProductCode string         `gorm:"column:product_code;type:varchar(50);not null;uniqueIndex"`
	Description *string        `gorm:"type:text"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`

	Brand        *LensBrand        `gorm:"foreignKey:BrandID"`
	PriceRecords []LensPriceRecord `gorm:"foreignKey:ProductID"`
}

// Coating is a lens surface treatment (anti-reflective, blue cut, ...).
type Coating struct {
	ID          int64          `gorm:"primaryKey;autoIncrement"`
	Name        string         `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description *string        `gorm:"type:text"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// LensMaterial is the lens substrate chosen per sale order line.
type LensMaterial struct {
	ID              int64               `gorm:"primaryKey;autoIncrement"`
	Name            string              `gorm:"type:varchar(100);not null;uniqueIndex"`
	RefractiveIndex decimal.NullDecimal `gorm:"column:refractive_index;type:numeric(4,3)"`
	Description     *string             `gorm:"type:text"`
	IsActive        bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time           `gorm:"autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt      `gorm:"index"`
}

// LensTinting is an optional tint applied to a sale order line.
type LensTinting struct {
	ID          int64          `gorm:"primaryKey;autoIncrement"`
	Name        string         `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description *string        `gorm:"type:text"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// LensPriceRecord is the base price of one (product, coating) pair and the
// unit at which customer discounts are persisted.
type LensPriceRecord struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	ProductID int64           `gorm:"column:product_id;not null;uniqueIndex:idx_lens_price_records_product_coating"`
	CoatingID int64           `gorm:"column:coating_id;not null;uniqueIndex:idx_lens_price_records_product_coating"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt  `gorm:"index"`

	Product       *LensProduct   `gorm:"foreignKey:ProductID"`
	Coating       *Coating       `gorm:"foreignKey:CoatingID"`
	PriceMappings []PriceMapping `gorm:"foreignKey:PriceID"`
}
