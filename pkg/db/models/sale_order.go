package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/lensretail-backend/pkg/enums"
)

// SaleOrder is a customer order for prescription lenses.
type SaleOrder struct {
	ID                   int64                 `gorm:"primaryKey;autoIncrement"`
	OrderNo              string                `gorm:"column:order_no;type:varchar(30);not null;uniqueIndex"`
	CustomerID           int64                 `gorm:"column:customer_id;not null;index"`
	OrderDate            time.Time             `gorm:"column:order_date;not null"`
	ExpectedDeliveryDate *time.Time            `gorm:"column:expected_delivery_date"`
	Status               enums.SaleOrderStatus `gorm:"type:varchar(20);not null;index"`
	Remarks              *string               `gorm:"type:text"`
	Subtotal             decimal.Decimal       `gorm:"type:numeric(12,2);not null"`
	DiscountTotal        decimal.Decimal       `gorm:"column:discount_total;type:numeric(12,2);not null"`
	Total                decimal.Decimal       `gorm:"type:numeric(12,2);not null"`
	CreatedBy            *uuid.UUID            `gorm:"column:created_by;type:uuid"`
	CreatedAt            time.Time             `gorm:"autoCreateTime"`
	UpdatedAt            time.Time             `gorm:"autoUpdateTime"`

	Customer *Customer       `gorm:"foreignKey:CustomerID"`
	Items    []SaleOrderItem `gorm:"foreignKey:SaleOrderID"`
}

// Prescription holds the refraction values for one eye.
type Prescription struct {
	Sph  decimal.NullDecimal `gorm:"column:sph;type:numeric(5,2)"`
	Cyl  decimal.NullDecimal `gorm:"column:cyl;type:numeric(5,2)"`
	Axis *int                `gorm:"column:axis"`
	Add  decimal.NullDecimal `gorm:"column:add_power;type:numeric(4,2)"`
}

// SaleOrderItem is one lens line of a sale order.
type SaleOrderItem struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	SaleOrderID   int64           `gorm:"column:sale_order_id;not null;index"`
	PriceRecordID int64           `gorm:"column:price_record_id;not null"`
	ProductID     int64           `gorm:"column:product_id;not null"`
	CoatingID     int64           `gorm:"column:coating_id;not null"`
	MaterialID    *int64          `gorm:"column:material_id"`
	TintingID     *int64          `gorm:"column:tinting_id"`
	Quantity      int             `gorm:"not null"`
	BasePrice     decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null"`
	DiscountRate  decimal.Decimal `gorm:"column:discount_rate;type:numeric(5,2);not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal     decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	Right         Prescription    `gorm:"embedded;embeddedPrefix:right_"`
	Left          Prescription    `gorm:"embedded;embeddedPrefix:left_"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`

	PriceRecord *LensPriceRecord `gorm:"foreignKey:PriceRecordID"`
}
