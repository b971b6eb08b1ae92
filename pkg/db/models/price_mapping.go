package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceMapping is a customer-specific discount override on one price record.
type PriceMapping struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	CustomerID   int64           `gorm:"column:customer_id;not null;uniqueIndex:idx_price_mappings_customer_price"`
	PriceID      int64           `gorm:"column:price_id;not null;uniqueIndex:idx_price_mappings_customer_price;index"`
	DiscountRate decimal.Decimal `gorm:"column:discount_rate;type:numeric(5,2);not null"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`

	PriceRecord *LensPriceRecord `gorm:"foreignKey:PriceID"`
}
