package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/pkg/enums"
)

// Vendor supplies lens stock.
type Vendor struct {
	ID            int64              `gorm:"primaryKey;autoIncrement"`
	VendorCode    string             `gorm:"column:vendor_code;type:varchar(20);not null;uniqueIndex"`
	Name          string             `gorm:"type:varchar(150);not null"`
	ContactPerson *string            `gorm:"column:contact_person;type:varchar(100)"`
	Email         *string            `gorm:"type:varchar(255)"`
	Phone         *string            `gorm:"type:varchar(20)"`
	GSTIN         *string            `gorm:"column:gstin;type:varchar(15)"`
	Address       *string            `gorm:"type:text"`
	Status        enums.RecordStatus `gorm:"type:varchar(20);not null;default:active"`
	CreatedAt     time.Time          `gorm:"autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt     `gorm:"index"`
}

// Customer is an optical shop buying lenses; discounts are scoped to it.
type Customer struct {
	ID           int64              `gorm:"primaryKey;autoIncrement"`
	CustomerCode string             `gorm:"column:customer_code;type:varchar(20);not null;uniqueIndex"`
	Name         string             `gorm:"type:varchar(150);not null"`
	ShopName     *string            `gorm:"column:shop_name;type:varchar(150)"`
	Phone        *string            `gorm:"type:varchar(20)"`
	Email        *string            `gorm:"type:varchar(255)"`
	Address      *string            `gorm:"type:text"`
	CreditLimit  decimal.Decimal    `gorm:"column:credit_limit;type:numeric(12,2);not null;default:0"`
	Status       enums.RecordStatus `gorm:"type:varchar(20);not null;default:active"`
	CreatedAt    time.Time          `gorm:"autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt     `gorm:"index"`
}
