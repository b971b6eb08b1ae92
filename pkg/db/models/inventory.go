package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/pkg/enums"
)

// Location is a physical store or stock room holding trays.
type Location struct {
	ID           int64              `gorm:"primaryKey;autoIncrement"`
	LocationCode string             `gorm:"column:location_code;type:varchar(20);not null;uniqueIndex"`
	Name         string             `gorm:"type:varchar(100);not null"`
	Address      *string            `gorm:"type:text"`
	Status       enums.RecordStatus `gorm:"type:varchar(20);not null;default:active"`
	CreatedAt    time.Time          `gorm:"autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt     `gorm:"index"`
}

// Tray holds lens stock inside a location.
type Tray struct {
	ID         int64              `gorm:"primaryKey;autoIncrement"`
	TrayCode   string             `gorm:"column:tray_code;type:varchar(20);not null;uniqueIndex"`
	LocationID int64              `gorm:"column:location_id;not null;index"`
	Name       string             `gorm:"type:varchar(100);not null"`
	Capacity   int                `gorm:"not null"`
	Status     enums.RecordStatus `gorm:"type:varchar(20);not null;default:active"`
	CreatedAt  time.Time          `gorm:"autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt     `gorm:"index"`

	Location *Location `gorm:"foreignKey:LocationID"`
}
