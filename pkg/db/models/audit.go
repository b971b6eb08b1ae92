package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/pkg/enums"
)

// AuditLog records one successful mutation.
type AuditLog struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	UserID     *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	Action     enums.AuditAction `gorm:"type:varchar(30);not null"`
	EntityType string            `gorm:"column:entity_type;type:varchar(50);not null;index:idx_audit_logs_entity"`
	EntityID   *string           `gorm:"column:entity_id;type:varchar(64);index:idx_audit_logs_entity"`
	Changes    datatypes.JSON    `gorm:"column:changes"`
	IPAddress  *string           `gorm:"column:ip_address;type:varchar(64)"`
	UserAgent  *string           `gorm:"column:user_agent;type:text"`
	RequestID  *string           `gorm:"column:request_id;type:varchar(64)"`
	CreatedAt  time.Time         `gorm:"autoCreateTime;index"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ErrorLog records a failed request that surfaced an internal or dependency error.
type ErrorLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	RequestID *string        `gorm:"column:request_id;type:varchar(64)"`
	Method    string         `gorm:"type:varchar(10);not null"`
	Path      string         `gorm:"type:text;not null"`
	Code      string         `gorm:"type:varchar(40);not null"`
	Message   string         `gorm:"type:text;not null"`
	Detail    datatypes.JSON `gorm:"column:detail"`
	UserID    *uuid.UUID     `gorm:"column:user_id;type:uuid"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index"`
}

func (e *ErrorLog) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
