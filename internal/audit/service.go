package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

// Entry describes one successful mutation.
type Entry struct {
	UserID    *uuid.UUID
	Target    Target
	Changes   []byte
	IPAddress string
	UserAgent string
	RequestID string
}

// ErrorEntry describes one failed request.
type ErrorEntry struct {
	RequestID string
	Method    string
	Path      string
	Code      string
	Message   string
	Detail    any
	UserID    *uuid.UUID
}

type AuditFilter struct {
	UserID     *uuid.UUID
	Action     *enums.AuditAction
	EntityType string
	EntityID   string
	From       *time.Time
	To         *time.Time
}

type ErrorFilter struct {
	Code      string
	RequestID string
	From      *time.Time
	To        *time.Time
}

type AuditDTO struct {
	ID         uuid.UUID         `json:"id"`
	UserID     *uuid.UUID        `json:"user_id,omitempty"`
	Action     enums.AuditAction `json:"action"`
	EntityType string            `json:"entity_type"`
	EntityID   *string           `json:"entity_id,omitempty"`
	Changes    json.RawMessage   `json:"changes,omitempty"`
	IPAddress  *string           `json:"ip_address,omitempty"`
	UserAgent  *string           `json:"user_agent,omitempty"`
	RequestID  *string           `json:"request_id,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type ErrorDTO struct {
	ID        uuid.UUID       `json:"id"`
	RequestID *string         `json:"request_id,omitempty"`
	Method    string          `json:"method"`
	Path      string          `json:"path"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	UserID    *uuid.UUID      `json:"user_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type auditRepository interface {
	CreateAudit(ctx context.Context, entry *models.AuditLog) error
	CreateError(ctx context.Context, entry *models.ErrorLog) error
	ListAudit(ctx context.Context, params pagination.Params, f AuditFilter) ([]models.AuditLog, int64, error)
	ListErrors(ctx context.Context, params pagination.Params, f ErrorFilter) ([]models.ErrorLog, int64, error)
	DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteErrorsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service records and reads the audit trail and the error log.
type Service interface {
	Record(ctx context.Context, entry Entry)
	RecordError(ctx context.Context, entry ErrorEntry)
	ListAudit(ctx context.Context, params pagination.Params, f AuditFilter) (pagination.Result[AuditDTO], error)
	ListErrors(ctx context.Context, params pagination.Params, f ErrorFilter) (pagination.Result[ErrorDTO], error)
	PurgeAudit(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeErrors(ctx context.Context, cutoff time.Time) (int64, error)
}

type service struct {
	repo auditRepository
	logg *logger.Logger
}

func NewService(repo auditRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Record stores entry. Failures are logged, never returned.
func (s *service) Record(ctx context.Context, entry Entry) {
	row := &models.AuditLog{
		UserID:     entry.UserID,
		Action:     entry.Target.Action,
		EntityType: entry.Target.EntityType,
		EntityID:   entry.Target.EntityID,
		IPAddress:  optional(entry.IPAddress),
		UserAgent:  optional(entry.UserAgent),
		RequestID:  optional(entry.RequestID),
	}
	if len(entry.Changes) > 0 {
		row.Changes = datatypes.JSON(entry.Changes)
	}
	if err := s.repo.CreateAudit(context.WithoutCancel(ctx), row); err != nil {
		s.warn(ctx, "audit.write_failed", err)
	}
}

// RecordError stores entry. Failures are logged, never returned.
func (s *service) RecordError(ctx context.Context, entry ErrorEntry) {
	row := &models.ErrorLog{
		RequestID: optional(entry.RequestID),
		Method:    entry.Method,
		Path:      entry.Path,
		Code:      entry.Code,
		Message:   entry.Message,
		UserID:    entry.UserID,
	}
	if entry.Detail != nil {
		if raw, err := json.Marshal(entry.Detail); err == nil {
			row.Detail = datatypes.JSON(raw)
		}
	}
	if err := s.repo.CreateError(context.WithoutCancel(ctx), row); err != nil {
		s.warn(ctx, "error_log.write_failed", err)
	}
}

func (s *service) ListAudit(ctx context.Context, params pagination.Params, f AuditFilter) (pagination.Result[AuditDTO], error) {
	rows, total, err := s.repo.ListAudit(ctx, params, f)
	if err != nil {
		return pagination.Result[AuditDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit logs")
	}
	return pagination.Map(pagination.NewResult(rows, params, total), func(m models.AuditLog) AuditDTO {
		return AuditDTO{
			ID:         m.ID,
			UserID:     m.UserID,
			Action:     m.Action,
			EntityType: m.EntityType,
			EntityID:   m.EntityID,
			Changes:    json.RawMessage(m.Changes),
			IPAddress:  m.IPAddress,
			UserAgent:  m.UserAgent,
			RequestID:  m.RequestID,
			CreatedAt:  m.CreatedAt,
		}
	}), nil
}

func (s *service) ListErrors(ctx context.Context, params pagination.Params, f ErrorFilter) (pagination.Result[ErrorDTO], error) {
	rows, total, err := s.repo.ListErrors(ctx, params, f)
	if err != nil {
		return pagination.Result[ErrorDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list error logs")
	}
	return pagination.Map(pagination.NewResult(rows, params, total), func(m models.ErrorLog) ErrorDTO {
		return ErrorDTO{
			ID:        m.ID,
			RequestID: m.RequestID,
			Method:    m.Method,
			Path:      m.Path,
			Code:      m.Code,
			Message:   m.Message,
			Detail:    json.RawMessage(m.Detail),
			UserID:    m.UserID,
			CreatedAt: m.CreatedAt,
		}
	}), nil
}

func (s *service) PurgeAudit(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.DeleteAuditBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge audit logs")
	}
	return n, nil
}

func (s *service) PurgeErrors(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.DeleteErrorsBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge error logs")
	}
	return n, nil
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
