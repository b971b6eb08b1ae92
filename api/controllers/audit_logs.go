package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/lensretail-backend/api/validators"
	"github.com/angelmondragon/lensretail-backend/internal/audit"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
)

func auditHandler(svc audit.Service, logg *logger.Logger, fn endpoint) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "audit")
	}
	return serve(logg, fn)
}

// AdminAuditLogs lists audit entries, newest first.
func AdminAuditLogs(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return auditHandler(svc, logg, func(r *http.Request) (int, any, error) {
		params, err := pageParams(r)
		if err != nil {
			return 0, nil, err
		}
		filter, err := auditFilter(r)
		if err != nil {
			return 0, nil, err
		}
		page, err := svc.ListAudit(r.Context(), params, filter)
		return http.StatusOK, page, err
	})
}

func auditFilter(r *http.Request) (audit.AuditFilter, error) {
	q := r.URL.Query()
	filter := audit.AuditFilter{
		EntityType: strings.TrimSpace(q.Get("entity_type")),
		EntityID:   strings.TrimSpace(q.Get("entity_id")),
	}
	if raw := strings.TrimSpace(q.Get("user_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id").
				WithDetails(map[string]string{"user_id": "must be a UUID"})
		}
		filter.UserID = &id
	}
	if raw := strings.TrimSpace(q.Get("action")); raw != "" {
		action, err := enums.ParseAuditAction(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action").
				WithDetails(map[string]string{"action": "unknown audit action"})
		}
		filter.Action = &action
	}
	var err error
	if filter.From, err = validators.ParseQueryDate(r, "from"); err != nil {
		return filter, err
	}
	filter.To, err = inclusiveTo(r)
	return filter, err
}

func AdminErrorLogs(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return auditHandler(svc, logg, func(r *http.Request) (int, any, error) {
		params, err := pageParams(r)
		if err != nil {
			return 0, nil, err
		}
		q := r.URL.Query()
		filter := audit.ErrorFilter{
			Code:      strings.ToUpper(strings.TrimSpace(q.Get("code"))),
			RequestID: strings.TrimSpace(q.Get("request_id")),
		}
		if filter.From, err = validators.ParseQueryDate(r, "from"); err != nil {
			return 0, nil, err
		}
		if filter.To, err = inclusiveTo(r); err != nil {
			return 0, nil, err
		}
		page, err := svc.ListErrors(r.Context(), params, filter)
		return http.StatusOK, page, err
	})
}

// inclusiveTo widens a bare YYYY-MM-DD "to" bound to the end of that day.
func inclusiveTo(r *http.Request) (*time.Time, error) {
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil || to == nil {
		return to, err
	}
	if len(strings.TrimSpace(r.URL.Query().Get("to"))) == len(dateLayout) {
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		return &end, nil
	}
	return to, nil
}
