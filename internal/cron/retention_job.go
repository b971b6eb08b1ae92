package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/lensretail-backend/pkg/logger"
)

const (
	auditRetentionDays    = 180
	errorLogRetentionDays = 30
)

// purger deletes rows created before cutoff and reports how many went.
type purger func(ctx context.Context, cutoff time.Time) (int64, error)

type logStore interface {
	PurgeAudit(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeErrors(ctx context.Context, cutoff time.Time) (int64, error)
}

type RetentionJobParams struct {
	Logger    *logger.Logger
	Store     logStore
	Retention int
}

// NewAuditRetentionJob drops audit log rows older than Retention days.
func NewAuditRetentionJob(params RetentionJobParams) (Job, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("audit store required")
	}
	job, err := newRetentionJob("audit-retention", params, auditRetentionDays, params.Store.PurgeAudit)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// NewErrorLogRetentionJob drops error log rows older than Retention days.
func NewErrorLogRetentionJob(params RetentionJobParams) (Job, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("audit store required")
	}
	job, err := newRetentionJob("error-log-retention", params, errorLogRetentionDays, params.Store.PurgeErrors)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func newRetentionJob(name string, params RetentionJobParams, fallback int, purge purger) (*retentionJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = fallback
	}
	return &retentionJob{
		name:      name,
		logg:      params.Logger,
		purge:     purge,
		retention: retention,
		now:       time.Now,
	}, nil
}

type retentionJob struct {
	name      string
	logg      *logger.Logger
	purge     purger
	retention int
	now       func() time.Time
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)
	deleted, err := j.purge(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "retention cleanup complete")
	return nil
}
