package jobs

import (
	"context"
	"time"

	"github.com/anonto42/nano-social/backend/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultNotificationRetention = 30 * 24 * time.Hour

var tracer trace.Tracer = otel.Tracer("github.com/anonto42/nano-social/backend/internal/jobs")

type NotificationDeleter interface {
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationCleanup deletes notifications older than the retention window.
type NotificationCleanup struct {
	store     NotificationDeleter
	retention time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func NewNotificationCleanup(store NotificationDeleter, retention time.Duration, log *logger.Logger) *NotificationCleanup {
	if retention <= 0 {
		retention = DefaultNotificationRetention
	}
	return &NotificationCleanup{
		store:     store,
		retention: retention,
		log:       log.With("job", "notification-retention"),
		now:       time.Now,
	}
}

func (j *NotificationCleanup) Name() string { return "notification-retention" }

func (j *NotificationCleanup) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "jobs.notification_cleanup")
	defer span.End()

	cutoff := j.now().Add(-j.retention)
	deleted, err := j.store.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cleanup failed")
		return err
	}
	span.SetAttributes(attribute.Int64("notifications.deleted", deleted))
	j.log.Info("old notifications deleted", "deleted", deleted, "cutoff", cutoff)
	return nil
}
