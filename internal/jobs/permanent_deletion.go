package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-social/backend/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultDeletionGrace    = 30 * 24 * time.Hour
	DefaultPurgeUserTimeout = 30 * time.Second
)

// PurgeStore selects and removes soft-deleted accounts.
type PurgeStore interface {
	FindPurgeable(ctx context.Context, cutoff time.Time) ([]uint, error)
	IsPurgeable(ctx context.Context, id uint, cutoff time.Time) (bool, error)
	PurgeUser(ctx context.Context, id uint, cutoff time.Time) (bool, error)
}

type HistoryPurger interface {
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)
}

// UserFailure is one account the sweep could not purge.
type UserFailure struct {
	UserID uint
	Err    error
}

type SweepReport struct {
	Processed int
	Purged    int
	Skipped   int
	Failures  []UserFailure
}

// PermanentDeletion purges accounts soft-deleted longer than the grace
// period, together with their history. Each account is handled on its own:
// one failure never stops the sweep.
type PermanentDeletion struct {
	users       PurgeStore
	history     HistoryPurger
	grace       time.Duration
	userTimeout time.Duration
	log         *logger.Logger
	now         func() time.Time
}

func NewPermanentDeletion(users PurgeStore, history HistoryPurger, grace, userTimeout time.Duration, log *logger.Logger) *PermanentDeletion {
	if grace <= 0 {
		grace = DefaultDeletionGrace
	}
	if userTimeout <= 0 {
		userTimeout = DefaultPurgeUserTimeout
	}
	return &PermanentDeletion{
		users:       users,
		history:     history,
		grace:       grace,
		userTimeout: userTimeout,
		log:         log.With("job", "permanent-deletion"),
		now:         time.Now,
	}
}

func (j *PermanentDeletion) Name() string { return "permanent-deletion" }

func (j *PermanentDeletion) Run(ctx context.Context) error {
	_, err := j.Sweep(ctx)
	return err
}

// Sweep processes every eligible account. The error is non-nil only when the
// candidates could not be selected or ctx ended mid-sweep.
func (j *PermanentDeletion) Sweep(ctx context.Context) (SweepReport, error) {
	ctx, span := tracer.Start(ctx, "jobs.permanent_deletion")
	defer span.End()

	var report SweepReport
	cutoff := j.now().Add(-j.grace)

	ids, err := j.users.FindPurgeable(ctx, cutoff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return report, fmt.Errorf("find purgeable users: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			j.logReport(report)
			return report, err
		}

		report.Processed++
		purged, err := j.purgeOne(ctx, id, cutoff)
		switch {
		case err != nil:
			report.Failures = append(report.Failures, UserFailure{UserID: id, Err: err})
			j.log.Error("failed to purge user", "user_id", id, "error", err)
		case purged:
			report.Purged++
		default:
			report.Skipped++
		}
	}

	span.SetAttributes(
		attribute.Int("users.processed", report.Processed),
		attribute.Int("users.purged", report.Purged),
		attribute.Int("users.failed", len(report.Failures)),
	)
	j.logReport(report)
	return report, nil
}

func (j *PermanentDeletion) purgeOne(ctx context.Context, id uint, cutoff time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, j.userTimeout)
	defer cancel()

	// the account may have been restored since selection
	ok, err := j.users.IsPurgeable(ctx, id, cutoff)
	if err != nil || !ok {
		return false, err
	}

	if _, err := j.history.DeleteByUserID(ctx, id); err != nil {
		return false, fmt.Errorf("delete history: %w", err)
	}
	purged, err := j.users.PurgeUser(ctx, id, cutoff)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return purged, nil
}

func (j *PermanentDeletion) logReport(r SweepReport) {
	j.log.Info("permanent deletion sweep finished",
		"processed", r.Processed, "purged", r.Purged, "skipped", r.Skipped, "failed", len(r.Failures))
}
