package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(ctx context.Context, job models.NotificationJob) (*models.Notification, error)
	GetByRecipientID(ctx context.Context, recipientID uint, read *bool, page, limit int) ([]models.Notification, int64, error)
	GetGrouped(ctx context.Context, recipientID uint) ([]models.NotificationGroup, error)
	GetUnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkAsRead(ctx context.Context, recipientID, notificationID uint) error
	MarkAllAsRead(ctx context.Context, recipientID uint) (int64, error)
	Delete(ctx context.Context, recipientID, notificationID uint) error
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type postgresNotificationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db, now: time.Now}
}

// Create persists one notification job. It is the dispatcher's sink.
func (r *postgresNotificationRepository) Create(ctx context.Context, job models.NotificationJob) (*models.Notification, error) {
	n := job.ToNotification()
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, storeError("create notification", err)
	}
	return n, nil
}

func (r *postgresNotificationRepository) GetByRecipientID(ctx context.Context, recipientID uint, read *bool, page, limit int) ([]models.Notification, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
		if read != nil {
			q = q.Where("is_read = ?", *read)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, storeError("list notifications", err)
	}

	notifications := []models.Notification{}
	err := base().
		Order("created_at DESC, id DESC").
		Scopes(Paginate(page, limit)).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, storeError("list notifications", err)
	}
	return notifications, total, nil
}

// GetGrouped buckets a recipient's notifications into today, yesterday,
// this week and older (capped at 50).
func (r *postgresNotificationRepository) GetGrouped(ctx context.Context, recipientID uint) ([]models.NotificationGroup, error) {
	now := r.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)

	buckets := []struct {
		period string
		scope  func(*gorm.DB) *gorm.DB
	}{
		{"today", func(db *gorm.DB) *gorm.DB { return db.Where("created_at >= ?", todayStart) }},
		{"yesterday", func(db *gorm.DB) *gorm.DB {
			return db.Where("created_at >= ? AND created_at < ?", yesterdayStart, todayStart)
		}},
		{"this_week", func(db *gorm.DB) *gorm.DB {
			return db.Where("created_at >= ? AND created_at < ?", weekStart, yesterdayStart)
		}},
		{"older", func(db *gorm.DB) *gorm.DB { return db.Where("created_at < ?", weekStart).Limit(50) }},
	}

	groups := make([]models.NotificationGroup, 0, len(buckets))
	for _, b := range buckets {
		notifications := []models.Notification{}
		err := r.db.WithContext(ctx).
			Where("recipient_id = ?", recipientID).
			Scopes(b.scope).
			Order("created_at DESC, id DESC").
			Find(&notifications).Error
		if err != nil {
			return nil, storeError("group notifications", err)
		}
		groups = append(groups, models.NotificationGroup{Period: b.period, Notifications: notifications})
	}
	return groups, nil
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, storeError("count unread notifications", err)
}

// MarkAsRead only touches notifications owned by recipientID.
func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, recipientID, notificationID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return storeError("mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, storeError("mark all notifications read", res.Error)
}

func (r *postgresNotificationRepository) Delete(ctx context.Context, recipientID, notificationID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return storeError("delete notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteCreatedBefore removes every notification older than cutoff.
func (r *postgresNotificationRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.Notification{})
	return res.RowsAffected, storeError("delete old notifications", res.Error)
}
