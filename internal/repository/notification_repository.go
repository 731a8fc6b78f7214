package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"podly/internal/models"
	"podly/internal/timeutil"

	"gorm.io/gorm"
)

// NotificationRepository implements services.NotificationLedger and the feed
// read path used by the HTTP handlers.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Exists reports whether a (username, pod, kind) notification was recorded
// at or after since.
func (r *NotificationRepository) Exists(ctx context.Context, username string, podID uint, kind models.NotificationKind, since time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("username = ? AND pod_id = ? AND kind = ? AND created_at >= ?", username, podID, kind, since).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking notification history for %s: %w", username, err)
	}
	return count > 0, nil
}

// Record appends a notification. The unique index on (username, pod_id,
// kind, day_bucket) turns a same-day double send from concurrent ticks into
// models.ErrDuplicateNotification.
func (r *NotificationRepository) Record(ctx context.Context, n *models.Notification) error {
	if n.DayBucket == "" {
		n.DayBucket = timeutil.DayBucket(time.Now())
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.ErrDuplicateNotification
		}
		return fmt.Errorf("recording notification for %s: %w", n.Username, err)
	}
	return nil
}

// ListForUser returns the user's feed, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, username string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var notifications []models.Notification
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("listing notifications for %s: %w", username, err)
	}
	return notifications, nil
}

// MarkRead flags one of the user's notifications as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, username string, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND username = ?", id, username).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("marking notification %d read: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
