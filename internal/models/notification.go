package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// NotificationKind tags a notification with the reminder that produced it.
// The kind is part of the dedup key: a (username, pod, kind) triple is only
// notified once per dedup window.
type NotificationKind string

const (
	KindStartSoon     NotificationKind = "start_soon"
	KindLowAttendance NotificationKind = "low_attendance"
	KindCanceledSoon  NotificationKind = "canceled_soon"
	KindSavedDeadline NotificationKind = "saved_deadline"
	KindReviewDay     NotificationKind = "review_day"
	KindReviewWeek    NotificationKind = "review_week"
)

// ErrDuplicateNotification is returned by the ledger when the unique
// (username, pod, kind, day bucket) index rejects an insert. Callers treat it
// as "already sent", not as a failure.
var ErrDuplicateNotification = errors.New("notification already recorded")

// Notification is both the user-facing feed entry and the dedup ledger for
// the reminder sweeps. DayBucket is the UTC calendar date of the send; the
// unique index on it closes the race between concurrent sweep ticks that the
// rolling-window existence check alone cannot.
type Notification struct {
	ID        uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string           `gorm:"size:30;not null;index;index:idx_notification_dedup,unique" json:"username"`
	PodID     uint             `gorm:"not null;index:idx_notification_dedup,unique" json:"pod_id"`
	Kind      NotificationKind `gorm:"size:20;not null;index:idx_notification_dedup,unique" json:"kind"`
	DayBucket string           `gorm:"size:10;not null;index:idx_notification_dedup,unique" json:"-"`
	Title     string           `gorm:"size:255;not null" json:"title"`
	Body      string           `gorm:"type:text;not null" json:"body"`
	Data      datatypes.JSON   `gorm:"type:jsonb;default:'{}'" json:"data"`
	Read      bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time        `gorm:"not null;index" json:"created_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notification"
}
