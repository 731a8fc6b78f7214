package models

import (
	"time"

	"gorm.io/gorm"
)

// PodStatus represents the lifecycle state of a pod
type PodStatus string

const (
	PodRecruiting PodStatus = "recruiting"
	PodCompleted  PodStatus = "completed"
	PodCanceled   PodStatus = "canceled"
	PodClosed     PodStatus = "closed"
)

// Pod represents a group meetup in the system. The meeting moment is stored
// as a calendar date plus a time-of-day; both are interpreted in UTC and may
// be absent on drafts, so the sweeps must tolerate nil fields.
type Pod struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string         `gorm:"size:100;not null" json:"title"`
	OwnerID     string         `gorm:"size:30;not null;index" json:"owner_id"`
	MeetDate    *time.Time     `gorm:"type:date" json:"meet_date"`
	MeetTime    *string        `gorm:"type:time" json:"meet_time"` // "HH:MM" or "HH:MM:SS"
	Location    string         `gorm:"size:255" json:"location"`
	MaxMembers  int            `gorm:"not null;default:0" json:"max_members"`
	Description string         `gorm:"type:text" json:"description"`
	Status      PodStatus      `gorm:"size:20;not null;index" json:"status"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook is called before creating a new pod
func (p *Pod) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if p.Status == "" {
		p.Status = PodRecruiting
	}
	return nil
}

// BeforeSave hook is called before saving the pod
func (p *Pod) BeforeSave(tx *gorm.DB) error {
	p.UpdatedAt = time.Now()
	return nil
}

// TableName specifies the table name for the Pod model
func (Pod) TableName() string {
	return "pod"
}
