package models

import "time"

// Membership status values for PodMember
const (
	MemberPending  = "pending"
	MemberApproved = "approved"
	MemberRejected = "rejected"
)

// PodMember represents a user's membership in a pod. The pod owner is also
// stored as an approved member so participant queries cover both.
type PodMember struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PodID     uint      `gorm:"not null;index:idx_pod_member,unique" json:"pod_id"`
	Username  string    `gorm:"size:30;not null;index:idx_pod_member,unique" json:"username"`
	Status    string    `gorm:"size:10;not null" json:"status"`
	JoinedAt  time.Time `gorm:"not null" json:"joined_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the PodMember model
func (PodMember) TableName() string {
	return "pod_member"
}

// PodLike records that a user saved a pod to follow it
type PodLike struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PodID     uint      `gorm:"not null;index:idx_pod_like,unique" json:"pod_id"`
	Username  string    `gorm:"size:30;not null;index:idx_pod_like,unique" json:"username"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for the PodLike model
func (PodLike) TableName() string {
	return "pod_like"
}
