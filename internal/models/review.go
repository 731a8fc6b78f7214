package models

import "time"

// Review is a participant's rating of a pod after it met. The reminder sweeps
// only read it to exclude users who already reviewed.
type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PodID     uint      `gorm:"not null;index:idx_review,unique" json:"pod_id"`
	Username  string    `gorm:"size:30;not null;index:idx_review,unique" json:"username"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "review"
}
