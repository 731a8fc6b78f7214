package models

import (
	"time"

	"gorm.io/gorm"
)

// Account represents a user account in the system. PushToken is the device
// token for push notifications; it is empty when the user has no registered
// device or the token was invalidated by the push gateway.
type Account struct {
	Username   string         `gorm:"primaryKey;size:30;not null" json:"username" binding:"required,alphanum"`
	Email      string         `gorm:"uniqueIndex;size:255;not null" json:"email" binding:"required,email"`
	PushToken  string         `gorm:"size:512" json:"-"`
	Rating     float64        `gorm:"type:decimal(3,2);not null;default:5.0" json:"rating"`
	DateJoined time.Time      `gorm:"not null" json:"date_joined"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook is called before creating a new account
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	if a.DateJoined.IsZero() {
		a.DateJoined = now
	}
	if a.Rating == 0 {
		a.Rating = 5.0
	}
	return nil
}

// BeforeSave hook is called before saving the account
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "account"
}
