package models

import "time"

// Notification tells a recipient that a message arrived for them.
// Exactly one is created per message; edits never create more.
type Notification struct {
	ID uint `gorm:"primaryKey" json:"notification_id"`

	// UserID is the recipient being notified
	UserID string `gorm:"index;size:36;not null" json:"user"`

	MessageID string `gorm:"index;size:36;not null" json:"message"`

	Read bool `gorm:"column:is_read;not null" json:"is_read"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
