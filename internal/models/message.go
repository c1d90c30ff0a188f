package models

import "time"

// Message is a single chat message addressed from a sender to a recipient
// inside a conversation.
type Message struct {
	// ID is the unique identifier for this message (UUID)
	ID string `gorm:"primaryKey;size:36" json:"message_id"`

	// ConversationID is the conversation this message belongs to
	ConversationID string `gorm:"index;size:36;not null" json:"conversation"`

	SenderID    string `gorm:"index;size:36;not null" json:"sender"`
	RecipientID string `gorm:"index;size:36;not null" json:"recipient"`

	// Body is the message text
	Body string `gorm:"not null" json:"message_body"`

	// Edited flips to true the first time the body changes and never flips back
	Edited bool `gorm:"not null" json:"edited"`

	// ParentID points at the message this one replies to
	ParentID *string `gorm:"index;size:36" json:"parent_message"`

	// Read is set once the recipient has viewed the message
	Read bool `gorm:"column:is_read;index;not null" json:"read"`

	// Version guards concurrent updates; every committed update bumps it
	Version int `gorm:"not null" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"sent_at"`
}

// UnreadMessage is the field-limited row returned by the unread projection
type UnreadMessage struct {
	ID             string    `json:"message_id"`
	ConversationID string    `json:"conversation"`
	SenderID       string    `json:"sender"`
	RecipientID    string    `json:"recipient"`
	Body           string    `json:"message_body"`
	Edited         bool      `json:"edited"`
	ParentID       *string   `json:"parent_message"`
	Read           bool      `gorm:"column:is_read" json:"read"`
	CreatedAt      time.Time `json:"sent_at"`
}

// MessageHistory is an immutable snapshot of a message body taken right
// before an edit replaced it.
type MessageHistory struct {
	ID uint `gorm:"primaryKey" json:"history_id"`

	MessageID string `gorm:"index;size:36;not null" json:"message"`

	// OldBody is the body as it was before the edit
	OldBody string `gorm:"not null" json:"old_content"`

	// EditedByID is the user that made the edit; nil when unknown
	EditedByID *string `gorm:"index;size:36" json:"edited_by"`

	EditedAt time.Time `json:"edited_at"`
}

// SendMessageRequest is the request body for posting a message.
// Recipient may be omitted in two-party conversations.
type SendMessageRequest struct {
	Body        string  `json:"message_body"`
	RecipientID *string `json:"recipient"`
	ParentID    *string `json:"parent_message"`
}

// EditMessageRequest is the request body for editing a message body
type EditMessageRequest struct {
	Body string `json:"message_body"`
}

// MessageFilter narrows a message listing
type MessageFilter struct {
	ConversationID string
	// ParticipantID limits results to messages the user sent or received
	ParticipantID string
	After         time.Time
	Before        time.Time
}

// Page is a paginated list response
type Page[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}
