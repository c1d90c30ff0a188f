package models

import "time"

// Conversation is a named group of participants exchanging messages.
type Conversation struct {
	// ID is the unique identifier for the conversation (UUID)
	ID string `gorm:"primaryKey;size:36" json:"conversation_id"`

	// Title is searchable and must be at least three characters long
	Title string `gorm:"size:255;not null" json:"title"`

	// Participants are the users allowed to read and post in the conversation
	Participants []User `gorm:"many2many:conversation_participants;" json:"participants"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// CreateConversationRequest is the request body for creating a conversation.
// The caller is always added to the participant list.
type CreateConversationRequest struct {
	Title        string   `json:"title"`
	Participants []string `json:"participants"`
}

// UpdateConversationRequest is the request body for renaming a conversation
type UpdateConversationRequest struct {
	Title string `json:"title"`
}
