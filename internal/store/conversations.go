package store

import (
	"context"
	"fmt"

	"github.com/adi-253/parley/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateConversation inserts a conversation and links the given participants.
func (s *Store) CreateConversation(ctx context.Context, c *models.Conversation, participantIDs []string) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users []models.User
		if err := tx.Where("id IN ?", participantIDs).Find(&users).Error; err != nil {
			return err
		}
		if len(users) != len(participantIDs) {
			return ErrNotFound
		}
		c.Participants = users
		if err := tx.Omit("Participants.*").Create(c).Error; err != nil {
			return fmt.Errorf("failed to insert conversation: %w", err)
		}
		return nil
	})
}

// GetConversation returns a conversation with its participants.
func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var c models.Conversation
	err := s.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("username ASC") }).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListConversations returns the conversations userID takes part in, newest
// first, optionally filtered by a title substring.
func (s *Store) ListConversations(ctx context.Context, userID, search string) ([]models.Conversation, error) {
	list := []models.Conversation{}
	q := s.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("username ASC") }).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID)
	if search != "" {
		q = q.Where("conversations.title LIKE ?", "%"+search+"%")
	}
	if err := q.Order("conversations.created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// IsParticipant reports whether userID belongs to conversation id.
func (s *Store) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Table("conversation_participants").
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RenameConversation sets a new title.
func (s *Store) RenameConversation(ctx context.Context, id, title string) error {
	res := s.db.WithContext(ctx).Model(&models.Conversation{}).Where("id = ?", id).Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteConversation removes a conversation, its memberships and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Message{}).Where("conversation_id = ?", id).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.Where("id IN ?", ids).Delete(&models.Message{}).Error; err != nil {
				return fmt.Errorf("failed to delete messages: %w", err)
			}
			if err := purgeMessages(tx, ids); err != nil {
				return err
			}
		}
		if err := tx.Exec("DELETE FROM conversation_participants WHERE conversation_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
