package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/adi-253/parley/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// unreadColumns is the field set returned by UnreadFor
var unreadColumns = []string{
	"id", "conversation_id", "sender_id", "recipient_id", "body",
	"edited", "parent_id", "is_read", "created_at",
}

// CreateMessage inserts msg and runs the create hooks in the same
// transaction. Commit hooks run after the transaction commits.
func (s *Store) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	msg.Version = 1

	w := &txWriter{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w.tx = tx
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		for _, hook := range s.createHooks {
			if err := hook.AfterCreate(ctx, w, msg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.committed(ctx, Commit{Message: *msg, Created: true, Notifications: w.notifications})
	return nil
}

// UpdateMessage loads message id, lets mutate change it, runs the update
// hooks and writes the result guarded by the row version. A lost race
// restarts the whole read-compare-write cycle.
func (s *Store) UpdateMessage(ctx context.Context, id string, mutate func(m *models.Message) error) (*models.Message, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var out models.Message
		w := &txWriter{}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			w.tx = tx
			var stored models.Message
			if err := tx.First(&stored, "id = ?", id).Error; err != nil {
				return notFound(err)
			}

			incoming := stored
			if err := mutate(&incoming); err != nil {
				return err
			}
			for _, hook := range s.updateHooks {
				if err := hook.BeforeUpdate(ctx, w, &stored, &incoming); err != nil {
					return err
				}
			}

			res := tx.Model(&models.Message{}).
				Where("id = ? AND version = ?", id, stored.Version).
				Updates(map[string]interface{}{
					"body":    incoming.Body,
					"edited":  incoming.Edited,
					"is_read": incoming.Read,
					"version": stored.Version + 1,
				})
			if res.Error != nil {
				return fmt.Errorf("failed to update message: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrConflict
			}

			incoming.Version = stored.Version + 1
			out = incoming
			return nil
		})
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.committed(ctx, Commit{Message: out, History: w.history})
		return &out, nil
	}
	return nil, ErrConflict
}

// GetMessage returns a single message by ID.
func (s *Store) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	var m models.Message
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// ListMessages returns one page of messages matching f, newest first, and
// the total number of matches. Bounds are compared in UTC, the zone
// created_at is written in.
func (s *Store) ListMessages(ctx context.Context, f models.MessageFilter, page, pageSize int) ([]models.Message, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Message{})
	if f.ConversationID != "" {
		q = q.Where("conversation_id = ?", f.ConversationID)
	}
	if f.ParticipantID != "" {
		q = q.Where("sender_id = ? OR recipient_id = ?", f.ParticipantID, f.ParticipantID)
	}
	if !f.After.IsZero() {
		q = q.Where("created_at >= ?", f.After.UTC())
	}
	if !f.Before.IsZero() {
		q = q.Where("created_at <= ?", f.Before.UTC())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(page, pageSize)
	list := []models.Message{}
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// UnreadFor returns the unread messages addressed to userID, newest first,
// restricted to the projection columns. It never writes.
func (s *Store) UnreadFor(ctx context.Context, userID string) ([]models.UnreadMessage, error) {
	list := []models.UnreadMessage{}
	err := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Select(unreadColumns).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Thread returns every direct and indirect reply to message id, oldest first.
func (s *Store) Thread(ctx context.Context, id string) ([]models.Message, error) {
	list := []models.Message{}
	err := s.db.WithContext(ctx).Raw(`
		WITH RECURSIVE thread(id) AS (
			SELECT id FROM messages WHERE parent_id = ?
			UNION
			SELECT m.id FROM messages m JOIN thread t ON m.parent_id = t.id
		)
		SELECT * FROM messages WHERE id IN (SELECT id FROM thread)
		ORDER BY created_at ASC`, id).Scan(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// History returns the edit snapshots of message id, oldest first.
func (s *Store) History(ctx context.Context, id string) ([]models.MessageHistory, error) {
	list := []models.MessageHistory{}
	err := s.db.WithContext(ctx).
		Where("message_id = ?", id).
		Order("edited_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteMessage removes a message with its history and notifications.
// Replies are kept and detached from the deleted parent.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Message{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return purgeMessages(tx, []string{id})
	})
}

// purgeMessages removes the rows that hang off already deleted messages.
func purgeMessages(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("message_id IN ?", ids).Delete(&models.MessageHistory{}).Error; err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	if err := tx.Where("message_id IN ?", ids).Delete(&models.Notification{}).Error; err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	err := tx.Model(&models.Message{}).
		Where("parent_id IN ?", ids).
		Update("parent_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to detach replies: %w", err)
	}
	return nil
}
