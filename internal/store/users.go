package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adi-253/parley/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateUser inserts a new user, assigning an ID when missing.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetUserByUsername returns a user by login name.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "username = ?", username).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ListUsers returns every active user ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	list := []models.User{}
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("username ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// SaveUser writes every column of u.
func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// DeleteUser removes a user and everything that depends on them: messages
// they sent or received (with those messages' history and notifications),
// history snapshots they authored, their notifications and their
// conversation memberships.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&models.Message{}).
			Where("sender_id = ? OR recipient_id = ?", id, id).
			Pluck("id", &ids).Error
		if err != nil {
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

		if err := tx.Where("edited_by_id = ?", id).Delete(&models.MessageHistory{}).Error; err != nil {
			return fmt.Errorf("failed to delete authored history: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return fmt.Errorf("failed to delete notifications: %w", err)
		}
		if err := tx.Exec("DELETE FROM conversation_participants WHERE user_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}

		res := tx.Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
