package store

import (
	"context"

	"github.com/adi-253/parley/backend/internal/models"
)

// ListNotifications returns the notifications of userID, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	list := []models.Notification{}
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if err := q.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// MarkNotificationRead flags a notification owned by userID as read.
func (s *Store) MarkNotificationRead(ctx context.Context, id uint, userID string) error {
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
