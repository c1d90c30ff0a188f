package services

import (
	"context"

	"github.com/adi-253/parley/backend/internal/auth"
	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/store"
)

// NotificationService lists and acknowledges notifications.
type NotificationService struct {
	store *store.Store
}

func NewNotificationService(s *store.Store) *NotificationService {
	return &NotificationService{store: s}
}

func (s *NotificationService) List(ctx context.Context, caller auth.Authenticated, unreadOnly bool) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, caller.UserID, unreadOnly)
}

// MarkRead acknowledges a notification owned by userID.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, id uint) error {
	return s.store.MarkNotificationRead(ctx, id, userID)
}
