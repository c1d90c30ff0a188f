package observers

import (
	"context"
	"fmt"
	"time"

	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/store"
)

// NotifyRecipient creates the single unread notification that accompanies a
// newly created message.
type NotifyRecipient struct {
	Now func() time.Time
}

// AfterCreate writes one notification for msg's recipient.
func (o NotifyRecipient) AfterCreate(ctx context.Context, tx store.Tx, msg *models.Message) error {
	n := &models.Notification{
		UserID:    msg.RecipientID,
		MessageID: msg.ID,
		CreatedAt: now(o.Now),
	}
	if err := tx.InsertNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to notify %s: %w", msg.RecipientID, err)
	}
	return nil
}
