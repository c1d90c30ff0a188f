package observers

import (
	"context"
	"fmt"
	"time"

	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/store"
)

// EditDiff snapshots a message body before it is overwritten and marks the
// message as edited. It only runs for updates of existing messages.
type EditDiff struct {
	Now func() time.Time
}

// BeforeUpdate compares the stored body with the incoming one. A missing
// stored row means the message was deleted concurrently and is skipped.
func (o EditDiff) BeforeUpdate(ctx context.Context, tx store.Tx, stored, incoming *models.Message) error {
	if stored == nil || incoming == nil {
		return nil
	}
	if stored.Body == incoming.Body {
		return nil
	}

	editor := incoming.SenderID
	snapshot := &models.MessageHistory{
		MessageID:  stored.ID,
		OldBody:    stored.Body,
		EditedByID: &editor,
		EditedAt:   now(o.Now),
	}
	if err := tx.InsertHistory(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to snapshot message %s: %w", stored.ID, err)
	}

	incoming.Edited = true
	return nil
}

func now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock()
	}
	return time.Now().UTC()
}
