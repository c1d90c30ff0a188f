package store

import (
	"context"

	"github.com/adi-253/parley/backend/internal/models"
	"gorm.io/gorm"
)

// Tx is the write surface handed to message hooks. Everything written
// through it commits or rolls back together with the message itself.
type Tx interface {
	InsertHistory(ctx context.Context, h *models.MessageHistory) error
	InsertNotification(ctx context.Context, n *models.Notification) error
}

// UpdateHook runs inside the update transaction, before the new version of
// an existing message is written. stored is nil when the row has vanished.
// Hooks may modify incoming.
type UpdateHook interface {
	BeforeUpdate(ctx context.Context, tx Tx, stored, incoming *models.Message) error
}

// CreateHook runs inside the create transaction, after the message row has
// been inserted. It never runs for updates.
type CreateHook interface {
	AfterCreate(ctx context.Context, tx Tx, msg *models.Message) error
}

// Commit describes a message write that has been committed.
type Commit struct {
	Message       models.Message
	Created       bool
	History       []models.MessageHistory
	Notifications []models.Notification
}

// CommitHook observes committed message writes. It cannot fail the write.
type CommitHook func(ctx context.Context, c Commit)

// txWriter implements Tx over a gorm transaction and remembers what was written.
type txWriter struct {
	tx            *gorm.DB
	history       []models.MessageHistory
	notifications []models.Notification
}

func (w *txWriter) InsertHistory(ctx context.Context, h *models.MessageHistory) error {
	if err := w.tx.WithContext(ctx).Create(h).Error; err != nil {
		return err
	}
	w.history = append(w.history, *h)
	return nil
}

func (w *txWriter) InsertNotification(ctx context.Context, n *models.Notification) error {
	if err := w.tx.WithContext(ctx).Create(n).Error; err != nil {
		return err
	}
	w.notifications = append(w.notifications, *n)
	return nil
}

// AddCommitHook registers hook after construction. Call it before the store
// is shared between goroutines.
func (s *Store) AddCommitHook(hook CommitHook) {
	s.commitHooks = append(s.commitHooks, hook)
}

func (s *Store) committed(ctx context.Context, c Commit) {
	for _, hook := range s.commitHooks {
		hook(ctx, c)
	}
}
