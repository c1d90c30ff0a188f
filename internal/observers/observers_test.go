package observers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adi-253/parley/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	history       []models.MessageHistory
	notifications []models.Notification
	err           error
}

func (f *fakeTx) InsertHistory(_ context.Context, h *models.MessageHistory) error {
	if f.err != nil {
		return f.err
	}
	f.history = append(f.history, *h)
	return nil
}

func (f *fakeTx) InsertNotification(_ context.Context, n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.notifications = append(f.notifications, *n)
	return nil
}

var fixed = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixed }

func TestEditDiffSnapshotsChangedBody(t *testing.T) {
	tx := &fakeTx{}
	stored := &models.Message{ID: "m1", SenderID: "alice", Body: "hello"}
	incoming := &models.Message{ID: "m1", SenderID: "alice", Body: "hello there"}

	err := EditDiff{Now: clock}.BeforeUpdate(context.Background(), tx, stored, incoming)
	require.NoError(t, err)

	require.Len(t, tx.history, 1)
	assert.Equal(t, "m1", tx.history[0].MessageID)
	assert.Equal(t, "hello", tx.history[0].OldBody)
	require.NotNil(t, tx.history[0].EditedByID)
	assert.Equal(t, "alice", *tx.history[0].EditedByID)
	assert.Equal(t, fixed, tx.history[0].EditedAt)
	assert.True(t, incoming.Edited)
}

func TestEditDiffIgnoresUnchangedBody(t *testing.T) {
	tx := &fakeTx{}
	stored := &models.Message{ID: "m1", Body: "same"}
	incoming := &models.Message{ID: "m1", Body: "same", Read: true}

	require.NoError(t, EditDiff{Now: clock}.BeforeUpdate(context.Background(), tx, stored, incoming))
	assert.Empty(t, tx.history)
	assert.False(t, incoming.Edited)
}

func TestEditDiffSkipsVanishedRow(t *testing.T) {
	tx := &fakeTx{}
	incoming := &models.Message{ID: "gone", Body: "x"}

	require.NoError(t, EditDiff{}.BeforeUpdate(context.Background(), tx, nil, incoming))
	assert.Empty(t, tx.history)
	assert.False(t, incoming.Edited)
}

func TestEditDiffKeepsEditedFlag(t *testing.T) {
	tx := &fakeTx{}
	stored := &models.Message{ID: "m1", Body: "v2", Edited: true}
	incoming := &models.Message{ID: "m1", Body: "v2", Edited: true}

	require.NoError(t, EditDiff{}.BeforeUpdate(context.Background(), tx, stored, incoming))
	assert.True(t, incoming.Edited)
	assert.Empty(t, tx.history)
}

func TestEditDiffPropagatesWriteError(t *testing.T) {
	tx := &fakeTx{err: errors.New("disk full")}
	stored := &models.Message{ID: "m1", Body: "a"}
	incoming := &models.Message{ID: "m1", Body: "b"}

	err := EditDiff{}.BeforeUpdate(context.Background(), tx, stored, incoming)
	require.Error(t, err)
	assert.False(t, incoming.Edited)
}

func TestNotifyRecipientCreatesOneUnreadRecord(t *testing.T) {
	tx := &fakeTx{}
	msg := &models.Message{ID: "m1", SenderID: "alice", RecipientID: "bob"}

	require.NoError(t, NotifyRecipient{Now: clock}.AfterCreate(context.Background(), tx, msg))

	require.Len(t, tx.notifications, 1)
	n := tx.notifications[0]
	assert.Equal(t, "bob", n.UserID)
	assert.Equal(t, "m1", n.MessageID)
	assert.False(t, n.Read)
	assert.Equal(t, fixed, n.CreatedAt)
}
