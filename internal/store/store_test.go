package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/observers"
	"github.com/adi-253/parley/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]store.Option{
		store.WithClock(clock.Now),
		store.WithUpdateHooks(observers.EditDiff{Now: clock.Now}),
		store.WithCreateHooks(observers.NotifyRecipient{Now: clock.Now}),
	}, opts...)

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustUser(t *testing.T, s *store.Store, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Role: models.RoleHost, PasswordHash: "x", IsActive: true}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func mustConversation(t *testing.T, s *store.Store, title string, users ...*models.User) *models.Conversation {
	t.Helper()
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	c := &models.Conversation{Title: title}
	require.NoError(t, s.CreateConversation(context.Background(), c, ids))
	return c
}

func mustMessage(t *testing.T, s *store.Store, c *models.Conversation, from, to *models.User, body string) *models.Message {
	t.Helper()
	m := &models.Message{ConversationID: c.ID, SenderID: from.ID, RecipientID: to.ID, Body: body}
	require.NoError(t, s.CreateMessage(context.Background(), m))
	return m
}

func setBody(body string) func(*models.Message) error {
	return func(m *models.Message) error {
		m.Body = body
		return nil
	}
}

func TestCreateMessageNotifiesRecipientOnce(t *testing.T) {
	var commits []store.Commit
	s := newTestStore(t, store.WithCommitHooks(func(_ context.Context, c store.Commit) {
		commits = append(commits, c)
	}))
	ctx := context.Background()
	alice, bob := mustUser(t, s, "alice"), mustUser(t, s, "bob")
	conv := mustConversation(t, s, "chat", alice, bob)

	m := mustMessage(t, s, conv, alice, bob, "hi")

	notes, err := s.ListNotifications(ctx, bob.ID, false)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, m.ID, notes[0].MessageID)
	assert.False(t, notes[0].Read)

	aliceNotes, err := s.ListNotifications(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Empty(t, aliceNotes)

	require.Len(t, commits, 1)
	assert.True(t, commits[0].Created)
	assert.Len(t, commits[0].Notifications, 1)
}

func TestUpdateMessageRecordsHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice, bob := mustUser(t, s, "alice"), mustUser(t, s, "bob")
	conv := mustConversation(t, s, "chat", alice, bob)
	m := mustMessage(t, s, conv, alice, bob, "hello")

	updated, err := s.UpdateMessage(ctx, m.ID, setBody("hello!"))
	require.NoError(t, err)
	assert.True(t, updated.Edited)
	assert.Equal(t, "hello!", updated.Body)
	assert.Equal(t, 2, updated.Version)

	history, err := s.History(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].OldBody)
	require.NotNil(t, history[0].EditedByID)
	assert.Equal(t, alice.ID, *history[0].EditedByID)

	// no snapshot and no extra notification when only the read flag changes
	_, err = s.UpdateMessage(ctx, m.ID, func(m *models.Message) error {
		m.Read = true
		return nil
	})
	require.NoError(t, err)

	history, err = s.History(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	notes, err := s.ListNotifications(ctx, bob.ID, false)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	stored, err := s.GetMessage(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, stored.Edited)
	assert.True(t, stored.Read)
}

func TestUpdateMessageMissingRow(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpdateMessage(context.Background(), "missing", setBody("x"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentEditsKeepEverySnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice, bob := mustUser(t, s, "alice"), mustUser(t, s, "bob")
	conv := mustConversation(t, s, "chat", alice, bob)
	m := mustMessage(t, s, conv, alice, bob, "v0")

	const editors = 8
	var wg sync.WaitGroup
	for i := 1; i <= editors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.UpdateMessage(ctx, m.ID, setBody(fmt.Sprintf("v%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := s.History(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, history, editors)

	stored, err := s.GetMessage(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, stored.Edited)
	assert.Equal(t, editors+1, stored.Version)
}

func TestUnreadForProjection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b, c := mustUser(t, s, "a"), mustUser(t, s, "b"), mustUser(t, s, "c")
	conv := mustConversation(t, s, "group", a, b, c)

	m1 := mustMessage(t, s, conv, a, b, "first")
	m2 := mustMessage(t, s, conv, c, b, "second")
	m3 := mustMessage(t, s, conv, a, c, "third")

	_, err := s.UpdateMessage(ctx, m1.ID, func(m *models.Message) error {
		m.Read = true
		return nil
	})
	require.NoError(t, err)

	unread, err := s.UnreadFor(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, m2.ID, unread[0].ID)
	assert.Equal(t, c.ID, unread[0].SenderID)
	assert.Equal(t, "second", unread[0].Body)

	forC, err := s.UnreadFor(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, forC, 1)
	assert.Equal(t, m3.ID, forC[0].ID)
}

func TestUnreadForOrdersNewestFirst(t *testing.T) {
	s := newTestStore(t)
	a, b := mustUser(t, s, "a"), mustUser(t, s, "b")
	conv := mustConversation(t, s, "pair", a, b)
	old := mustMessage(t, s, conv, a, b, "old")
	recent := mustMessage(t, s, conv, a, b, "new")

	unread, err := s.UnreadFor(context.Background(), b.ID)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, recent.ID, unread[0].ID)
	assert.Equal(t, old.ID, unread[1].ID)
}

func TestThreadIsRecursive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := mustUser(t, s, "a"), mustUser(t, s, "b")
	conv := mustConversation(t, s, "pair", a, b)

	root := mustMessage(t, s, conv, a, b, "root")
	reply := &models.Message{ConversationID: conv.ID, SenderID: b.ID, RecipientID: a.ID, Body: "reply", ParentID: &root.ID}
	require.NoError(t, s.CreateMessage(ctx, reply))
	nested := &models.Message{ConversationID: conv.ID, SenderID: a.ID, RecipientID: b.ID, Body: "nested", ParentID: &reply.ID}
	require.NoError(t, s.CreateMessage(ctx, nested))
	mustMessage(t, s, conv, a, b, "unrelated")

	thread, err := s.Thread(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, reply.ID, thread[0].ID)
	assert.Equal(t, nested.ID, thread[1].ID)
}

func TestListMessagesFiltersAndPages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := mustUser(t, s, "a"), mustUser(t, s, "b")
	conv := mustConversation(t, s, "pair", a, b)
	other := mustConversation(t, s, "other", a, b)

	var sent []*models.Message
	for i := 0; i < 5; i++ {
		sent = append(sent, mustMessage(t, s, conv, a, b, fmt.Sprintf("m%d", i)))
	}
	mustMessage(t, s, other, a, b, "elsewhere")

	page, total, err := s.ListMessages(ctx, models.MessageFilter{ConversationID: conv.ID}, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, sent[4].ID, page[0].ID)

	_, total, err = s.ListMessages(ctx, models.MessageFilter{
		ConversationID: conv.ID,
		After:          sent[1].CreatedAt,
		Before:         sent[3].CreatedAt,
	}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestListMessagesNormalizesBoundsToUTC(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := mustUser(t, s, "a"), mustUser(t, s, "b")
	conv := mustConversation(t, s, "pair", a, b)

	var sent []*models.Message
	for i := 0; i < 3; i++ {
		sent = append(sent, mustMessage(t, s, conv, a, b, fmt.Sprintf("m%d", i)))
	}

	east := time.FixedZone("UTC+2", 2*60*60)
	west := time.FixedZone("UTC-5", -5*60*60)

	// an hour before the first message, written with a +02:00 offset
	_, total, err := s.ListMessages(ctx, models.MessageFilter{
		ConversationID: conv.ID,
		After:          sent[0].CreatedAt.Add(-time.Hour).In(east),
	}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	_, total, err = s.ListMessages(ctx, models.MessageFilter{
		ConversationID: conv.ID,
		After:          sent[1].CreatedAt.In(east),
		Before:         sent[1].CreatedAt.In(west),
	}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestDeleteUserCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b, c := mustUser(t, s, "a"), mustUser(t, s, "b"), mustUser(t, s, "c")
	conv := mustConversation(t, s, "group", a, b, c)

	fromA := mustMessage(t, s, conv, a, b, "from a")
	keep := mustMessage(t, s, conv, b, c, "b to c")
	_, err := s.UpdateMessage(ctx, keep.ID, setBody("b to c, edited"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, a.ID))

	_, err = s.GetUser(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetMessage(ctx, fromA.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	notes, err := s.ListNotifications(ctx, b.ID, false)
	require.NoError(t, err)
	assert.Empty(t, notes)

	history, err := s.History(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	member, err := s.IsParticipant(ctx, conv.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestDeleteEditorRemovesAuthoredHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := mustUser(t, s, "a"), mustUser(t, s, "b")
	conv := mustConversation(t, s, "pair", a, b)
	m := mustMessage(t, s, conv, a, b, "x")
	_, err := s.UpdateMessage(ctx, m.ID, setBody("y"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, a.ID))

	history, err := s.History(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestConversationSearchAndMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b, c := mustUser(t, s, "a"), mustUser(t, s, "b"), mustUser(t, s, "c")
	mustConversation(t, s, "Weekend plans", a, b)
	mustConversation(t, s, "Work sync", a, c)

	all, err := s.ListConversations(ctx, a.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := s.ListConversations(ctx, a.ID, "Weekend")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Len(t, found[0].Participants, 2)

	forB, err := s.ListConversations(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Len(t, forB, 1)
}

func TestCreateUserDuplicate(t *testing.T) {
	s := newTestStore(t)
	mustUser(t, s, "dup")
	err := s.CreateUser(context.Background(), &models.User{Username: "dup", Email: "other@example.com", Role: models.RoleGuest, PasswordHash: "x"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}
