package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adi-253/parley/backend/internal/auth"
	"github.com/adi-253/parley/backend/internal/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcker struct {
	mu    sync.Mutex
	acked map[string][]uint
}

func (a *fakeAcker) MarkRead(_ context.Context, userID string, id uint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked[userID] = append(a.acked[userID], id)
	return nil
}

func (a *fakeAcker) count(userID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.acked[userID])
}

func startServer(t *testing.T, hub *Hub, id auth.Identity) string {
	t.Helper()
	h := NewHandler(hub)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHubPushesNotificationAndAcceptsAck(t *testing.T) {
	acker := &fakeAcker{acked: map[string][]uint{}}
	hub := NewHub(acker)
	go hub.Run()

	url := startServer(t, hub, auth.Authenticated{UserID: "bob", Username: "bob", Role: models.RoleHost})
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount("bob") == 1 }, 2*time.Second, 10*time.Millisecond)

	n := models.Notification{ID: 42, UserID: "bob", MessageID: "m1"}
	msg := models.Message{ID: "m1", ConversationID: "c1", SenderID: "alice", Body: "hi bob"}
	require.NoError(t, hub.PublishNotification(context.Background(), n, msg))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(raw, &frame))
	assert.Equal(t, FrameNotification, frame.Type)
	var payload NotificationPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	assert.EqualValues(t, 42, payload.NotificationID)
	assert.Equal(t, "hi bob", payload.Body)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    FrameAck,
		"payload": map[string]interface{}{"notification_id": 42},
	}))
	require.Eventually(t, func() bool { return acker.count("bob") == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubSkipsOfflineUsers(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	err := hub.PublishNotification(context.Background(), models.Notification{ID: 1, UserID: "nobody"}, models.Message{})
	assert.NoError(t, err)
	assert.Zero(t, hub.ConnectionCount("nobody"))
}

func TestServeWSRequiresAuthentication(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	h := NewHandler(hub)
	w := httptest.NewRecorder()
	h.ServeWS(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
