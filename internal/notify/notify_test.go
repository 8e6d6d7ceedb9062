package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/innopoints/innopoints-api/internal/domain"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, r.URL.Query().Get("email"))
	}))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, hub *Hub, url, email string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url+"?email="+email, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Connected(email) == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestHubDeliversToRecipientOnly(t *testing.T) {
	hub, url := startHub(t)
	student := dial(t, hub, url, "s.student@innopolis.university")

	hub.Notify(context.Background(), "someone.else@innopolis.university", domain.NotifyOutOfStock, nil)
	hub.Notify(context.Background(), "s.student@innopolis.university", domain.NotifyClaimInnopoints,
		map[string]any{"project_id": 7})

	require.NoError(t, student.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := student.ReadMessage()
	require.NoError(t, err)

	var got domain.Notification
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, domain.NotifyClaimInnopoints, got.Type)
	assert.Equal(t, "s.student@innopolis.university", got.Recipient)
	assert.Equal(t, float64(7), got.Payload["project_id"])
}

func TestHubForgetsClosedConnections(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url, "o.organizer@innopolis.university")

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connected("o.organizer@innopolis.university") == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://ui.innopoints.ru"})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://ui.innopoints.ru")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(r))

	assert.True(t, originChecker([]string{"*"})(r))
}

type recorder struct {
	mu   sync.Mutex
	sent []domain.NotificationType
}

func (r *recorder) Notify(_ context.Context, _ string, kind domain.NotificationType, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, kind)
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}

	Multi{a, b}.Notify(context.Background(), "x@innopolis.university", domain.NotifyService, nil)

	assert.Equal(t, []domain.NotificationType{domain.NotifyService}, a.sent)
	assert.Equal(t, []domain.NotificationType{domain.NotifyService}, b.sent)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	Log{}.Notify(context.Background(), "x@innopolis.university", domain.NotifyManualTransaction, map[string]any{"change": 10})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "notification", entry.Message)
	assert.Equal(t, "manual_transaction", entry.ContextMap()["type"])
}
