package feed

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-factory/internal/domain"
)

func newTestServer(t *testing.T, hub *Hub) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_BroadcastToSubscribers(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()
	srv, wsURL := newTestServer(t, hub)
	defer srv.Close()

	first := dial(t, wsURL)
	defer first.Close()
	second := dial(t, wsURL)
	defer second.Close()
	waitForClients(t, hub, 2)

	sent := &domain.IssuanceEvent{
		EventType:    domain.EventTokenCreated,
		TokenAddress: "TokenAddr1",
		Actor:        "creator-wallet",
		Amount:       1_000_000,
		FeePaid:      70_000_000,
		StateVersion: 1,
		Timestamp:    1_700_000_000_000,
	}
	hub.Publish(sent)

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got domain.IssuanceEvent
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, *sent, got)
	}
}

func TestHub_EventsArriveInOrder(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()
	srv, wsURL := newTestServer(t, hub)
	defer srv.Close()

	conn := dial(t, wsURL)
	defer conn.Close()
	waitForClients(t, hub, 1)

	for v := uint64(1); v <= 5; v++ {
		hub.Publish(&domain.IssuanceEvent{
			EventType:    domain.EventTokensMinted,
			TokenAddress: "TokenAddr1",
			StateVersion: v,
		})
	}

	for v := uint64(1); v <= 5; v++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got domain.IssuanceEvent
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, v, got.StateVersion)
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	cfg := DefaultHubConfig()
	cfg.SendBuffer = 1
	hub := NewHub(&cfg, nil)
	defer hub.Close()
	srv, wsURL := newTestServer(t, hub)
	defer srv.Close()

	conn := dial(t, wsURL)
	defer conn.Close()
	waitForClients(t, hub, 1)

	// Flood faster than the unread client can drain a one-slot queue.
	for v := uint64(1); v <= 100; v++ {
		hub.Publish(&domain.IssuanceEvent{StateVersion: v})
	}

	waitForClients(t, hub, 0)
}

func TestHub_DisconnectRemovesClient(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()
	srv, wsURL := newTestServer(t, hub)
	defer srv.Close()

	conn := dial(t, wsURL)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// Publishing with no clients is a no-op.
	hub.Publish(&domain.IssuanceEvent{StateVersion: 1})
}

func TestHub_CloseRejectsNewClients(t *testing.T) {
	hub := NewHub(nil, nil)
	srv, wsURL := newTestServer(t, hub)
	defer srv.Close()

	conn := dial(t, wsURL)
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	// A dial after close either fails the handshake or is closed
	// immediately; it must never be registered.
	late, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		late.Close()
	}
	assert.Equal(t, 0, hub.ClientCount())
}
