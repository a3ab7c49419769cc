package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestConn upgrades a loopback HTTP connection and returns the server
// side of the websocket.
func newTestConn(t *testing.T) *websocket.Conn {
	t.Helper()

	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })

	conn := <-conns
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubDropsSlowClientWithoutStalling(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	// No send buffer and no running writePump: the first delivery cannot
	// be handed off, so the hub has to drop this connection
	slow := &Client{hub: hub, conn: newTestConn(t), send: make(chan []byte), userID: 7, logger: zerolog.Nop()}
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.ConnectionCount(7) == 1 }, time.Second, 10*time.Millisecond)

	hub.Push(&Event{Type: "file_approved", UserID: 7, Title: "Approved", Message: "stalled delivery"})

	// The hub must keep serving registrations after the stalled delivery
	healthy := &Client{hub: hub, conn: newTestConn(t), send: make(chan []byte, 4), userID: 7, logger: zerolog.Nop()}
	select {
	case hub.register <- healthy:
	case <-time.After(2 * time.Second):
		t.Fatal("hub stopped accepting registrations after a slow client")
	}

	require.Eventually(t, func() bool { return hub.ConnectionCount(7) == 1 }, time.Second, 10*time.Millisecond)

	hub.Push(&Event{Type: "file_approved", UserID: 7, Title: "Approved", Message: "live delivery"})
	select {
	case msg := <-healthy.send:
		assert.Contains(t, string(msg), "file_approved")
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered to the healthy client")
	}
}
