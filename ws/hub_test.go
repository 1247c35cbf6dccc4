package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, clientID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?client=" + clientID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := NewHub([]string{"*"})
	go h.Run()
	t.Cleanup(h.Stop)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("client")
		_ = h.Serve(w, r, id, Event{Type: "hello", Data: id})
	}))
	t.Cleanup(srv.Close)
	return h, srv
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestHubDeliversOnlyToOwnClient(t *testing.T) {
	h, srv := newTestHub(t)
	a1 := dial(t, srv, "a")
	a2 := dial(t, srv, "a")
	b := dial(t, srv, "b")

	for _, c := range []*websocket.Conn{a1, a2} {
		ev := readEvent(t, c)
		assert.Equal(t, "hello", ev.Type)
		assert.Equal(t, "a", ev.Data)
	}
	assert.Equal(t, "b", readEvent(t, b).Data)
	assert.Eventually(t, func() bool { return h.Connections("a") == 2 }, time.Second, 5*time.Millisecond)

	h.Publish("a", "cart", map[string]int{"count": 3})
	for _, c := range []*websocket.Conn{a1, a2} {
		ev := readEvent(t, c)
		assert.Equal(t, "cart", ev.Type)
		assert.Equal(t, map[string]any{"count": float64(3)}, ev.Data)
	}

	require.NoError(t, b.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, _, err := b.ReadMessage()
	assert.Error(t, err, "b receives nothing")
}

func TestHubForgetsClosedSockets(t *testing.T) {
	h, srv := newTestHub(t)
	c := dial(t, srv, "a")
	readEvent(t, c)
	require.Eventually(t, func() bool { return h.Connections("a") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return h.Connections("a") == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	h := NewHub([]string{"https://alpunto.example"})
	go h.Run()
	t.Cleanup(h.Stop)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, "a")
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
