package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is what a tab receives: the kind of state that changed and its new value.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans state changes out to every open socket of a client.
type Hub struct {
	clients    map[string]map[*websocket.Conn]bool // clientID -> sockets
	broadcast  chan delivery
	register   chan Subscription
	unregister chan Subscription
	mu         sync.Mutex
	upgrader   websocket.Upgrader
	done       chan struct{}
}

type Subscription struct {
	Conn     *websocket.Conn
	ClientID string
}

type delivery struct {
	ClientID string
	Conn     *websocket.Conn // only this socket when set
	Event    Event
}

const writeWait = 5 * time.Second

var errHubStopped = errors.New("ws hub stopped")

// NewHub accepts upgrades from the given origins; "*" accepts any.
func NewHub(origins []string) *Hub {
	h := &Hub{
		clients:    make(map[string]map[*websocket.Conn]bool),
		broadcast:  make(chan delivery, 256),
		register:   make(chan Subscription),
		unregister: make(chan Subscription),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
		},
	}
	return h
}

// Run serves register/unregister/broadcast until Stop.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			if h.clients[sub.ClientID] == nil {
				h.clients[sub.ClientID] = make(map[*websocket.Conn]bool)
			}
			h.clients[sub.ClientID][sub.Conn] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(sub.ClientID, sub.Conn)
			h.mu.Unlock()

		case d := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients[d.ClientID] {
				if d.Conn != nil && d.Conn != conn {
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(d.Event); err != nil {
					slog.Debug("ws write failed", "client", d.ClientID, "error", err)
					h.removeLocked(d.ClientID, conn)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for id, conns := range h.clients {
				for conn := range conns {
					h.removeLocked(id, conn)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() { close(h.done) }

func (h *Hub) removeLocked(clientID string, conn *websocket.Conn) {
	conns := h.clients[clientID]
	if _, ok := conns[conn]; !ok {
		return
	}
	delete(conns, conn)
	conn.Close()
	if len(conns) == 0 {
		delete(h.clients, clientID)
	}
}

// Publish queues an event for a client's sockets. It never blocks the caller;
// when the queue is full the event is dropped.
func (h *Hub) Publish(clientID, kind string, payload any) {
	h.enqueue(delivery{ClientID: clientID, Event: Event{Type: kind, Data: payload}})
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.broadcast <- d:
	default:
		slog.Warn("ws queue full, dropping event", "client", d.ClientID, "type", d.Event.Type)
	}
}

// Connections reports how many sockets a client has open.
func (h *Hub) Connections(clientID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[clientID])
}

// Serve upgrades the request and subscribes it to clientID. initial events
// are queued right after registration so the tab starts from current state.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, clientID string, initial ...Event) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	sub := Subscription{Conn: conn, ClientID: clientID}
	select {
	case h.register <- sub:
	case <-h.done:
		conn.Close()
		return errHubStopped
	}
	for _, ev := range initial {
		h.enqueue(delivery{ClientID: clientID, Conn: conn, Event: ev})
	}
	go h.listen(sub)
	return nil
}

// listen only drains the socket; tabs send nothing but control frames.
func (h *Hub) listen(sub Subscription) {
	defer func() {
		select {
		case h.unregister <- sub:
		case <-h.done:
		}
	}()
	for {
		if _, _, err := sub.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("ws read failed", "client", sub.ClientID, "error", err)
			}
			return
		}
	}
}
