package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is a status-transition notification broadcast to subscribers
// of a job handle (repurposed from the teacher's agent-event Event,
// pkg/api/websocket.go).
type Event struct {
	Type      string    `json:"type"`
	HandleID  uint64    `json:"handle_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans Events out to every connected WebSocket client, filtered by
// subscription (grounded on pkg/api/websocket.go's WebSocketHub).
type Hub struct {
	clients    map[*client]bool
	broadcast  chan Event
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
}

type client struct {
	conn         *websocket.Conn
	send         chan Event
	subscribe    map[uint64]bool
	subscribeAll bool
	mu           sync.RWMutex
}

// NewHub creates a Hub; call Run in its own goroutine before serving.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Run is the hub's event loop. It never returns; call it with `go`.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			event.Timestamp = time.Now()
			h.mu.RLock()
			for c := range h.clients {
				c.mu.RLock()
				interested := c.subscribeAll || c.subscribe[event.HandleID]
				c.mu.RUnlock()
				if !interested {
					continue
				}
				select {
				case c.send <- event:
				default:
					log.Println("flowengine/server: client send buffer full, dropping event")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast publishes an event to every interested client.
func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		log.Println("flowengine/server: broadcast channel full, dropping event")
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveWS upgrades the connection and registers a client subscribed to
// the handle_id query parameter, or every handle if it's absent.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("flowengine/server: websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		conn:      conn,
		send:      make(chan Event, 64),
		subscribe: make(map[uint64]bool),
	}
	if id, ok := parseHandleID(r); ok {
		c.subscribe[id] = true
	} else {
		c.subscribeAll = true
	}

	s.hub.register <- c
	go c.writePump()
	c.readPump(s.hub)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			return
		}
	}
}

// readPump discards client input but keeps the connection alive for
// disconnect detection, unregistering the client when it closes.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
