package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Desk dashboards are served from another origin than the API.
		return true
	},
}

type client struct {
	conn *websocket.Conn
}

// envelope is the wire format pushed to desk dashboards.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans desk events out to every connected dashboard. The client map is
// owned by the Run goroutine; all mutation goes through the channels.
type Hub struct {
	logger     *logrus.Logger
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
}

// NewHub creates a hub. Call Run in a goroutine before serving connections.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Run owns the client set and delivers broadcasts until the context is
// cancelled. Clients that cannot be written to are dropped.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Live-update hub started")

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.conn.Close()
				delete(h.clients, c)
			}
			h.logger.Info("Live-update hub stopped")
			return

		case c := <-h.register:
			h.clients[c] = true
			h.logger.Debugf("Desk client connected (%d active)", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.conn.Close()
				h.logger.Debugf("Desk client disconnected (%d active)", len(h.clients))
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Warnf("Dropping desk client after write error: %v", err)
					delete(h.clients, c)
					c.conn.Close()
				}
			}
		}
	}
}

// Broadcast queues a {type, data} event for every connected dashboard. It
// never blocks; when the queue is full the event is dropped, since dashboards
// re-fetch state on load anyway.
func (h *Hub) Broadcast(event string, data any) {
	message, err := json.Marshal(envelope{Type: event, Data: data})
	if err != nil {
		h.logger.Errorf("Failed to marshal %s event: %v", event, err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warnf("Live-update queue full, dropping %s event", event)
	}
}

// HandleWS upgrades the request and keeps the connection registered until
// the peer goes away. Reads are drained only to detect the disconnect.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn}
	h.register <- c

	go func() {
		defer func() {
			h.unregister <- c
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
