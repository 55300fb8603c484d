package hub

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Message types pushed to clients.
const (
	MessageTypeBoard  = "board"
	MessageTypeStatus = "status"
)

// Message is the envelope written to every client.
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	upgrader websocket.Upgrader
}

// NewHub creates a new Hub instance. An empty allowedOrigins accepts every origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(allowed) == 0 || origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues a message for every client, dropping it if the queue is full.
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	msg := Message{Type: msgType, Payload: payload, Timestamp: time.Now()}
	select {
	case h.broadcast <- msg:
	default:
		slog.Warn("broadcast buffer full, dropping message", "type", msgType)
	}
}

// ServeWS upgrades the request and attaches the connection until ctx ends or the peer leaves.
func (h *Hub) ServeWS(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "err", err)
			return
		}

		c := NewClient(uuid.New().String(), conn, h)
		h.Register(c)

		// Pumps outlive the request; they stop with the hub's context.
		go c.WritePump(ctx)
		go c.ReadPump()
	}
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	slog.Debug("client connected", "client", c.ID, "total", len(h.clients))
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		slog.Debug("client disconnected", "client", c.ID, "total", len(h.clients))
	}
}

func (h *Hub) broadcastMessage(msg Message) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		if !c.TrySend(msg) {
			// Too slow to keep up; drop it.
			slog.Warn("client buffer full, disconnecting", "client", c.ID)
			go h.Unregister(c)
		}
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
}
