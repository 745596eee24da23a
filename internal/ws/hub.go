package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blinko/backend/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is checked by middleware.WebSocketCORSCheck
	},
}

// Client is one websocket connection bound to a session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
}

// Hub fans round events out to the sockets of each session.
type Hub struct {
	clients map[string]*Client // sessionID -> Client
	mu      sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// add registers client, replacing an older connection for the same session.
func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.clients[client.sessionID]; exists && old != client {
		log.Printf("[WS] Session %s reconnecting - closing old connection", client.sessionID)
		if old.conn != nil {
			old.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"),
				time.Now().Add(5*time.Second))
			old.conn.Close()
		}
		close(old.send)
	}
	h.clients[client.sessionID] = client
	log.Printf("[WS] Session %s connected", client.sessionID)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.clients[client.sessionID]; ok && cur == client {
		delete(h.clients, client.sessionID)
		close(client.send)
		log.Printf("[WS] Session %s disconnected", client.sessionID)
	}
}

// Connected reports whether the session has a live socket.
func (h *Hub) Connected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

// SendToSession queues message for the session's socket, dropping it when the
// buffer is full or nobody is connected.
func (h *Hub) SendToSession(sessionID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[sessionID]
	if !exists {
		return
	}
	select {
	case client.send <- data:
	default:
		log.Printf("[WS] SendToSession dropped message for session %s (buffer full)", sessionID)
	}
}

// Sink forwards manager events to the owning session. It matches game.EventSink.
func (h *Hub) Sink(e game.Event) {
	h.SendToSession(e.SessionID, e)
}
