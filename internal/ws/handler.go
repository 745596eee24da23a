package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/blinko/backend/internal/game"
)

// Message is an inbound command from the player's client.
type Message struct {
	Type       string  `json:"type"`
	ClientSeed string  `json:"client_seed,omitempty"`
	Wager      float64 `json:"wager,omitempty"`
}

// Inbound message types.
const (
	MsgDrop        = "drop"
	MsgDouble      = "double_wager"
	MsgHalve       = "halve_wager"
	MsgSetWager    = "set_wager"
	MsgAcknowledge = "acknowledge"
	MsgGetState    = "get_state"
)

// EventRoundState answers a command with the session's current snapshot.
const EventRoundState = "round_state"

// HandleWebSocket upgrades the request for the session set by the auth
// middleware and streams its round events.
func HandleWebSocket(hub *Hub, m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetString("session_id")
		if sessionID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session required"})
			return
		}
		snap, err := m.State(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			hub:       hub,
			conn:      conn,
			sessionID: sessionID,
			send:      make(chan []byte, 256),
		}
		hub.add(client)

		hub.SendToSession(sessionID, game.Event{Type: EventRoundState, SessionID: sessionID, Snapshot: &snap})

		go client.writePump()
		go client.readPump(m)
	}
}

func (c *Client) readPump(m *game.Manager) {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close for session %s: %v", c.sessionID, err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}
		c.handleMessage(m, msg)
	}
}

func (c *Client) handleMessage(m *game.Manager, msg Message) {
	ctx := context.Background()

	var (
		snap game.RoundSnapshot
		err  error
	)
	switch msg.Type {
	case MsgDrop:
		// round_started is emitted by the manager itself.
		_, err = m.Start(ctx, c.sessionID, msg.ClientSeed)
		if err == nil {
			return
		}
	case MsgDouble:
		snap, err = m.DoubleWager(ctx, c.sessionID)
	case MsgHalve:
		snap, err = m.HalveWager(ctx, c.sessionID)
	case MsgSetWager:
		snap, err = m.SetWager(ctx, c.sessionID, msg.Wager)
	case MsgAcknowledge:
		snap, err = m.Acknowledge(ctx, c.sessionID)
	case MsgGetState:
		snap, err = m.State(ctx, c.sessionID)
	default:
		c.sendError("Unknown message type")
		return
	}

	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.hub.SendToSession(c.sessionID, game.Event{Type: EventRoundState, SessionID: c.sessionID, Snapshot: &snap})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for session %s: %v", c.sessionID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) sendError(message string) {
	c.hub.SendToSession(c.sessionID, map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
