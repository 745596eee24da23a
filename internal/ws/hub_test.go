package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/blinko/backend/internal/config"
	"github.com/blinko/backend/internal/game"
)

func newTestManager(t *testing.T) *game.Manager {
	t.Helper()
	table, err := game.Configure(game.DefaultPhysicsConfig())
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	cfg := &config.Config{StartingBalance: 1000, DefaultWager: 10, MinWager: 1, TickRate: 60, IdleTimeoutSecs: 60}
	return game.NewManager(table, game.NewMemorySessionStore(), nil, nil, cfg)
}

func TestSinkRoutesBySession(t *testing.T) {
	h := NewHub()
	a := &Client{hub: h, sessionID: "a", send: make(chan []byte, 4)}
	b := &Client{hub: h, sessionID: "b", send: make(chan []byte, 4)}
	h.add(a)
	h.add(b)

	h.Sink(game.Event{Type: game.EventRoundTick, SessionID: "a"})

	if len(a.send) != 1 || len(b.send) != 0 {
		t.Fatalf("queued a=%d b=%d, want 1/0", len(a.send), len(b.send))
	}
	var e game.Event
	if err := json.Unmarshal(<-a.send, &e); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if e.Type != game.EventRoundTick || e.SessionID != "a" {
		t.Errorf("event = %+v", e)
	}

	h.remove(a)
	if h.Connected("a") {
		t.Error("removed session still connected")
	}
	// Unknown sessions are ignored.
	h.Sink(game.Event{Type: game.EventRoundTick, SessionID: "a"})
}

func TestDispatchEventIgnoresBadPayloads(t *testing.T) {
	h := NewHub()
	c := &Client{hub: h, sessionID: "s1", send: make(chan []byte, 4)}
	h.add(c)

	dispatchEvent(h, "not json")
	dispatchEvent(h, `{"type":"round_settled"}`)
	if len(c.send) != 0 {
		t.Fatalf("bad payloads delivered %d messages", len(c.send))
	}

	dispatchEvent(h, `{"type":"round_settled","session_id":"s1"}`)
	if len(c.send) != 1 {
		t.Errorf("queued = %d, want 1", len(c.send))
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg map[string]interface{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return msg
}

func TestSubscriberStopsWithContext(t *testing.T) {
	h := NewHub()
	c := &Client{hub: h, sessionID: "s1", send: make(chan []byte, 4)}
	h.add(c)

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan *redis.Message, 1)
	closed := make(chan struct{})
	done := make(chan struct{})
	go func() {
		runSubscriber(ctx, ch, func() error { close(closed); return nil }, h)
		close(done)
	}()

	payload, _ := json.Marshal(game.Event{Type: game.EventRoundSettled, SessionID: "s1"})
	ch <- &redis.Message{Channel: game.RoundEventsChannel, Payload: string(payload)}
	select {
	case <-c.send:
	case <-time.After(time.Second):
		t.Fatal("event not forwarded")
	}

	// ch stays open, as it does for a live subscription.
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber still running after cancel")
	}
	select {
	case <-closed:
	default:
		t.Error("subscription not closed on shutdown")
	}
}

func TestWebSocketCommands(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestManager(t)
	s, err := m.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	hub := NewHub()
	m.SetEventSink(hub.Sink)

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		c.Set("session_id", c.Query("session"))
	}, HandleWebSocket(hub, m))
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=" + s.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	first := readEvent(t, conn)
	if first["type"] != EventRoundState {
		t.Fatalf("first message = %v", first)
	}

	if err := conn.WriteJSON(Message{Type: MsgDouble}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	msg := readEvent(t, conn)
	snap, _ := msg["snapshot"].(map[string]interface{})
	if msg["type"] != EventRoundState || snap["wager"] != float64(20) {
		t.Errorf("double reply = %v", msg)
	}

	if err := conn.WriteJSON(Message{Type: "bogus"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if msg := readEvent(t, conn); msg["type"] != "error" {
		t.Errorf("unknown command reply = %v", msg)
	}

	if err := conn.WriteJSON(Message{Type: MsgDrop}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if msg := readEvent(t, conn); msg["type"] != game.EventRoundStarted {
		t.Errorf("drop reply = %v", msg)
	}

	m.Tick(context.Background())
	if msg := readEvent(t, conn); msg["type"] != game.EventRoundTick {
		t.Errorf("tick message = %v", msg)
	}
}
