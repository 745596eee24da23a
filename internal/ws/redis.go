package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/blinko/backend/internal/game"
)

// StartEventSubscriber forwards events published on the round events channel
// to the hub. It returns immediately; the subscription stops with ctx.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; round event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, game.RoundEventsChannel)
	go runSubscriber(ctx, pubsub.Channel(), pubsub.Close, hub)
}

// runSubscriber dispatches messages until ctx is done or ch closes. The
// channel only closes when the subscription does, so ctx must close it.
func runSubscriber(ctx context.Context, ch <-chan *redis.Message, closeFn func() error, hub *Hub) {
	defer closeFn()
	log.Printf("[WS] %s subscriber started", game.RoundEventsChannel)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[WS] %s subscriber stopping", game.RoundEventsChannel)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			dispatchEvent(hub, msg.Payload)
		}
	}
}

func dispatchEvent(hub *Hub, payload string) {
	var e game.Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		log.Printf("[WS] invalid event payload: %v", err)
		return
	}
	if e.SessionID == "" {
		log.Printf("[WS] event %s without session id", e.Type)
		return
	}
	hub.Sink(e)
}
