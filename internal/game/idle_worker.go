package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blinko/backend/internal/config"
)

// StartIdleWorker evicts sessions that stopped sending commands. With Redis
// the deadlines live in the session_idle sorted set; without it the manager's
// own last-seen times are swept.
func StartIdleWorker(ctx context.Context, m *Manager, rdb *redis.Client, cfg *config.Config) {
	if m == nil || cfg == nil || cfg.Runtime().IdleTimeoutSecs <= 0 {
		log.Println("[IDLE] Manager or idle timeout missing; idle worker not started")
		return
	}

	poll := time.Duration(cfg.IdlePollSecs) * time.Second
	if poll <= 0 {
		poll = 15 * time.Second
	}

	log.Println("[IDLE] Idle worker started")
	go func() {
		ticker := time.NewTicker(poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle worker stopping")
				return
			case <-ticker.C:
				if rdb != nil {
					sweepRedisIdle(ctx, m, rdb)
				} else {
					sweepMemoryIdle(ctx, m, time.Duration(cfg.Runtime().IdleTimeoutSecs)*time.Second)
				}
			}
		}
	}()
}

func sweepRedisIdle(ctx context.Context, m *Manager, rdb *redis.Client) {
	now := time.Now().Unix()
	members, err := rdb.ZRangeByScore(ctx, SessionIdleKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now)}).Result()
	if err != nil {
		log.Printf("[IDLE] Failed to fetch idle sessions: %v", err)
		return
	}
	for _, id := range members {
		// Only the worker that removes the member evicts it.
		if removed, _ := rdb.ZRem(ctx, SessionIdleKey, id).Result(); removed > 0 {
			log.Printf("[IDLE] Session %s idle past deadline", id)
			m.Evict(ctx, id)
		}
	}
}

// A zero timeout, set at runtime, turns eviction off.
func sweepMemoryIdle(ctx context.Context, m *Manager, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	for _, id := range m.IdleSessions(time.Now().Add(-timeout)) {
		log.Printf("[IDLE] Session %s idle for over %s", id, timeout)
		m.Evict(ctx, id)
	}
}
