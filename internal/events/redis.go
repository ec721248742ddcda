package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Channel carries every ladder event through Redis pub/sub. The websocket
// layer subscribes to it and fans events out to connected clients.
const Channel = "ladder_events"

// RedisSink publishes events to the ladder_events channel.
type RedisSink struct {
	rdb *redis.Client
}

func NewRedisSink(rdb *redis.Client) *RedisSink {
	return &RedisSink{rdb: rdb}
}

func (s *RedisSink) Emit(ctx context.Context, ev Event) {
	if s.rdb == nil {
		return
	}

	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[EVENTS] Marshal %s for publish failed: %v", ev.Type, err)
		return
	}

	if n, err := s.rdb.Publish(ctx, Channel, b).Result(); err != nil {
		log.Printf("[EVENTS] Publish %s failed: %v", ev.Type, err)
	} else if n == 0 {
		log.Printf("[EVENTS] Published %s with no subscribers", ev.Type)
	}
}
