package ws

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/cueladder/backend/internal/events"
)

// StartEventSubscriber subscribes to the ladder_events channel and fans
// every event out to connected clients. Runs until ctx is cancelled.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, events.Channel)

	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", events.Channel)

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				log.Printf("[WS] %s subscriber stopped", events.Channel)
				return
			case msg, ok := <-ch:
				if !ok {
					log.Printf("[WS] %s subscription closed", events.Channel)
					return
				}
				// Events are already JSON on the wire; relay them as-is.
				hub.Broadcast([]byte(msg.Payload))
			}
		}
	}()
}
