package service

import (
	"context"
	"log"

	"yochat/internal/queue"
)

// publishAfterCommit hands an event to the delivery stream. Committed state never depends on it.
func publishAfterCommit(ctx context.Context, publisher queue.Publisher, component string, event queue.Event) {
	if publisher == nil {
		return
	}
	msgID, err := publisher.Publish(ctx, queue.StreamNotifications, event)
	if err != nil {
		log.Printf("[%s] Failed to publish %s event: err=%v", component, event.Type, err)
		return
	}
	log.Printf("[%s] Published %s: msgID=%s", component, event.Type, msgID)
}
