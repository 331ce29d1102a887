package service

import (
	"context"

	"career-chat-be/internal/pkg/logger"
	"career-chat-be/pkg/events"
)

// publish is fire-and-forget; a bus outage never fails a request.
func publish(ctx context.Context, publisher events.Publisher, log logger.ILogger, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("Events", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
