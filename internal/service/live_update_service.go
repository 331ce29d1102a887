package service

import (
	"context"
	"fmt"

	"career-chat-be/internal/pkg/logger"
	"career-chat-be/pkg/events"

	"github.com/google/uuid"
)

// LiveNotifier pushes an encoded event to a user's open connections.
type LiveNotifier interface {
	Send(ctx context.Context, userID uuid.UUID, data []byte)
}

type ILiveUpdateService interface {
	Start(ctx context.Context) error
}

var liveEventTypes = map[string]bool{
	events.TypeMessageCreated: true,
	events.TypeSessionTitled:  true,
	events.TypeSessionDeleted: true,
}

// liveUpdateService forwards chat events to the owner's websocket clients so
// a sidebar can pick up new titles and replies without polling.
type liveUpdateService struct {
	subscriber events.Subscriber
	notifier   LiveNotifier
	logger     logger.ILogger
}

func NewLiveUpdateService(subscriber events.Subscriber, notifier LiveNotifier, log logger.ILogger) ILiveUpdateService {
	return &liveUpdateService{subscriber: subscriber, notifier: notifier, logger: log}
}

func (s *liveUpdateService) Start(ctx context.Context) error {
	return s.subscriber.Subscribe(ctx, "events.>", "chat-live-push", s.handle)
}

func (s *liveUpdateService) handle(ctx context.Context, event events.Event) error {
	if !liveEventTypes[event.EventType()] {
		return nil
	}

	raw, _ := event.Payload()["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		// redelivery would not fix a malformed payload
		s.logger.Warn("LiveUpdate", "Event without a user id", map[string]interface{}{"type": event.EventType()})
		return nil
	}

	data, err := events.Encode(event)
	if err != nil {
		return fmt.Errorf("encode live update: %w", err)
	}
	s.notifier.Send(ctx, userID, data)
	return nil
}
