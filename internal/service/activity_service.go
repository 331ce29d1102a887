package service

import (
	"context"

	"career-chat-be/internal/pkg/logger"
	"career-chat-be/pkg/events"
)

type IActivityService interface {
	Start(ctx context.Context) error
}

// activityService writes every domain event to the activity log. It is the
// only in-process consumer of the event bus.
type activityService struct {
	subscriber events.Subscriber
	logger     logger.ILogger
}

func NewActivityService(subscriber events.Subscriber, activityLog logger.ILogger) IActivityService {
	return &activityService{
		subscriber: subscriber,
		logger:     activityLog,
	}
}

func (s *activityService) Start(ctx context.Context) error {
	return s.subscriber.Subscribe(ctx, "events.>", "chat-activity-log", s.handle)
}

func (s *activityService) handle(ctx context.Context, event events.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["occurred_at"] = event.Timestamp()
	s.logger.Info("Activity", event.EventType(), details)
	return nil
}
