package service

import (
	"context"

	"career-chat-be/internal/pkg/logger"
	"career-chat-be/internal/pkg/mailer"
	"career-chat-be/pkg/events"
)

type IWelcomeMailService interface {
	Start(ctx context.Context) error
}

type welcomeMailService struct {
	subscriber events.Subscriber
	mailer     mailer.IEmailService
	logger     logger.ILogger
}

func NewWelcomeMailService(subscriber events.Subscriber, emailService mailer.IEmailService, log logger.ILogger) IWelcomeMailService {
	return &welcomeMailService{subscriber: subscriber, mailer: emailService, logger: log}
}

func (s *welcomeMailService) Start(ctx context.Context) error {
	return s.subscriber.Subscribe(ctx, "events."+events.TypeUserSignedUp, "welcome-mail", s.handle)
}

// handle returns the SMTP error so the bus retries the delivery.
func (s *welcomeMailService) handle(ctx context.Context, event events.Event) error {
	email, _ := event.Payload()["email"].(string)
	if email == "" {
		return nil
	}
	name, _ := event.Payload()["name"].(string)

	if err := s.mailer.SendWelcome(email, name); err != nil {
		s.logger.Error("WelcomeMail", "Failed to send welcome mail", map[string]interface{}{
			"user_id": event.Payload()["user_id"],
			"error":   err.Error(),
		})
		return err
	}
	s.logger.Info("WelcomeMail", "Welcome mail sent", map[string]interface{}{"user_id": event.Payload()["user_id"]})
	return nil
}
