package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeUserSignedUp   = "USER_SIGNED_UP"
	TypeUserLogin      = "USER_LOGIN"
	TypeMessageCreated = "MESSAGE_CREATED"
	TypeSessionTitled  = "SESSION_TITLED"
	TypeSessionDeleted = "SESSION_DELETED"
)

func NewUserSignedUp(userId uuid.UUID, email, name string) Event {
	return BaseEvent{
		Type:       TypeUserSignedUp,
		Data:       map[string]interface{}{"user_id": userId.String(), "email": email, "name": name},
		OccurredAt: time.Now(),
	}
}

func NewUserLogin(userId uuid.UUID) Event {
	return BaseEvent{
		Type:       TypeUserLogin,
		Data:       map[string]interface{}{"user_id": userId.String()},
		OccurredAt: time.Now(),
	}
}

func NewMessageCreated(userId, sessionId, messageId uuid.UUID, role string) Event {
	return BaseEvent{
		Type: TypeMessageCreated,
		Data: map[string]interface{}{
			"user_id":    userId.String(),
			"session_id": sessionId.String(),
			"message_id": messageId.String(),
			"role":       role,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionTitled(userId, sessionId uuid.UUID, title string, generated bool) Event {
	return BaseEvent{
		Type: TypeSessionTitled,
		Data: map[string]interface{}{
			"user_id":    userId.String(),
			"session_id": sessionId.String(),
			"title":      title,
			"generated":  generated,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionDeleted(userId, sessionId uuid.UUID, messagesDeleted int64) Event {
	return BaseEvent{
		Type: TypeSessionDeleted,
		Data: map[string]interface{}{
			"user_id":          userId.String(),
			"session_id":       sessionId.String(),
			"messages_deleted": messagesDeleted,
		},
		OccurredAt: time.Now(),
	}
}
