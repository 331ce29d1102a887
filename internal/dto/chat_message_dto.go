package dto

import (
	"time"

	"career-chat-be/pkg/ai/formatter"

	"github.com/google/uuid"
)

type AudioPayload struct {
	MimeType string `json:"mime_type" validate:"required"`
	Base64   string `json:"base64" validate:"required,base64"`
}

type CreateMessageRequest struct {
	// Clients only speak as the user; assistant turns come from the model.
	Role    string        `json:"role" validate:"omitempty,oneof=user"`
	Content string        `json:"content" validate:"required_without=Audio"`
	Audio   *AudioPayload `json:"audio,omitempty"`
}

type MessageResponse struct {
	Id            uuid.UUID         `json:"id"`
	ChatSessionId uuid.UUID         `json:"chat_session_id"`
	UserId        uuid.UUID         `json:"user_id"`
	Role          string            `json:"role"`
	Content       string            `json:"content"`
	CreatedAt     time.Time         `json:"created_at"`
	Blocks        []formatter.Block `json:"blocks,omitempty"`
}

type CreateMessageResponse struct {
	UserMessage *MessageResponse `json:"user_message"`
	AiMessage   *MessageResponse `json:"ai_message"`
	Title       string           `json:"title"`
}

type DeleteMessagesResponse struct {
	Deleted int64 `json:"deleted"`
}
