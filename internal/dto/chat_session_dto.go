package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title" validate:"max=255"`
}

// Title is a pointer so an omitted field can be told apart from "".
type UpdateSessionRequest struct {
	Title *string `json:"title" validate:"omitempty,max=255"`
}

type SessionResponse struct {
	Id        uuid.UUID `json:"id"`
	UserId    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SessionListItemResponse struct {
	SessionResponse
	MessageCount int64 `json:"message_count"`
}

type RecentSessionResponse struct {
	SessionResponse
	MessageCount int64            `json:"message_count"`
	LastMessage  *MessageResponse `json:"last_message"`
}

type SessionDetailResponse struct {
	SessionResponse
	Messages []*MessageResponse `json:"messages"`
}

type SessionSearchResult struct {
	SessionId uuid.UUID `json:"session_id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	Snippet   *string   `json:"snippet"`
}

type DeleteSessionResponse struct {
	Id              uuid.UUID `json:"id"`
	MessagesDeleted int64     `json:"messages_deleted"`
}
