package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatSessionSummary is a session row enriched for listing screens.
type ChatSessionSummary struct {
	Session      *ChatSession
	MessageCount int64
	LastMessage  *ChatMessage
}
