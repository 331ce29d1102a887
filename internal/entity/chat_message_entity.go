package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	UserId        uuid.UUID
	Role          string
	Content       string
	CreatedAt     time.Time
	// Seq is assigned by the store on insert and breaks CreatedAt ties.
	Seq int64
}
