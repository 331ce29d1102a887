package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_messages_session_created,priority:1"`
	UserId        uuid.UUID `gorm:"type:uuid;not null;index"`
	Role          string    `gorm:"type:varchar(20);not null"`
	Content       string    `gorm:"type:text;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index:idx_chat_messages_session_created,priority:2"`
	// insertion order; breaks created_at ties
	Seq int64 `gorm:"autoIncrement;not null;uniqueIndex"`

	ChatSession ChatSession `gorm:"foreignKey:ChatSessionId;constraint:OnDelete:RESTRICT"`
	User        User        `gorm:"foreignKey:UserId;constraint:OnDelete:RESTRICT"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// ChatMessageCount is the scan target for grouped message counts.
type ChatMessageCount struct {
	ChatSessionId uuid.UUID
	Total         int64
}
