package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

type ByChatSessionIDs struct {
	ChatSessionIDs []uuid.UUID
}

func (s ByChatSessionIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id IN ?", s.ChatSessionIDs)
}

// ExcludeRole drops messages of the given role (e.g. system prompts) from the result.
type ExcludeRole struct {
	Role string
}

func (s ExcludeRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role <> ?", s.Role)
}

type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}
