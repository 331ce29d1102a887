package specification

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern turns free text into a literal substring pattern for (I)LIKE.
func LikePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// ContentContains filters messages whose content contains Query (case-insensitive).
type ContentContains struct {
	Query string
}

func (s ContentContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content ILIKE ?", LikePattern(s.Query))
}

// SessionTitleOrContentContains filters sessions whose title, or any of whose
// messages, contains Query (case-insensitive).
type SessionTitleOrContentContains struct {
	Query string
}

func (s SessionTitleOrContentContains) Apply(db *gorm.DB) *gorm.DB {
	pattern := LikePattern(s.Query)
	return db.Where(
		"chat_sessions.title ILIKE ? OR EXISTS (SELECT 1 FROM chat_messages WHERE chat_messages.chat_session_id = chat_sessions.id AND chat_messages.content ILIKE ?)",
		pattern, pattern,
	)
}
