package contract

import (
	"context"

	"career-chat-be/internal/entity"
	"career-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByChatSessionId hard deletes every message of a session and reports how many went.
	DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	CountGroupedBySession(ctx context.Context, chatSessionIds []uuid.UUID) (map[uuid.UUID]int64, error)
}
