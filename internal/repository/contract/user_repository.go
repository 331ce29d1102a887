package contract

import (
	"context"

	"career-chat-be/internal/entity"
	"career-chat-be/internal/repository/specification"
)

type UserRepository interface {
	// Create fails with an apperror Conflict when the email is already registered.
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
