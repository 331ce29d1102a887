package implementation

import (
	"errors"

	"career-chat-be/internal/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

func translateError(err error, conflictMessage string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperror.Conflict(conflictMessage)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict(conflictMessage)
	}
	return err
}
