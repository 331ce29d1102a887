package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"career-chat-be/internal/entity"
	"career-chat-be/internal/pkg/apperror"
	"career-chat-be/internal/repository/specification"
	"career-chat-be/internal/repository/unitofwork"
	"career-chat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormRepositories(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err, "run cmd/migrate first")

	sqlDB, _ := gormDB.DB()
	require.NoError(t, sqlDB.Ping())

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(gormDB).NewUnitOfWork(ctx)

	email := "it-" + uuid.NewString() + "@example.com"
	user := &entity.User{Id: uuid.New(), Email: email, PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, uow.UserRepository().Create(ctx, user))

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		err := uow.UserRepository().Create(ctx, &entity.User{Id: uuid.New(), Email: email, PasswordHash: "x"})
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	now := time.Now().UTC().Truncate(time.Microsecond)
	session := &entity.ChatSession{Id: uuid.New(), UserId: user.Id, Title: "New Chat", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, uow.ChatSessionRepository().Create(ctx, session))

	t.Run("messages, search and grouped counts", func(t *testing.T) {
		messages := uow.ChatMessageRepository()
		for i, content := range []string{"I love 100% remote DATA work", "Try a bootcamp"} {
			m := &entity.ChatMessage{
				Id:            uuid.New(),
				ChatSessionId: session.Id,
				UserId:        user.Id,
				Role:          "user",
				Content:       content,
				CreatedAt:     now.Add(time.Duration(i) * time.Second),
			}
			require.NoError(t, messages.Create(ctx, m))
		}

		found, err := uow.ChatSessionRepository().FindAll(ctx,
			specification.UserOwnedBy{UserID: user.Id},
			specification.SessionTitleOrContentContains{Query: "100% remote data"},
		)
		require.NoError(t, err)
		require.Len(t, found, 1)

		none, err := uow.ChatSessionRepository().FindAll(ctx,
			specification.UserOwnedBy{UserID: user.Id},
			specification.SessionTitleOrContentContains{Query: "100_ remote"},
		)
		require.NoError(t, err)
		assert.Empty(t, none, "wildcards in the query are literal")

		counts, err := messages.CountGroupedBySession(ctx, []uuid.UUID{session.Id})
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[session.Id])
	})

	t.Run("seq breaks created_at ties", func(t *testing.T) {
		messages := uow.ChatMessageRepository()
		tie := now.Add(time.Hour)
		var ids []uuid.UUID
		for _, content := range []string{"first", "second", "third"} {
			m := &entity.ChatMessage{Id: uuid.New(), ChatSessionId: session.Id, UserId: user.Id, Role: "user", Content: content, CreatedAt: tie}
			require.NoError(t, messages.Create(ctx, m))
			assert.NotZero(t, m.Seq)
			ids = append(ids, m.Id)
		}

		rows, err := messages.FindAll(ctx,
			specification.ByIDs{IDs: ids},
			specification.OrderBy{Field: "created_at", Desc: true},
			specification.OrderBy{Field: "seq", Desc: true},
		)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{rows[0].Id, rows[1].Id, rows[2].Id})

		for _, id := range ids {
			require.NoError(t, messages.Delete(ctx, id))
		}
	})

	t.Run("session delete is restricted while messages exist", func(t *testing.T) {
		assert.Error(t, uow.ChatSessionRepository().Delete(ctx, session.Id))

		n, err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, session.Id)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		require.NoError(t, uow.ChatSessionRepository().Delete(ctx, session.Id))
	})

	t.Run("rollback discards writes", func(t *testing.T) {
		require.NoError(t, uow.Begin(ctx))
		ghost := &entity.ChatSession{Id: uuid.New(), UserId: user.Id, Title: "ghost", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, uow.ChatSessionRepository().Create(ctx, ghost))
		require.NoError(t, uow.Rollback())

		got, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: ghost.Id})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	gormDB.Exec("DELETE FROM users WHERE id = ?", user.Id)
}
