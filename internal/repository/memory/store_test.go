package memory

import (
	"context"
	"testing"
	"time"

	"career-chat-be/internal/entity"
	"career-chat-be/internal/pkg/apperror"
	"career-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx      context.Context
	store    *Store
	uow      *UnitOfWork
	userId   uuid.UUID
	session  *entity.ChatSession
	baseTime time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewStore()
	f := &fixture{
		ctx:      context.Background(),
		store:    store,
		uow:      &UnitOfWork{store: store},
		baseTime: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}

	user := &entity.User{Email: "  Ada@Example.com ", PasswordHash: "x"}
	require.NoError(t, f.uow.UserRepository().Create(f.ctx, user))
	f.userId = user.Id

	f.session = &entity.ChatSession{UserId: user.Id, Title: "New Chat", CreatedAt: f.baseTime}
	require.NoError(t, f.uow.ChatSessionRepository().Create(f.ctx, f.session))
	return f
}

func (f *fixture) addMessage(t *testing.T, role, content string, at time.Time) *entity.ChatMessage {
	t.Helper()
	m := &entity.ChatMessage{ChatSessionId: f.session.Id, UserId: f.userId, Role: role, Content: content, CreatedAt: at}
	require.NoError(t, f.uow.ChatMessageRepository().Create(f.ctx, m))
	return m
}

func TestUserRepository_EmailIsNormalisedAndUnique(t *testing.T) {
	f := newFixture(t)
	users := f.uow.UserRepository()

	found, err := users.FindOne(f.ctx, specification.ByEmail{Email: "ADA@example.com"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "ada@example.com", found.Email)

	err = users.Create(f.ctx, &entity.User{Email: "ada@example.com"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	missing, err := users.FindOne(f.ctx, specification.ByEmail{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestChatMessageRepository_OrderingIsStable(t *testing.T) {
	f := newFixture(t)
	same := f.baseTime.Add(time.Minute)
	first := f.addMessage(t, "user", "first", same)
	second := f.addMessage(t, "assistant", "second", same)
	third := f.addMessage(t, "user", "third", same.Add(time.Second))

	rows, err := f.uow.ChatMessageRepository().FindAll(f.ctx,
		specification.ByChatSessionID{ChatSessionID: f.session.Id},
		specification.OrderBy{Field: "created_at"},
	)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []uuid.UUID{first.Id, second.Id, third.Id}, []uuid.UUID{rows[0].Id, rows[1].Id, rows[2].Id})

	latest, err := f.uow.ChatMessageRepository().FindAll(f.ctx,
		specification.ByChatSessionID{ChatSessionID: f.session.Id},
		specification.ExcludeRole{Role: "assistant"},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: 1},
	)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, third.Id, latest[0].Id)
}

func TestChatMessageRepository_RequiresSession(t *testing.T) {
	f := newFixture(t)
	err := f.uow.ChatMessageRepository().Create(f.ctx, &entity.ChatMessage{ChatSessionId: uuid.New(), Role: "user", Content: "x"})
	assert.Error(t, err)
}

func TestChatMessageRepository_CountGroupedBySession(t *testing.T) {
	f := newFixture(t)
	f.addMessage(t, "user", "a", f.baseTime)
	f.addMessage(t, "assistant", "b", f.baseTime)

	empty := &entity.ChatSession{UserId: f.userId, Title: "Other"}
	require.NoError(t, f.uow.ChatSessionRepository().Create(f.ctx, empty))

	counts, err := f.uow.ChatMessageRepository().CountGroupedBySession(f.ctx, []uuid.UUID{f.session.Id, empty.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[f.session.Id])
	assert.Zero(t, counts[empty.Id])
}

func TestChatSessionRepository_DeleteRestrictedByMessages(t *testing.T) {
	f := newFixture(t)
	f.addMessage(t, "user", "hello", f.baseTime)
	sessions := f.uow.ChatSessionRepository()

	assert.Error(t, sessions.Delete(f.ctx, f.session.Id))

	n, err := f.uow.ChatMessageRepository().DeleteByChatSessionId(f.ctx, f.session.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, sessions.Delete(f.ctx, f.session.Id))
	gone, err := sessions.FindOne(f.ctx, specification.ByID{ID: f.session.Id})
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestChatSessionRepository_SearchMatchesTitleOrContent(t *testing.T) {
	f := newFixture(t)
	f.addMessage(t, "user", "I like Data Science", f.baseTime)

	byTitle := &entity.ChatSession{UserId: f.userId, Title: "Big DATA roles"}
	require.NoError(t, f.uow.ChatSessionRepository().Create(f.ctx, byTitle))
	unrelated := &entity.ChatSession{UserId: f.userId, Title: "Nursing"}
	require.NoError(t, f.uow.ChatSessionRepository().Create(f.ctx, unrelated))

	rows, err := f.uow.ChatSessionRepository().FindAll(f.ctx,
		specification.UserOwnedBy{UserID: f.userId},
		specification.SessionTitleOrContentContains{Query: "data"},
		specification.OrderBy{Field: "title"},
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, byTitle.Id, rows[0].Id)
	assert.Equal(t, f.session.Id, rows[1].Id)
}

func TestChatSessionRepository_ReturnsCopies(t *testing.T) {
	f := newFixture(t)
	found, err := f.uow.ChatSessionRepository().FindOne(f.ctx, specification.ByID{ID: f.session.Id})
	require.NoError(t, err)
	found.Title = "mutated"

	again, err := f.uow.ChatSessionRepository().FindOne(f.ctx, specification.ByID{ID: f.session.Id})
	require.NoError(t, err)
	assert.Equal(t, "New Chat", again.Title)
}

func TestUnitOfWork_RollbackReversesOwnWrites(t *testing.T) {
	f := newFixture(t)
	uow := NewRepositoryFactory(f.store).NewUnitOfWork(f.ctx)

	require.NoError(t, uow.Begin(f.ctx))
	require.NoError(t, uow.UserRepository().Create(f.ctx, &entity.User{Email: "grace@example.com"}))
	require.NoError(t, uow.Rollback())

	n, err := uow.UserRepository().Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Error(t, uow.Commit(), "commit without begin")

	require.NoError(t, uow.Begin(f.ctx))
	require.NoError(t, uow.UserRepository().Create(f.ctx, &entity.User{Email: "grace@example.com"}))
	require.NoError(t, uow.Commit())

	n, err = uow.UserRepository().Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestUnitOfWork_RollbackKeepsConcurrentWrites(t *testing.T) {
	f := newFixture(t)
	factory := NewRepositoryFactory(f.store)
	tx := factory.NewUnitOfWork(f.ctx)
	other := factory.NewUnitOfWork(f.ctx)

	require.NoError(t, tx.Begin(f.ctx))
	require.NoError(t, tx.UserRepository().Create(f.ctx, &entity.User{Email: "grace@example.com"}))

	kept := &entity.ChatMessage{ChatSessionId: f.session.Id, UserId: f.userId, Role: "user", Content: "recorded elsewhere"}
	require.NoError(t, other.ChatMessageRepository().Create(f.ctx, kept))
	require.NoError(t, other.ChatSessionRepository().Touch(f.ctx, f.session.Id, f.baseTime.Add(time.Hour)))

	require.NoError(t, tx.Rollback())

	msgs, err := other.ChatMessageRepository().FindAll(f.ctx, specification.ByChatSessionID{ChatSessionID: f.session.Id})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, kept.Id, msgs[0].Id)

	session, err := other.ChatSessionRepository().FindOne(f.ctx, specification.ByID{ID: f.session.Id})
	require.NoError(t, err)
	assert.Equal(t, f.baseTime.Add(time.Hour), session.UpdatedAt)

	n, err := other.UserRepository().Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUnitOfWork_RollbackRestoresUpdatesAndDeletes(t *testing.T) {
	f := newFixture(t)
	first := f.addMessage(t, "user", "first", f.baseTime.Add(time.Minute))
	second := f.addMessage(t, "assistant", "second", f.baseTime.Add(time.Minute))
	uow := NewRepositoryFactory(f.store).NewUnitOfWork(f.ctx)

	require.NoError(t, uow.Begin(f.ctx))
	renamed := *f.session
	renamed.Title = "Renamed"
	require.NoError(t, uow.ChatSessionRepository().Update(f.ctx, &renamed))
	n, err := uow.ChatMessageRepository().DeleteByChatSessionId(f.ctx, f.session.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, uow.ChatSessionRepository().Delete(f.ctx, f.session.Id))
	require.NoError(t, uow.Rollback())

	session, err := uow.ChatSessionRepository().FindOne(f.ctx, specification.ByID{ID: f.session.Id})
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "New Chat", session.Title)

	rows, err := uow.ChatMessageRepository().FindAll(f.ctx,
		specification.ByChatSessionID{ChatSessionID: f.session.Id},
		specification.OrderBy{Field: "created_at"},
		specification.OrderBy{Field: "seq"},
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []uuid.UUID{first.Id, second.Id}, []uuid.UUID{rows[0].Id, rows[1].Id})
}

func TestChatMessageRepository_SeqBreaksTiesDescending(t *testing.T) {
	f := newFixture(t)
	same := f.baseTime.Add(time.Minute)
	first := f.addMessage(t, "user", "first", same)
	second := f.addMessage(t, "assistant", "second", same)
	assert.Less(t, first.Seq, second.Seq)

	rows, err := f.uow.ChatMessageRepository().FindAll(f.ctx,
		specification.ByChatSessionID{ChatSessionID: f.session.Id},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "seq", Desc: true},
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, second.Id, rows[0].Id)
}

func TestCompile_RejectsUnknownSpecification(t *testing.T) {
	f := newFixture(t)
	_, err := f.uow.UserRepository().FindOne(f.ctx, specification.ByChatSessionID{ChatSessionID: uuid.New()})
	assert.Error(t, err)

	_, err = f.uow.ChatMessageRepository().FindAll(f.ctx, specification.OrderBy{Field: "role"})
	assert.Error(t, err)
}
