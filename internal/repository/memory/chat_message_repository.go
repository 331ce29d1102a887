package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"career-chat-be/internal/entity"
	"career-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository struct {
	store *Store
	uow   *UnitOfWork
}

func messagePredicate(spec specification.Specification) (func(*entity.ChatMessage) bool, bool) {
	switch s := spec.(type) {
	case specification.ByID:
		return func(m *entity.ChatMessage) bool { return m.Id == s.ID }, true
	case specification.ByIDs:
		return func(m *entity.ChatMessage) bool { return slices.Contains(s.IDs, m.Id) }, true
	case specification.ByChatSessionID:
		return func(m *entity.ChatMessage) bool { return m.ChatSessionId == s.ChatSessionID }, true
	case specification.ByChatSessionIDs:
		return func(m *entity.ChatMessage) bool { return slices.Contains(s.ChatSessionIDs, m.ChatSessionId) }, true
	case specification.UserOwnedBy:
		return func(m *entity.ChatMessage) bool { return m.UserId == s.UserID }, true
	case specification.ExcludeRole:
		return func(m *entity.ChatMessage) bool { return m.Role != s.Role }, true
	case specification.ByRole:
		return func(m *entity.ChatMessage) bool { return m.Role == s.Role }, true
	case specification.ContentContains:
		return func(m *entity.ChatMessage) bool { return containsFold(m.Content, s.Query) }, true
	}
	return nil, false
}

func messageOrderKey(field string) (func(a, b *entity.ChatMessage) int, bool) {
	switch field {
	case "created_at":
		return func(a, b *entity.ChatMessage) int { return a.CreatedAt.Compare(b.CreatedAt) }, true
	case "seq":
		return func(a, b *entity.ChatMessage) int { return cmp.Compare(a.Seq, b.Seq) }, true
	}
	return nil, false
}

func (r *ChatMessageRepository) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if !slices.ContainsFunc(r.store.sessions, func(cs *entity.ChatSession) bool { return cs.Id == message.ChatSessionId }) {
		return fmt.Errorf("chat session %s does not exist", message.ChatSessionId)
	}
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	r.store.seq++
	message.Seq = r.store.seq
	r.store.messages = append(r.store.messages, cloneMessage(message))

	id := message.Id
	r.uow.record(func() {
		r.store.messages = slices.DeleteFunc(r.store.messages, func(m *entity.ChatMessage) bool { return m.Id == id })
	})
	return nil
}

func (r *ChatMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.deleteWhere(func(m *entity.ChatMessage) bool { return m.Id == id })
	return nil
}

func (r *ChatMessageRepository) DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	removed := r.deleteWhere(func(m *entity.ChatMessage) bool { return m.ChatSessionId == chatSessionId })
	return int64(removed), nil
}

// deleteWhere drops matching rows and logs them for rollback. Callers hold mu.
func (r *ChatMessageRepository) deleteWhere(match func(*entity.ChatMessage) bool) int {
	var removed []*entity.ChatMessage
	r.store.messages = slices.DeleteFunc(r.store.messages, func(m *entity.ChatMessage) bool {
		if match(m) {
			removed = append(removed, m)
			return true
		}
		return false
	})
	if len(removed) > 0 {
		r.uow.record(func() {
			for _, m := range removed {
				r.store.putBackMessage(m)
			}
		})
	}
	return len(removed)
}

func (r *ChatMessageRepository) find(specs []specification.Specification) ([]*entity.ChatMessage, error) {
	q, err := compile(specs, messagePredicate)
	if err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rows, err := q.run(r.store.messages, messageOrderKey)
	if err != nil {
		return nil, err
	}
	return cloneAll(rows, cloneMessage), nil
}

func (r *ChatMessageRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	rows, err := r.find(specs)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *ChatMessageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	return r.find(specs)
}

func (r *ChatMessageRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, err := r.find(specs)
	return int64(len(rows)), err
}

func (r *ChatMessageRepository) CountGroupedBySession(ctx context.Context, chatSessionIds []uuid.UUID) (map[uuid.UUID]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	counts := make(map[uuid.UUID]int64, len(chatSessionIds))
	for _, m := range r.store.messages {
		if slices.Contains(chatSessionIds, m.ChatSessionId) {
			counts[m.ChatSessionId]++
		}
	}
	return counts, nil
}
