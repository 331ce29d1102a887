package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"career-chat-be/internal/entity"
	"career-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository struct {
	store *Store
	uow   *UnitOfWork
}

// sessionPredicate reads r.store.messages, so callers must hold the read lock
// while the returned predicate runs.
func (r *ChatSessionRepository) sessionPredicate(spec specification.Specification) (func(*entity.ChatSession) bool, bool) {
	switch s := spec.(type) {
	case specification.ByID:
		return func(cs *entity.ChatSession) bool { return cs.Id == s.ID }, true
	case specification.ByIDs:
		return func(cs *entity.ChatSession) bool { return slices.Contains(s.IDs, cs.Id) }, true
	case specification.UserOwnedBy:
		return func(cs *entity.ChatSession) bool { return cs.UserId == s.UserID }, true
	case specification.SessionTitleOrContentContains:
		return func(cs *entity.ChatSession) bool {
			if containsFold(cs.Title, s.Query) {
				return true
			}
			for _, m := range r.store.messages {
				if m.ChatSessionId == cs.Id && containsFold(m.Content, s.Query) {
					return true
				}
			}
			return false
		}, true
	}
	return nil, false
}

func sessionOrderKey(field string) (func(a, b *entity.ChatSession) int, bool) {
	switch field {
	case "created_at":
		return func(a, b *entity.ChatSession) int { return a.CreatedAt.Compare(b.CreatedAt) }, true
	case "updated_at":
		return func(a, b *entity.ChatSession) int { return a.UpdatedAt.Compare(b.UpdatedAt) }, true
	case "title":
		return func(a, b *entity.ChatSession) int { return compareStrings(a.Title, b.Title) }, true
	}
	return nil, false
}

func (r *ChatSessionRepository) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(r.store.sessions, func(cs *entity.ChatSession) bool { return cs.Id == id })
}

func (r *ChatSessionRepository) Create(ctx context.Context, session *entity.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	} else if r.indexOf(session.Id) >= 0 {
		return fmt.Errorf("chat session %s already exists", session.Id)
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}
	r.store.sessions = append(r.store.sessions, cloneSession(session))

	id := session.Id
	r.uow.record(func() {
		r.store.sessions = slices.DeleteFunc(r.store.sessions, func(cs *entity.ChatSession) bool { return cs.Id == id })
	})
	return nil
}

// restoreRow puts prev back over whatever row now carries its id.
func (r *ChatSessionRepository) restoreRow(prev *entity.ChatSession) {
	if i := r.indexOf(prev.Id); i >= 0 {
		r.store.sessions[i] = prev
	}
}

func (r *ChatSessionRepository) Update(ctx context.Context, session *entity.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	i := r.indexOf(session.Id)
	if i < 0 {
		return fmt.Errorf("chat session %s not found", session.Id)
	}
	if now := time.Now(); now.After(session.UpdatedAt) {
		session.UpdatedAt = now
	}
	prev := r.store.sessions[i]
	r.store.sessions[i] = cloneSession(session)
	r.uow.record(func() { r.restoreRow(prev) })
	return nil
}

func (r *ChatSessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if i := r.indexOf(id); i >= 0 {
		prev := r.store.sessions[i]
		touched := cloneSession(prev)
		touched.UpdatedAt = at
		r.store.sessions[i] = touched
		r.uow.record(func() { r.restoreRow(prev) })
	}
	return nil
}

// Delete refuses while messages still reference the session, like the
// RESTRICT foreign key on chat_messages.
func (r *ChatSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, m := range r.store.messages {
		if m.ChatSessionId == id {
			return fmt.Errorf("chat session %s still has messages", id)
		}
	}
	i := r.indexOf(id)
	if i < 0 {
		return nil
	}
	prev := r.store.sessions[i]
	r.store.sessions = slices.Delete(r.store.sessions, i, i+1)
	r.uow.record(func() { r.store.putBackSession(i, prev) })
	return nil
}

func (r *ChatSessionRepository) find(specs []specification.Specification) ([]*entity.ChatSession, error) {
	q, err := compile(specs, r.sessionPredicate)
	if err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rows, err := q.run(r.store.sessions, sessionOrderKey)
	if err != nil {
		return nil, err
	}
	return cloneAll(rows, cloneSession), nil
}

func (r *ChatSessionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	rows, err := r.find(specs)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *ChatSessionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	return r.find(specs)
}

func (r *ChatSessionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, err := r.find(specs)
	return int64(len(rows)), err
}
