package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"career-chat-be/internal/entity"
	"career-chat-be/internal/pkg/apperror"
	"career-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository struct {
	store *Store
	uow   *UnitOfWork
}

func userPredicate(spec specification.Specification) (func(*entity.User) bool, bool) {
	switch s := spec.(type) {
	case specification.ByID:
		return func(u *entity.User) bool { return u.Id == s.ID }, true
	case specification.ByEmail:
		email := strings.ToLower(strings.TrimSpace(s.Email))
		return func(u *entity.User) bool { return u.Email == email }, true
	}
	return nil, false
}

func userOrderKey(field string) (func(a, b *entity.User) int, bool) {
	switch field {
	case "created_at":
		return func(a, b *entity.User) int { return a.CreatedAt.Compare(b.CreatedAt) }, true
	case "email":
		return func(a, b *entity.User) int { return compareStrings(a.Email, b.Email) }, true
	}
	return nil, false
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return apperror.Conflict("email already registered")
		}
	}
	if user.Id == uuid.Nil {
		user.Id = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.store.users = append(r.store.users, cloneUser(user))

	id := user.Id
	r.uow.record(func() {
		r.store.users = slices.DeleteFunc(r.store.users, func(u *entity.User) bool { return u.Id == id })
	})
	return nil
}

func (r *UserRepository) find(specs []specification.Specification) ([]*entity.User, error) {
	q, err := compile(specs, userPredicate)
	if err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return q.run(r.store.users, userOrderKey)
}

func (r *UserRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	rows, err := r.find(specs)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return cloneUser(rows[0]), nil
}

func (r *UserRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, err := r.find(specs)
	return int64(len(rows)), err
}
