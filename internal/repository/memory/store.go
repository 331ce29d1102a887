// Package memory is a process-local implementation of the repository contracts.
// It backs DB_DRIVER=memory and the service tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"career-chat-be/internal/entity"
	"career-chat-be/internal/repository/unitofwork"
)

type Store struct {
	mu       sync.RWMutex
	users    []*entity.User
	sessions []*entity.ChatSession
	messages []*entity.ChatMessage
	// last message sequence handed out; messages stay sorted by it
	seq int64

	// held for the whole lifetime of a transaction
	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{}
}

// putBackMessage reinserts a deleted message at its sequence position.
// Callers hold mu.
func (s *Store) putBackMessage(m *entity.ChatMessage) {
	i, _ := slices.BinarySearchFunc(s.messages, m.Seq, func(e *entity.ChatMessage, seq int64) int {
		return cmp.Compare(e.Seq, seq)
	})
	s.messages = slices.Insert(s.messages, i, m)
}

// putBackSession reinserts a deleted session near where it was. Callers hold mu.
func (s *Store) putBackSession(at int, cs *entity.ChatSession) {
	s.sessions = slices.Insert(s.sessions, min(at, len(s.sessions)), cs)
}

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

func cloneAll[T any](items []*T, clone func(*T) *T) []*T {
	out := make([]*T, len(items))
	for i, item := range items {
		out[i] = clone(item)
	}
	return out
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	if u.Name != nil {
		name := *u.Name
		c.Name = &name
	}
	return &c
}

func cloneSession(s *entity.ChatSession) *entity.ChatSession {
	c := *s
	return &c
}

func cloneMessage(m *entity.ChatMessage) *entity.ChatMessage {
	c := *m
	return &c
}
