package memory

import (
	"context"
	"fmt"

	"career-chat-be/internal/repository/contract"
)

// UnitOfWork serialises transactions against each other. Writes made inside
// a transaction are logged so Rollback can reverse exactly those, leaving
// concurrent writes from other units of work in place.
type UnitOfWork struct {
	store *Store
	undo  []func()
	inTx  bool
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.store.txMu.Lock()
	u.inTx = true
	u.undo = nil
	return nil
}

func (u *UnitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.inTx = false
	u.undo = nil
	u.store.txMu.Unlock()
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.mu.Lock()
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.store.mu.Unlock()

	u.inTx = false
	u.undo = nil
	u.store.txMu.Unlock()
	return nil
}

// record queues the inverse of a write. Callers hold store.mu, and so
// does Rollback when the inverse runs.
func (u *UnitOfWork) record(inverse func()) {
	if u == nil || !u.inTx {
		return
	}
	u.undo = append(u.undo, inverse)
}

func (u *UnitOfWork) UserRepository() contract.UserRepository {
	return &UserRepository{store: u.store, uow: u}
}

func (u *UnitOfWork) ChatSessionRepository() contract.ChatSessionRepository {
	return &ChatSessionRepository{store: u.store, uow: u}
}

func (u *UnitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return &ChatMessageRepository{store: u.store, uow: u}
}
