package lease

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type MemoryLease struct {
	cache *cache.Cache
}

var _ Lease = (*MemoryLease)(nil)

func NewMemoryLease() *MemoryLease {
	return &MemoryLease{cache: cache.New(time.Minute, 10*time.Minute)}
}

func (l *MemoryLease) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, bool, error) {
	token := uuid.NewString()
	if err := l.cache.Add(key, token, ttl); err != nil {
		return nil, false, nil
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if held, found := l.cache.Get(key); found && held == token {
				l.cache.Delete(key)
			}
		})
	}, true, nil
}
