// Package lease hands out short exclusive claims on a key, so only one
// worker at a time runs a given one-off job.
package lease

import (
	"context"
	"time"
)

// Release gives the claim back early. Safe to call more than once.
type Release func()

type Lease interface {
	// Acquire returns ok=false, without error, when someone else holds key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release Release, ok bool, err error)
}
