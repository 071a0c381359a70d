package security

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

// BoundedHasher caps how many Argon2 computations run at once. Each one holds
// Memory KiB for its duration, so an unbounded burst of logins could exhaust the heap.
type BoundedHasher struct {
	inner ports.PasswordHasher
	sem   *semaphore.Weighted
}

// NewBoundedHasher wraps inner. limit <= 0 uses GOMAXPROCS.
func NewBoundedHasher(inner ports.PasswordHasher, limit int) *BoundedHasher {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	return &BoundedHasher{inner: inner, sem: semaphore.NewWeighted(int64(limit))}
}

// Share returns a hasher for inner that draws from the same budget as b, so several
// parameter sets together never exceed the limit given to NewBoundedHasher.
func (b *BoundedHasher) Share(inner ports.PasswordHasher) *BoundedHasher {
	return &BoundedHasher{inner: inner, sem: b.sem}
}

func (b *BoundedHasher) Hash(secret string) (string, error) {
	if err := b.sem.Acquire(context.Background(), 1); err != nil {
		return "", err
	}
	defer b.sem.Release(1)
	return b.inner.Hash(secret)
}

func (b *BoundedHasher) Verify(secret, hash string) bool {
	if err := b.sem.Acquire(context.Background(), 1); err != nil {
		return false
	}
	defer b.sem.Release(1)
	return b.inner.Verify(secret, hash)
}

var _ ports.PasswordHasher = (*BoundedHasher)(nil)
