package lockout

import (
	"context"
	"sync"
	"time"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

type entry struct {
	failures    int
	lockedUntil time.Time
}

// MemoryStore is an in-memory LoginLockoutStore keyed by normalized email. It is per-process;
// replicas behind a load balancer each keep their own counts.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string]*entry
	max      int
	cooldown time.Duration
	now      func() time.Time
}

// NewMemoryStore returns a lockout store. maxAttempts <= 0 disables lockout.
func NewMemoryStore(maxAttempts int, cooldown time.Duration) *MemoryStore {
	if cooldown <= 0 {
		cooldown = 15 * time.Minute
	}
	return &MemoryStore{
		data:     make(map[string]*entry),
		max:      maxAttempts,
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (s *MemoryStore) IsLocked(_ context.Context, email string) (bool, int) {
	if s.max <= 0 {
		return false, 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[email]
	if !ok {
		return false, 0
	}
	now := s.now()
	if now.Before(e.lockedUntil) {
		secs := int(e.lockedUntil.Sub(now).Seconds())
		if secs < 1 {
			secs = 1
		}
		return true, secs
	}
	return false, 0
}

func (s *MemoryStore) RecordFailure(_ context.Context, email string) {
	if s.max <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.data[email]
	if e == nil {
		e = &entry{}
		s.data[email] = e
	}
	now := s.now()
	// An expired lock starts a fresh count.
	if !e.lockedUntil.IsZero() && !now.Before(e.lockedUntil) {
		e.failures = 0
		e.lockedUntil = time.Time{}
	}
	e.failures++
	if e.failures >= s.max {
		e.lockedUntil = now.Add(s.cooldown)
	}
}

func (s *MemoryStore) RecordSuccess(_ context.Context, email string) {
	if s.max <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, email)
}

var _ ports.LoginLockoutStore = (*MemoryStore)(nil)
