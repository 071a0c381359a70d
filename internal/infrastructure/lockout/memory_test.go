package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockoutAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewMemoryStore(3, time.Minute)
	s.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		s.RecordFailure(ctx, "a@x.com")
		locked, _ := s.IsLocked(ctx, "a@x.com")
		require.False(t, locked)
	}
	s.RecordFailure(ctx, "a@x.com")
	locked, retry := s.IsLocked(ctx, "a@x.com")
	require.True(t, locked)
	require.Equal(t, 60, retry)

	other, _ := s.IsLocked(ctx, "b@x.com")
	require.False(t, other)

	now = now.Add(2 * time.Minute)
	locked, _ = s.IsLocked(ctx, "a@x.com")
	require.False(t, locked)

	// count restarts after the cooldown
	s.RecordFailure(ctx, "a@x.com")
	locked, _ = s.IsLocked(ctx, "a@x.com")
	require.False(t, locked)
}

func TestLockoutSuccessClears(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, time.Minute)
	s.RecordFailure(ctx, "a@x.com")
	s.RecordSuccess(ctx, "a@x.com")
	s.RecordFailure(ctx, "a@x.com")
	locked, _ := s.IsLocked(ctx, "a@x.com")
	require.False(t, locked)
}

func TestLockoutDisabled(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, time.Minute)
	for i := 0; i < 10; i++ {
		s.RecordFailure(ctx, "a@x.com")
	}
	locked, _ := s.IsLocked(ctx, "a@x.com")
	require.False(t, locked)
}
