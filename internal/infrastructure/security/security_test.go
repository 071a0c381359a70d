package security

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fastParams() Argon2Params {
	return Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestArgon2HashAndVerify(t *testing.T) {
	h := NewArgon2Hasher(fastParams())

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	require.True(t, h.Verify("correct horse", hash))
	require.False(t, h.Verify("battery staple", hash))
}

func TestArgon2SaltIsRandom(t *testing.T) {
	h := NewArgon2Hasher(fastParams())
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestArgon2VerifyUsesEmbeddedParams(t *testing.T) {
	old := NewArgon2Hasher(fastParams())
	hash, err := old.Hash("pw")
	require.NoError(t, err)

	current := NewArgon2Hasher(Argon2Params{Memory: 2048, Iterations: 2, Parallelism: 1})
	require.True(t, current.Verify("pw", hash))
}

func TestArgon2VerifyRejectsMalformed(t *testing.T) {
	h := NewArgon2Hasher(fastParams())
	for _, bad := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
	} {
		require.False(t, h.Verify("pw", bad), bad)
	}
}

func TestBoundedHasherConcurrent(t *testing.T) {
	h := NewBoundedHasher(NewArgon2Hasher(fastParams()), 2)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hash, err := h.Hash("pw")
			if err != nil {
				t.Error(err)
				return
			}
			if !h.Verify("pw", hash) {
				t.Error("verify failed")
			}
		}()
	}
	wg.Wait()
}

type countingHasher struct {
	inFlight *int32
	peak     *int32
}

func (c countingHasher) enter() {
	n := atomic.AddInt32(c.inFlight, 1)
	for {
		p := atomic.LoadInt32(c.peak)
		if n <= p || atomic.CompareAndSwapInt32(c.peak, p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(c.inFlight, -1)
}

func (c countingHasher) Hash(string) (string, error) { c.enter(); return "h", nil }
func (c countingHasher) Verify(string, string) bool  { c.enter(); return true }

func TestBoundedHasherShareUsesOneBudget(t *testing.T) {
	var inFlight, peak int32
	counter := countingHasher{inFlight: &inFlight, peak: &peak}
	passwords := NewBoundedHasher(counter, 2)
	tokens := passwords.Share(counter)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		h := passwords
		if i%2 == 0 {
			h = tokens
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.Hash("pw")
			_ = h.Verify("pw", "h")
		}()
	}
	wg.Wait()
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	require.Positive(t, atomic.LoadInt32(&peak))
}

func TestRandomTokenGenerator(t *testing.T) {
	g := NewRandomTokenGenerator()
	a, err := g.NewOpaqueToken()
	require.NoError(t, err)
	b, err := g.NewOpaqueToken()
	require.NoError(t, err)
	require.Len(t, a, OpaqueTokenBytes*2)
	require.NotEqual(t, a, b)
}
