package otp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, 5*time.Minute), mr
}

func TestRedisIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t)

	code, err := s.Issue(ctx, "sess-1", "9876543210")
	require.NoError(t, err)
	assert.Regexp(t, `^\d{6}$`, code)

	require.NoError(t, s.Verify(ctx, "sess-1", "9876543210", code))
	assert.ErrorIs(t, s.Verify(ctx, "sess-1", "9876543210", code), ErrNoPending)
}

func TestRedisMismatchReasons(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t)

	code, err := s.Issue(ctx, "sess-1", "9876543210")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Verify(ctx, "missing", "9876543210", code), ErrNoPending)
	assert.ErrorIs(t, s.Verify(ctx, "sess-1", "1112223334", code), ErrPhoneMismatch)
	assert.ErrorIs(t, s.Verify(ctx, "sess-1", "9876543210", "000000"), ErrCodeMismatch)

	// Failed attempts do not consume the pending code.
	require.NoError(t, s.Verify(ctx, "sess-1", "9876543210", code))
}

func TestRedisConcurrentVerifySingleUse(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t)

	code, err := s.Issue(ctx, "sess-1", "9876543210")
	require.NoError(t, err)

	// Many attempts race on the same valid code; GETDEL hands the record
	// to exactly one of them.
	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.Verify(ctx, "sess-1", "9876543210", code)
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrNoPending)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestRedisExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	code, err := s.Issue(ctx, "sess-1", "9876543210")
	require.NoError(t, err)

	mr.FastForward(6 * time.Minute)
	assert.ErrorIs(t, s.Verify(ctx, "sess-1", "9876543210", code), ErrNoPending)
}
