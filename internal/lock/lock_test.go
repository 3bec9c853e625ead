package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyHidesAccount(t *testing.T) {
	k := Key("A123456789")
	assert.NotContains(t, k, "A123456789")
	assert.Equal(t, k, Key("A123456789"))
	assert.NotEqual(t, k, Key("B123456789"))
	assert.Len(t, k, len("trabook:lock:")+32)
}

// Needs a disposable server, e.g. REDIS_TEST_URL=redis://localhost:6379/15.
func TestAcquireRelease(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	l, err := Dial(ctx, url, time.Minute)
	require.NoError(t, err)
	defer l.Close()

	account := "test-" + uuid.NewString()
	lease, err := l.Acquire(ctx, account)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, account)
	assert.ErrorIs(t, err, ErrHeld)

	require.NoError(t, lease.Release(ctx))
	again, err := l.Acquire(ctx, account)
	require.NoError(t, err)

	// a stale lease must not free someone else's lock
	require.NoError(t, lease.Release(ctx))
	_, err = l.Acquire(ctx, account)
	assert.ErrorIs(t, err, ErrHeld)
	require.NoError(t, again.Release(ctx))
}

func TestKeepAliveOutlivesTTL(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	l, err := Dial(ctx, url, 300*time.Millisecond)
	require.NoError(t, err)
	defer l.Close()

	account := "test-" + uuid.NewString()
	lease, err := l.Acquire(ctx, account)
	require.NoError(t, err)

	var errs []error
	stop := lease.KeepAlive(ctx, func(err error) { errs = append(errs, err) })
	time.Sleep(time.Second)
	_, err = l.Acquire(ctx, account)
	assert.ErrorIs(t, err, ErrHeld, "lease expired despite keepalive")
	stop()
	assert.Empty(t, errs)

	require.NoError(t, lease.Release(ctx))
	assert.ErrorIs(t, lease.Refresh(ctx), ErrLost)
}
