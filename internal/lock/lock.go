// Package lock keeps two processes from booking for the same account at once.
package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrHeld = errors.New("account is locked by another run")

// release deletes the key only while it still carries our token.
var release = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
end
return 0
`)

// extend pushes the expiry out only while the key still carries our token.
var extend = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('pexpire', KEYS[1], ARGV[2])
end
return 0
`)

var ErrLost = errors.New("account lock lost")

type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Locker{rdb: rdb, ttl: ttl}
}

// Dial parses a redis:// URL and checks the server answers.
func Dial(ctx context.Context, url string, ttl time.Duration) (*Locker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, ttl), nil
}

func (l *Locker) Close() error { return l.rdb.Close() }

// Key hides the account behind a digest.
func Key(account string) string {
	sum := sha256.Sum256([]byte(account))
	return "trabook:lock:" + hex.EncodeToString(sum[:16])
}

type Lease struct {
	l     *Locker
	key   string
	token string
}

// Acquire takes the account's lock or returns ErrHeld. The lock expires after
// the TTL even if Release is never called.
func (l *Locker) Acquire(ctx context.Context, account string) (*Lease, error) {
	key, token := Key(account), uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return &Lease{l: l, key: key, token: token}, nil
}

// Release is a no-op once the lock expired or was taken over.
func (le *Lease) Release(ctx context.Context) error {
	if err := release.Run(ctx, le.l.rdb, []string{le.key}, le.token).Err(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// Refresh resets the lease TTL. It returns ErrLost when the key expired or
// now belongs to another run.
func (le *Lease) Refresh(ctx context.Context) error {
	n, err := extend.Run(ctx, le.l.rdb, []string{le.key}, le.token, le.l.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("refresh lock: %w", err)
	}
	if n == 0 {
		return ErrLost
	}
	return nil
}

// KeepAlive refreshes the lease every third of its TTL until the returned
// stop func is called or ctx ends. onErr sees every failed refresh; after
// ErrLost it stops refreshing.
func (le *Lease) KeepAlive(ctx context.Context, onErr func(error)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(max(le.l.ttl/3, time.Millisecond))
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			err := le.Refresh(ctx)
			if err == nil || ctx.Err() != nil {
				continue
			}
			if onErr != nil {
				onErr(err)
			}
			if errors.Is(err, ErrLost) {
				return
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
