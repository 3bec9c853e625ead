// Package poll provides a bounded condition wait: a check, a fixed number of
// rounds and a fixed interval between them. It never blocks past
// rounds*interval plus the time spent inside the condition itself.
package poll

import (
	"context"
	"errors"
	"time"
)

var ErrTimeout = errors.New("condition not met before poll ceiling")

// Condition reports whether the awaited state has been reached.
type Condition func(ctx context.Context) (bool, error)

// Until evaluates cond up to rounds times, sleeping interval between
// evaluations. It returns nil once cond is true, ErrTimeout when the rounds
// are used up, cond's error if it fails, or ctx.Err() if ctx ends first.
func Until(ctx context.Context, rounds int, interval time.Duration, cond Condition) error {
	if rounds < 1 {
		rounds = 1
	}
	for i := 0; i < rounds; i++ {
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if i == rounds-1 {
			break
		}
		if err := Sleep(ctx, interval); err != nil {
			return err
		}
	}
	return ErrTimeout
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
