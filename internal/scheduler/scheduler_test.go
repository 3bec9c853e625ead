package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/tra-booker/internal/reservation"
)

func scripted(results ...reservation.Result) (Cycle, *int) {
	calls := 0
	return func(ctx context.Context, n int) reservation.Result {
		calls++
		if calls > len(results) {
			return reservation.Result{Kind: reservation.ResultNoSeats}
		}
		return results[calls-1]
	}, &calls
}

var noSeats = reservation.Result{Kind: reservation.ResultNoSeats}

func TestSchedulerStopsOnTerminalResults(t *testing.T) {
	tests := []struct {
		name string
		last reservation.Result
	}{
		{"acquired", reservation.Acquired(reservation.Seat{Car: "5", Number: 15})},
		{"exhausted", reservation.Result{Kind: reservation.ResultRetriesExhausted, Err: errors.New("x")}},
		{"fatal", reservation.Fatal(errors.New("chrome crashed"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cycle, calls := scripted(noSeats, noSeats, tt.last)
			s := &Scheduler{Cycle: cycle, Interval: time.Millisecond}
			res := s.Run(context.Background())
			assert.Equal(t, tt.last.Kind, res.Kind)
			assert.Equal(t, 3, *calls)
		})
	}
}

func TestSchedulerMaxCycles(t *testing.T) {
	cycle, calls := scripted()
	s := &Scheduler{Cycle: cycle, Interval: time.Millisecond, MaxCycles: 4}
	res := s.Run(context.Background())
	assert.Equal(t, reservation.ResultNoSeats, res.Kind)
	assert.Equal(t, 4, *calls)
}

func TestSchedulerMaxDuration(t *testing.T) {
	clock := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	cycle, calls := scripted()
	s := &Scheduler{
		Cycle: func(ctx context.Context, n int) reservation.Result {
			clock = clock.Add(40 * time.Second)
			return cycle(ctx, n)
		},
		Interval:    time.Millisecond,
		MaxDuration: 100 * time.Second,
		now:         func() time.Time { return clock },
	}
	res := s.Run(context.Background())
	assert.Equal(t, reservation.ResultNoSeats, res.Kind)
	assert.Equal(t, 3, *calls)
}

func TestSchedulerInterruptedWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s := &Scheduler{
		Cycle: func(context.Context, int) reservation.Result {
			calls++
			cancel()
			return noSeats
		},
		Interval: time.Hour,
	}
	res := s.Run(ctx)
	assert.Equal(t, reservation.ResultFatal, res.Kind)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestSchedulerPassesCycleNumber(t *testing.T) {
	var seen []int
	s := &Scheduler{
		Cycle: func(_ context.Context, n int) reservation.Result {
			seen = append(seen, n)
			return noSeats
		},
		MaxCycles: 3,
	}
	s.Run(context.Background())
	assert.Equal(t, []int{1, 2, 3}, seen)
}
