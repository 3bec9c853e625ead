package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/tra-booker/internal/reservation"
)

// Cycle runs one fresh controller to completion.
type Cycle func(ctx context.Context, n int) reservation.Result

// Scheduler re-runs a Cycle every Interval while the only outcome is NoSeats.
// Cycles never overlap. A zero MaxCycles or MaxDuration leaves that side
// unbounded.
type Scheduler struct {
	Cycle       Cycle
	Interval    time.Duration
	MaxCycles   int
	MaxDuration time.Duration

	now func() time.Time
}

func (s *Scheduler) Run(ctx context.Context) reservation.Result {
	log := zerolog.Ctx(ctx)
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	start := now()

	for n := 1; ; n++ {
		log.Info().Int("cycle", n).Msg("starting booking cycle")
		res := s.Cycle(ctx, n)
		if res.Kind != reservation.ResultNoSeats {
			return res
		}

		if s.MaxCycles > 0 && n >= s.MaxCycles {
			log.Info().Int("cycles", n).Msg("cycle limit reached without seats")
			return res
		}
		next := s.Interval
		if s.MaxDuration > 0 {
			left := s.MaxDuration - now().Sub(start)
			if left < next {
				log.Info().Dur("elapsed", now().Sub(start)).Msg("time limit reached without seats")
				return res
			}
		}

		log.Info().Int("cycle", n).Dur("wait", next).Msg("no seats, waiting for next cycle")
		t := time.NewTimer(next)
		select {
		case <-ctx.Done():
			t.Stop()
			return reservation.Fatal(fmt.Errorf("watch interrupted: %w", ctx.Err()))
		case <-t.C:
		}
	}
}
