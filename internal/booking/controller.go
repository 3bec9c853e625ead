package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/tra-booker/internal/history"
	"github.com/example/tra-booker/internal/metrics"
	"github.com/example/tra-booker/internal/poll"
	"github.com/example/tra-booker/internal/reservation"
)

const (
	DefaultMaxRetries = 5
	DefaultRetryDelay = 3 * time.Second

	interruptCancelTimeout = 30 * time.Second
)

type state int

const (
	stateAttempting state = iota
	stateEvaluating
	stateCanceling
)

// Controller runs the acquisition state machine for one request:
// attempt, evaluate against the acceptance policy, cancel and retry on a
// mismatch, and retry with a fixed delay on transient errors until
// MaxRetries consecutive failures.
//
// The session is opened at the start of Run and closed exactly once on every
// path out of it.
type Controller struct {
	Dialer  Dialer
	Request reservation.Request

	MaxRetries int
	RetryDelay time.Duration

	RunID   string
	Journal Journal   // optional
	Holds   HoldStore // optional

	now func() time.Time
}

func (c *Controller) Run(ctx context.Context) (res reservation.Result) {
	log := zerolog.Ctx(ctx).With().Str("run_id", c.RunID).Logger()
	ctx = log.WithContext(ctx)

	attempts := 0
	defer func() {
		res.Attempts = attempts
		metrics.ObserveRun(res.Kind.String())
		var ev *zerolog.Event
		switch res.Kind {
		case reservation.ResultFatal, reservation.ResultRetriesExhausted:
			ev = log.Error().AnErr("cause", res.Err)
		default:
			ev = log.Info()
		}
		ev.Str("result", res.Kind.String()).Int("attempts", attempts).Msgf("run finished: %s", res)
	}()

	var (
		sess Session
		once sync.Once
	)
	release := func() {
		if sess == nil {
			return
		}
		once.Do(func() {
			if err := sess.Close(); err != nil {
				log.Warn().Err(err).Msg("close booking session")
			}
		})
	}
	defer release()
	defer func() {
		if r := recover(); r != nil {
			res = reservation.Fatal(fmt.Errorf("controller panic: %v", r))
		}
	}()

	sess, err := c.Dialer.Open(ctx)
	if err != nil {
		return reservation.Fatal(fmt.Errorf("open booking session: %w", err))
	}

	// While pinned, the checkpoint holds a reservation that was never
	// released; it is left for the next run instead of being overwritten.
	pinned := c.releaseStrayHold(ctx, sess)

	maxRetries := c.MaxRetries
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	var (
		transient int
		held      reservation.Handle
		st        = stateAttempting
	)
	for {
		switch st {
		case stateAttempting:
			if err := ctx.Err(); err != nil {
				return reservation.Fatal(fmt.Errorf("run interrupted: %w", err))
			}
			attempts++
			out := sess.Attempt(ctx, c.Request)
			metrics.ObserveAttempt(out.Kind.String())
			switch out.Kind {
			case reservation.OutcomeNoSeats:
				log.Info().Int("attempt", attempts).Msg("no seats available")
				c.record(ctx, attempts, out, false)
				return reservation.Result{Kind: reservation.ResultNoSeats}
			case reservation.OutcomeTransient:
				transient++
				c.record(ctx, attempts, out, false)
				log.Warn().Int("attempt", attempts).Int("consecutive", transient).Err(out.Err).Msg("attempt failed")
				if transient >= maxRetries {
					return reservation.Result{Kind: reservation.ResultRetriesExhausted, Err: out.Err}
				}
				if err := poll.Sleep(ctx, c.retryDelay()); err != nil {
					return reservation.Fatal(fmt.Errorf("run interrupted: %w", err))
				}
			case reservation.OutcomeSuccess:
				transient = 0
				held = reservation.Handle{ReservationID: out.ReservationID, Account: c.Request.Account, Seat: out.Seat}
				if !pinned {
					c.saveHold(ctx, held)
				}
				st = stateEvaluating
			default:
				return reservation.Fatal(fmt.Errorf("executor returned unknown outcome %d", out.Kind))
			}

		case stateEvaluating:
			accepted := reservation.Accept(c.Request.Criteria, held.Seat)
			c.record(ctx, attempts, reservation.Success(held.Seat, held.ReservationID), accepted)
			if accepted {
				log.Info().Int("attempt", attempts).Str("car", held.Seat.Car).Int("seat", held.Seat.Number).
					Str("booking_code", held.ReservationID).Msg("seat accepted")
				if !pinned {
					c.clearHold(ctx)
				}
				return reservation.Acquired(held.Seat)
			}
			log.Info().Int("attempt", attempts).Str("car", held.Seat.Car).Int("seat", held.Seat.Number).
				Msg("seat rejected, canceling")
			st = stateCanceling

		case stateCanceling:
			err := c.cancel(ctx, sess, held)
			metrics.ObserveCancel(err)
			if err != nil {
				log.Warn().Err(err).Str("booking_code", held.ReservationID).Msg("cancel failed, continuing")
				pinned = pinned || c.Holds != nil
			} else {
				log.Info().Str("booking_code", held.ReservationID).Msg("reservation canceled")
				if !pinned {
					c.clearHold(ctx)
				}
			}
			held = reservation.Handle{}
			st = stateAttempting
		}
	}
}

// cancel releases h. An interrupted run still releases its seat, on a
// context detached from the canceled one.
func (c *Controller) cancel(ctx context.Context, sess Session, h reservation.Handle) error {
	if ctx.Err() != nil {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), interruptCancelTimeout)
		defer cancel()
		return sess.Cancel(cctx, h)
	}
	return sess.Cancel(ctx, h)
}

func (c *Controller) retryDelay() time.Duration {
	if c.RetryDelay < 0 {
		return 0
	}
	if c.RetryDelay == 0 {
		return DefaultRetryDelay
	}
	return c.RetryDelay
}

// releaseStrayHold cancels a reservation a previous run held but never
// released. It reports true when that reservation is still held.
func (c *Controller) releaseStrayHold(ctx context.Context, sess Session) bool {
	if c.Holds == nil {
		return false
	}
	log := zerolog.Ctx(ctx)
	h, ok, err := c.Holds.Load()
	if err != nil {
		log.Warn().Err(err).Msg("read hold checkpoint")
		return false
	}
	if !ok {
		return false
	}
	log.Info().Str("booking_code", h.ReservationID).Msg("releasing reservation left by an earlier run")
	if err := sess.Cancel(ctx, h); err != nil {
		metrics.ObserveCancel(err)
		log.Warn().Err(err).Msg("release earlier reservation")
		return true
	}
	metrics.ObserveCancel(nil)
	c.clearHold(ctx)
	return false
}

func (c *Controller) saveHold(ctx context.Context, h reservation.Handle) {
	if c.Holds == nil {
		return
	}
	if err := c.Holds.Save(h); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("write hold checkpoint")
	}
}

func (c *Controller) clearHold(ctx context.Context) {
	if c.Holds == nil {
		return
	}
	if err := c.Holds.Clear(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("clear hold checkpoint")
	}
}

func (c *Controller) record(ctx context.Context, seq int, out reservation.Outcome, accepted bool) {
	if c.Journal == nil {
		return
	}
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	a := history.Attempt{
		RunID:         c.RunID,
		Seq:           seq,
		Outcome:       out.Kind.String(),
		Car:           out.Seat.Car,
		Seat:          out.Seat.Number,
		ReservationID: out.ReservationID,
		Accepted:      accepted,
		At:            now().UTC(),
	}
	if out.Err != nil {
		a.Error = out.Err.Error()
	}
	if err := c.Journal.RecordAttempt(ctx, a); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("journal attempt")
	}
}
