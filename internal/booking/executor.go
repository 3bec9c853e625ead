package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/example/tra-booker/internal/poll"
	"github.com/example/tra-booker/internal/reservation"
)

// Settings bounds every wait the executor performs.
type Settings struct {
	ChallengeTimeout time.Duration
	// OverlayRounds and PollInterval bound the busy-overlay wait.
	OverlayRounds int
	PollInterval  time.Duration
	// ActionTimeout bounds waiting for a single result element to appear.
	ActionTimeout time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		ChallengeTimeout: 2 * time.Minute,
		OverlayRounds:    30,
		PollInterval:     time.Second,
		ActionTimeout:    15 * time.Second,
	}
}

var (
	errChallengeUnsolved = errors.New("challenge not solved before timeout")
	errOverlayStuck      = errors.New("busy overlay did not clear")
	errNoSeatText        = errors.New("seat assignment not shown")
)

// Executor drives one query+reserve cycle. Attempt always resolves to exactly
// one Outcome; no error or panic from the surface escapes it.
type Executor struct {
	Surface  Surface
	Solver   ChallengeSolver
	Locators Locators
	Settings Settings
}

func (e *Executor) Attempt(ctx context.Context, req reservation.Request) (out reservation.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = reservation.Transient(fmt.Errorf("attempt panicked: %v", r))
		}
	}()
	o, err := e.attempt(ctx, req)
	if err != nil {
		return reservation.Transient(err)
	}
	return o
}

func (e *Executor) attempt(ctx context.Context, req reservation.Request) (reservation.Outcome, error) {
	l := e.Locators
	if err := e.Surface.Navigate(ctx, l.QueryURL); err != nil {
		return reservation.Outcome{}, fmt.Errorf("open query page: %w", err)
	}
	fields := []struct{ locator, value string }{
		{l.QueryAccount, req.Account},
		{l.QueryOrigin, req.Origin.FormValue()},
		{l.QueryDest, req.Destination.FormValue()},
		{l.QueryDate, req.FormDate()},
		{l.QueryTrainNo, req.TrainNo},
	}
	for _, f := range fields {
		if err := e.Surface.Fill(ctx, f.locator, f.value); err != nil {
			return reservation.Outcome{}, fmt.Errorf("fill %s: %w", f.locator, err)
		}
	}
	if zone := e.zoneLocator(req.Zone); zone != "" {
		if err := e.Surface.Click(ctx, zone); err != nil {
			return reservation.Outcome{}, fmt.Errorf("select seat zone: %w", err)
		}
	}

	if err := awaitChallenge(ctx, e.Solver, e.Settings.ChallengeTimeout); err != nil {
		return reservation.Outcome{}, err
	}
	if err := e.Surface.Click(ctx, l.QuerySubmit); err != nil {
		return reservation.Outcome{}, fmt.Errorf("submit query: %w", err)
	}
	if err := e.awaitOverlay(ctx); err != nil {
		return reservation.Outcome{}, err
	}

	none, err := e.Surface.IsVisible(ctx, l.NoItinerary)
	if err != nil {
		return reservation.Outcome{}, fmt.Errorf("check itinerary: %w", err)
	}
	if none {
		return reservation.NoSeats(), nil
	}

	if l.ItineraryRow != "" {
		row, err := e.Surface.IsVisible(ctx, l.ItineraryRow)
		if err != nil {
			return reservation.Outcome{}, fmt.Errorf("check itinerary row: %w", err)
		}
		if row {
			if err := e.Surface.Click(ctx, l.ItineraryRow); err != nil {
				return reservation.Outcome{}, fmt.Errorf("select itinerary: %w", err)
			}
			if err := e.Surface.Click(ctx, l.ItinerarySubmit); err != nil {
				return reservation.Outcome{}, fmt.Errorf("confirm itinerary: %w", err)
			}
			if err := e.awaitOverlay(ctx); err != nil {
				return reservation.Outcome{}, err
			}
		}
	}

	shown, err := e.Surface.WaitFor(ctx, l.SeatText, e.Settings.ActionTimeout)
	if err != nil {
		return reservation.Outcome{}, fmt.Errorf("wait for seat text: %w", err)
	}
	if !shown {
		return reservation.Outcome{}, errNoSeatText
	}
	text, err := e.Surface.ReadText(ctx, l.SeatText)
	if err != nil {
		return reservation.Outcome{}, fmt.Errorf("read seat text: %w", err)
	}
	code, err := e.Surface.ReadText(ctx, l.BookingCode)
	if err != nil {
		return reservation.Outcome{}, fmt.Errorf("read booking code: %w", err)
	}
	seat, err := ParseSeat(text)
	if err != nil {
		return reservation.Outcome{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return reservation.Outcome{}, fmt.Errorf("reservation made but booking code unreadable (%s)", seat)
	}
	return reservation.Success(seat, code), nil
}

func (e *Executor) zoneLocator(z reservation.SeatZone) string {
	switch z {
	case reservation.SeatZoneAisle:
		return e.Locators.SeatZoneAisle
	case reservation.SeatZoneWindow:
		return e.Locators.SeatZoneWindow
	}
	return ""
}

func (e *Executor) awaitOverlay(ctx context.Context) error {
	err := poll.Until(ctx, e.Settings.OverlayRounds, e.Settings.PollInterval, func(ctx context.Context) (bool, error) {
		busy, err := e.Surface.IsVisible(ctx, e.Locators.BusyOverlay)
		return !busy, err
	})
	if errors.Is(err, poll.ErrTimeout) {
		return fmt.Errorf("%w after %d rounds", errOverlayStuck, e.Settings.OverlayRounds)
	}
	return err
}

// awaitChallenge blocks until a presented challenge is solved. A timeout is an
// error, never a silent pass.
func awaitChallenge(ctx context.Context, solver ChallengeSolver, timeout time.Duration) error {
	if solver == nil {
		return nil
	}
	present, err := solver.Present(ctx)
	if err != nil {
		return fmt.Errorf("detect challenge: %w", err)
	}
	if !present {
		return nil
	}
	solved, err := solver.Solve(ctx, timeout)
	if err != nil {
		return fmt.Errorf("solve challenge: %w", err)
	}
	if !solved {
		return fmt.Errorf("%w (%s)", errChallengeUnsolved, timeout)
	}
	return nil
}

var digits = regexp.MustCompile(`\d+`)

// ParseSeat extracts car and seat number from the surface's seat text. The
// text must contain exactly two numeric tokens.
func ParseSeat(text string) (reservation.Seat, error) {
	tokens := digits.FindAllString(text, -1)
	if len(tokens) != 2 {
		return reservation.Seat{}, fmt.Errorf("reservation made but seat unreadable: %q has %d numeric tokens", text, len(tokens))
	}
	n, err := strconv.Atoi(tokens[1])
	if err != nil {
		return reservation.Seat{}, fmt.Errorf("parse seat number %q: %w", tokens[1], err)
	}
	return reservation.Seat{Car: reservation.CanonicalCar(tokens[0]), Number: n}, nil
}
