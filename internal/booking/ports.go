package booking

import (
	"context"
	"time"

	"github.com/example/tra-booker/internal/history"
	"github.com/example/tra-booker/internal/reservation"
)

// Surface is the interactive booking front-end. Locators are opaque to the
// core; they come from Locators and are resolved by the implementation.
type Surface interface {
	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, locator, value string) error
	Click(ctx context.Context, locator string) error
	IsVisible(ctx context.Context, locator string) (bool, error)
	ReadText(ctx context.Context, locator string) (string, error)
	WaitFor(ctx context.Context, locator string, timeout time.Duration) (bool, error)
	Close() error
}

// ChallengeSolver resolves the surface's anti-bot challenge.
type ChallengeSolver interface {
	Present(ctx context.Context) (bool, error)
	// Solve blocks until the challenge is solved or timeout elapses.
	Solve(ctx context.Context, timeout time.Duration) (bool, error)
}

// Session is one exclusively owned booking-surface session.
type Session interface {
	Attempt(ctx context.Context, req reservation.Request) reservation.Outcome
	Cancel(ctx context.Context, h reservation.Handle) error
	Close() error
}

// Dialer opens a Session. A failed Open leaves nothing for the caller to release.
type Dialer interface {
	Open(ctx context.Context) (Session, error)
}

type Journal interface {
	RecordAttempt(ctx context.Context, a history.Attempt) error
}

// HoldStore persists the live reservation handle so a crashed run can release it later.
type HoldStore interface {
	Save(h reservation.Handle) error
	Load() (reservation.Handle, bool, error)
	Clear() error
}
