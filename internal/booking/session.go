package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/tra-booker/internal/poll"
	"github.com/example/tra-booker/internal/reservation"
)

// SurfaceSession binds an Executor and a Canceller to one surface.
type SurfaceSession struct {
	surface   Surface
	executor  *Executor
	canceller *Canceller
}

func NewSurfaceSession(s Surface, solver ChallengeSolver, loc Locators, set Settings) *SurfaceSession {
	return &SurfaceSession{
		surface:   s,
		executor:  &Executor{Surface: s, Solver: solver, Locators: loc, Settings: set},
		canceller: &Canceller{Surface: s, Locators: loc, StepTimeout: set.ActionTimeout},
	}
}

func (s *SurfaceSession) Attempt(ctx context.Context, req reservation.Request) reservation.Outcome {
	return s.executor.Attempt(ctx, req)
}

func (s *SurfaceSession) Cancel(ctx context.Context, h reservation.Handle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cancel panicked: %v", r)
		}
	}()
	return s.canceller.Cancel(ctx, h)
}

func (s *SurfaceSession) Close() error { return s.surface.Close() }

// Credentials enable a member login before the first attempt. An empty
// Password skips login.
type Credentials struct {
	Account  string
	Password string
}

// SurfaceDialer opens a browser-backed session through Launch and logs in when
// credentials are configured.
type SurfaceDialer struct {
	Launch      func(ctx context.Context) (Surface, ChallengeSolver, error)
	Locators    Locators
	Settings    Settings
	Credentials Credentials
}

func (d *SurfaceDialer) Open(ctx context.Context) (Session, error) {
	surface, solver, err := d.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch surface: %w", err)
	}
	if d.Credentials.Password != "" {
		if err := login(ctx, surface, solver, d.Locators, d.Settings, d.Credentials); err != nil {
			_ = surface.Close()
			return nil, fmt.Errorf("login: %w", err)
		}
	}
	return NewSurfaceSession(surface, solver, d.Locators, d.Settings), nil
}

func login(ctx context.Context, s Surface, solver ChallengeSolver, l Locators, set Settings, c Credentials) error {
	if err := s.Navigate(ctx, l.LoginURL); err != nil {
		return err
	}
	if err := s.Fill(ctx, l.LoginUsername, c.Account); err != nil {
		return err
	}
	if err := s.Fill(ctx, l.LoginPassword, c.Password); err != nil {
		return err
	}
	if err := awaitChallenge(ctx, solver, set.ChallengeTimeout); err != nil {
		return err
	}
	if err := s.Click(ctx, l.LoginSubmit); err != nil {
		return err
	}
	// the login form disappears once the member session is established
	err := poll.Until(ctx, set.OverlayRounds, set.PollInterval, func(ctx context.Context) (bool, error) {
		visible, err := s.IsVisible(ctx, l.LoginSubmit)
		return !visible, err
	})
	if errors.Is(err, poll.ErrTimeout) {
		return fmt.Errorf("login form still shown after submit")
	}
	return err
}
