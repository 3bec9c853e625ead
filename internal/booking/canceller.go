package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/example/tra-booker/internal/reservation"
)

// Canceller releases a held reservation through the surface's cancellation
// query. It is best effort: the result is reported, never verified.
type Canceller struct {
	Surface  Surface
	Locators Locators
	// StepTimeout bounds the wait for each dialog control to appear.
	StepTimeout time.Duration
}

func (c *Canceller) Cancel(ctx context.Context, h reservation.Handle) error {
	l := c.Locators
	if h.ReservationID == "" {
		return fmt.Errorf("cancel: empty booking code")
	}
	if err := c.Surface.Navigate(ctx, l.CancelURL); err != nil {
		return fmt.Errorf("open cancel page: %w", err)
	}
	if err := c.Surface.Fill(ctx, l.CancelAccount, h.Account); err != nil {
		return fmt.Errorf("fill account: %w", err)
	}
	if err := c.Surface.Fill(ctx, l.CancelBookingCode, h.ReservationID); err != nil {
		return fmt.Errorf("fill booking code: %w", err)
	}
	for _, step := range []string{l.CancelQuery, l.CancelButton, l.CancelConfirm} {
		ok, err := c.Surface.WaitFor(ctx, step, c.StepTimeout)
		if err != nil {
			return fmt.Errorf("wait for %s: %w", step, err)
		}
		if !ok {
			return fmt.Errorf("cancel control %s not shown", step)
		}
		if err := c.Surface.Click(ctx, step); err != nil {
			return fmt.Errorf("click %s: %w", step, err)
		}
	}
	return nil
}
