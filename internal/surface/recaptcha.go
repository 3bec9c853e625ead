package surface

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/example/tra-booker/internal/poll"
)

const (
	anchorFrame    = `iframe[title="reCAPTCHA"], iframe[title="google recaptcha"]`
	challengeFrame = `iframe[title="recaptcha challenge expires in two minutes"]`
	anchorBox      = `#recaptcha-anchor`
	helperButton   = `.help-button-holder`
	tokenJS        = `(() => { const t = document.querySelector('#g-recaptcha-response'); return !!t && t.value.length > 0; })()`
)

// Recaptcha ticks the reCAPTCHA checkbox and, when an image challenge opens,
// hands it to the helper extension's solve button. It reports success once the
// page holds a response token.
type Recaptcha struct {
	c        *Chrome
	Interval time.Duration
}

func NewRecaptcha(c *Chrome) *Recaptcha { return &Recaptcha{c: c, Interval: time.Second} }

func (r *Recaptcha) Present(ctx context.Context) (bool, error) {
	return r.c.IsVisible(ctx, anchorFrame)
}

func (r *Recaptcha) Solve(ctx context.Context, timeout time.Duration) (bool, error) {
	log := zerolog.Ctx(ctx)
	if err := r.clickInFrame(ctx, anchorFrame, anchorBox); err != nil {
		return false, fmt.Errorf("tick challenge box: %w", err)
	}
	interval := r.Interval
	if interval <= 0 {
		interval = time.Second
	}
	rounds := int(timeout / interval)
	helped := false
	err := poll.Until(ctx, rounds, interval, func(ctx context.Context) (bool, error) {
		var solved bool
		if err := r.c.run(ctx, r.c.timeout, chromedp.Evaluate(tokenJS, &solved)); err != nil {
			return false, err
		}
		if solved || helped {
			return solved, nil
		}
		open, err := r.c.IsVisible(ctx, challengeFrame)
		if err != nil || !open {
			return false, err
		}
		if err := r.clickInFrame(ctx, challengeFrame, helperButton); err != nil {
			log.Debug().Err(err).Msg("challenge helper not ready")
			return false, nil
		}
		log.Info().Msg("image challenge handed to solver extension")
		helped = true
		return false, nil
	})
	if errors.Is(err, poll.ErrTimeout) {
		return false, nil
	}
	return err == nil, err
}

func (r *Recaptcha) clickInFrame(ctx context.Context, frame, sel string) error {
	var frames []*cdp.Node
	if err := r.c.run(ctx, r.c.timeout, chromedp.Nodes(frame, &frames, chromedp.ByQuery)); err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("frame %s not found", frame)
	}
	return r.c.run(ctx, r.c.timeout,
		chromedp.Click(sel, chromedp.ByQuery, chromedp.FromNode(frames[0]), chromedp.NodeVisible),
	)
}
