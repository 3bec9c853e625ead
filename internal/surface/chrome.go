// Package surface implements the booking surface on a Chrome instance driven
// over the DevTools protocol.
package surface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/example/tra-booker/internal/booking"
)

type Options struct {
	Headless bool
	// ExtensionDir is an unpacked extension loaded into the browser, typically
	// a challenge-solving helper.
	ExtensionDir string
	ExecPath     string
	// ActionTimeout bounds every single browser action.
	ActionTimeout time.Duration
}

// Chrome is one browser with one tab. It is not safe for concurrent use.
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
}

// Launch starts the browser. Its lifetime is detached from ctx so an
// interrupted run can still release a held seat; Close ends it.
func Launch(ctx context.Context, opt Options) (*Chrome, error) {
	log := zerolog.Ctx(ctx)
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opt.Headless),
		chromedp.Flag("disable-site-isolation-trials", true),
		chromedp.WindowSize(1280, 900),
	)
	if opt.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(opt.ExecPath))
	}
	if opt.ExtensionDir != "" {
		opts = append(opts,
			chromedp.Flag("disable-extensions", false),
			chromedp.Flag("disable-extensions-except", opt.ExtensionDir),
			chromedp.Flag("load-extension", opt.ExtensionDir),
		)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	bctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) { log.Debug().Msgf(format, args...) }),
		chromedp.WithErrorf(func(format string, args ...any) { log.Debug().Msgf("cdp: "+format, args...) }),
	)
	c := &Chrome{ctx: bctx, cancel: cancel, allocCancel: allocCancel, timeout: opt.ActionTimeout}
	if c.timeout <= 0 {
		c.timeout = 15 * time.Second
	}
	// an empty Run starts the browser process
	if err := chromedp.Run(bctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	log.Debug().Bool("headless", opt.Headless).Str("extension", opt.ExtensionDir).Msg("chrome started")
	return c, nil
}

// Launcher adapts Launch to booking.SurfaceDialer.
func Launcher(opt Options) func(ctx context.Context) (booking.Surface, booking.ChallengeSolver, error) {
	return func(ctx context.Context) (booking.Surface, booking.ChallengeSolver, error) {
		c, err := Launch(ctx, opt)
		if err != nil {
			return nil, nil, err
		}
		return c, NewRecaptcha(c), nil
	}
}

// run executes actions on the browser, bounded by d and by the caller's ctx.
func (c *Chrome) run(ctx context.Context, d time.Duration, actions ...chromedp.Action) error {
	actx, cancel := context.WithTimeout(c.ctx, d)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(actx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, c.timeout, chromedp.Navigate(url))
}

func (c *Chrome) Fill(ctx context.Context, locator, value string) error {
	return c.run(ctx, c.timeout,
		chromedp.WaitVisible(locator, chromedp.ByQuery),
		chromedp.Clear(locator, chromedp.ByQuery),
		chromedp.SendKeys(locator, value, chromedp.ByQuery),
	)
}

func (c *Chrome) Click(ctx context.Context, locator string) error {
	return c.run(ctx, c.timeout, chromedp.Click(locator, chromedp.ByQuery, chromedp.NodeVisible))
}

const visibleJS = `(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	const st = window.getComputedStyle(el);
	return st.display !== 'none' && st.visibility !== 'hidden' && el.getClientRects().length > 0;
})()`

// IsVisible checks the element without waiting for it.
func (c *Chrome) IsVisible(ctx context.Context, locator string) (bool, error) {
	sel, err := json.Marshal(locator)
	if err != nil {
		return false, err
	}
	var visible bool
	if err := c.run(ctx, c.timeout, chromedp.Evaluate(fmt.Sprintf(visibleJS, sel), &visible)); err != nil {
		return false, fmt.Errorf("visibility of %s: %w", locator, err)
	}
	return visible, nil
}

func (c *Chrome) ReadText(ctx context.Context, locator string) (string, error) {
	var text string
	if err := c.run(ctx, c.timeout, chromedp.Text(locator, &text, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return "", err
	}
	return text, nil
}

// WaitFor reports false, not an error, when timeout elapses first.
func (c *Chrome) WaitFor(ctx context.Context, locator string, timeout time.Duration) (bool, error) {
	err := c.run(ctx, timeout, chromedp.WaitVisible(locator, chromedp.ByQuery))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return false, nil
	}
	return false, err
}

func (c *Chrome) Close() error {
	err := chromedp.Cancel(c.ctx)
	c.cancel()
	c.allocCancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
