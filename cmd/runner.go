package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/tra-booker/internal/booking"
	"github.com/example/tra-booker/internal/config"
	"github.com/example/tra-booker/internal/crypto"
	"github.com/example/tra-booker/internal/history"
	"github.com/example/tra-booker/internal/holdstore"
	"github.com/example/tra-booker/internal/lock"
	"github.com/example/tra-booker/internal/reservation"
	"github.com/example/tra-booker/internal/surface"
)

// runner owns everything one or more controller runs share: the session
// dialer, the journal, the hold checkpoint and the account lock.
type runner struct {
	cfg    config.Config
	req    reservation.Request
	dialer booking.Dialer

	store  history.Store // nil disables the journal
	sealer history.Sealer
	holds  booking.HoldStore
	locker *lock.Locker
}

func newRunner(ctx context.Context, cfg config.Config, req reservation.Request) (*runner, error) {
	log := zerolog.Ctx(ctx)

	loc, err := booking.LoadLocators(cfg.LocatorsFile)
	if err != nil {
		return nil, err
	}
	r := &runner{
		cfg: cfg,
		req: req,
		dialer: &booking.SurfaceDialer{
			Launch: surface.Launcher(surface.Options{
				Headless:      cfg.ChromeHeadless,
				ExtensionDir:  cfg.ChromeExtensionDir,
				ExecPath:      cfg.ChromePath,
				ActionTimeout: cfg.ActionTimeout,
			}),
			Locators: loc,
			Settings: sessionSettings(cfg),
			Credentials: booking.Credentials{Account: req.Account, Password: cfg.Password},
		},
	}

	if cfg.HoldEnabled() {
		r.holds = holdstore.New(cfg.HoldFile, cfg.HoldHashKey, cfg.HoldBlockKey)
	}
	if len(cfg.CredEncKey) > 0 {
		aead, err := crypto.New(cfg.CredEncKey)
		if err != nil {
			return nil, err
		}
		r.sealer = aead
	}
	if cfg.RedisURL != "" {
		if r.locker, err = lock.Dial(ctx, cfg.RedisURL, cfg.LockTTL); err != nil {
			return nil, err
		}
	}
	if r.store, err = openStore(ctx, cfg); err != nil {
		log.Warn().Err(err).Msg("run journal unavailable; continuing without it")
		r.store = nil
	}
	return r, nil
}

// sessionSettings takes each wait bound from cfg, falling back to the
// executor defaults for zero values.
func sessionSettings(cfg config.Config) booking.Settings {
	set := booking.DefaultSettings()
	if cfg.ChallengeTimeout > 0 {
		set.ChallengeTimeout = cfg.ChallengeTimeout
	}
	if cfg.OverlayRounds > 0 {
		set.OverlayRounds = cfg.OverlayRounds
	}
	if cfg.PollInterval > 0 {
		set.PollInterval = cfg.PollInterval
	}
	if cfg.ActionTimeout > 0 {
		set.ActionTimeout = cfg.ActionTimeout
	}
	return set
}

func openStore(ctx context.Context, cfg config.Config) (history.Store, error) {
	if cfg.DatabaseURL != "" {
		return history.OpenPostgres(ctx, cfg.DatabaseURL)
	}
	return history.OpenSQLite(cfg.DBPath)
}

func (r *runner) Close() {
	if r.store != nil {
		_ = r.store.Close()
	}
	if r.locker != nil {
		_ = r.locker.Close()
	}
}

// once runs a fresh controller to completion under the account lock.
func (r *runner) once(ctx context.Context) reservation.Result {
	log := zerolog.Ctx(ctx)

	if r.locker != nil {
		lease, err := r.locker.Acquire(ctx, r.req.Account)
		if err != nil {
			if errors.Is(err, lock.ErrHeld) {
				err = fmt.Errorf("another run holds this account: %w", err)
			}
			log.Error().Err(err).Msg("account lock")
			return reservation.Fatal(err)
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("release account lock")
			}
		}()
		stop := lease.KeepAlive(ctx, func(err error) {
			log.Warn().Err(err).Msg("refresh account lock")
		})
		defer stop()
	}

	id := uuid.NewString()
	c := &booking.Controller{
		Dialer:     r.dialer,
		Request:    r.req,
		MaxRetries: r.cfg.MaxRetries,
		RetryDelay: r.cfg.RetryDelay,
		RunID:      id,
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = -1
	}
	if r.holds != nil {
		c.Holds = r.holds
	}

	started := r.startRun(ctx, id)
	if started {
		c.Journal = r.store
	}
	res := c.Run(ctx)
	if started {
		if err := r.store.FinishRun(context.WithoutCancel(ctx), id, res, time.Now()); err != nil {
			log.Warn().Err(err).Str("run_id", id).Msg("journal: finish run")
		}
	}
	return res
}

func (r *runner) startRun(ctx context.Context, id string) bool {
	if r.store == nil {
		return false
	}
	log := zerolog.Ctx(ctx)
	run, err := history.NewRun(id, r.req, r.sealer, time.Now())
	if err == nil {
		err = r.store.StartRun(ctx, run)
	}
	if err != nil {
		log.Warn().Err(err).Str("run_id", id).Msg("journal: start run")
		return false
	}
	return true
}
