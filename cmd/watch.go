package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/example/tra-booker/internal/metrics"
	"github.com/example/tra-booker/internal/reservation"
	"github.com/example/tra-booker/internal/scheduler"
)

func newWatchCmd() *cobra.Command {
	var (
		rf          requestFlags
		interval    time.Duration
		maxCycles   int
		maxDuration time.Duration
	)

	c := &cobra.Command{
		Use:   "watch",
		Short: "Re-run book on an interval while the train reports no seats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			req, err := rf.build(cmd, cfg)
			if err != nil {
				return err
			}
			r, err := newRunner(ctx, cfg, req)
			if err != nil {
				return err
			}
			defer r.Close()

			if cfg.MetricsAddr != "" {
				stop := serveMetrics(ctx, cfg.MetricsAddr)
				defer stop()
			}

			s := &scheduler.Scheduler{
				Cycle: func(ctx context.Context, n int) reservation.Result {
					return r.once(ctx)
				},
				Interval:    interval,
				MaxCycles:   maxCycles,
				MaxDuration: maxDuration,
			}
			return resultError(s.Run(ctx))
		},
	}
	rf.register(c)
	c.Flags().DurationVar(&interval, "interval", time.Minute, "wait between cycles")
	c.Flags().IntVar(&maxCycles, "max-cycles", 0, "stop after this many cycles (0 = unbounded)")
	c.Flags().DurationVar(&maxDuration, "max-duration", 0, "stop after this much wall time (0 = unbounded)")
	return c
}

func serveMetrics(ctx context.Context, addr string) func() {
	log := zerolog.Ctx(ctx)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
