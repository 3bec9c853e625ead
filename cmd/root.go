package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/example/tra-booker/internal/config"
	"github.com/example/tra-booker/internal/logging"
	"github.com/example/tra-booker/internal/reservation"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

var envFile = ".env"

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trabook",
		Short:         "Acquire a TRA train seat that satisfies a car and seat-number policy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newBookCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newLookupCmd())
	root.AddCommand(newHistoryCmd())

	return root
}

// exitError carries a process exit status other than 1.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// resultError turns a controller result into the command's error; nil for
// Acquired.
func resultError(res reservation.Result) error {
	code := res.ExitCode()
	if code == 0 {
		return nil
	}
	return &exitError{code: code, err: errors.New(res.String())}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// setup loads the configuration and attaches the logger to the command
// context.
func setup(cmd *cobra.Command) (config.Config, context.Context, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return cfg, nil, err
	}
	l, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return cfg, nil, err
	}
	logging.Install(l)
	return cfg, l.WithContext(cmd.Context()), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			zerolog.Ctx(ctx).Debug().Int("code", ee.code).Msg("exiting")
		} else {
			fmt.Fprintln(stderr, err)
		}
	}
	return exitCode(err)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
