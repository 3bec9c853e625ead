package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tra-booker/internal/booking"
	"github.com/example/tra-booker/internal/config"
	"github.com/example/tra-booker/internal/history"
	"github.com/example/tra-booker/internal/reservation"
)

type cannedSession struct {
	outcomes []reservation.Outcome
	canceled int
	closed   int
}

func (s *cannedSession) Attempt(context.Context, reservation.Request) reservation.Outcome {
	out := s.outcomes[0]
	if len(s.outcomes) > 1 {
		s.outcomes = s.outcomes[1:]
	}
	return out
}

func (s *cannedSession) Cancel(context.Context, reservation.Handle) error { s.canceled++; return nil }
func (s *cannedSession) Close() error                                    { s.closed++; return nil }

type cannedDialer struct{ sess *cannedSession }

func (d cannedDialer) Open(context.Context) (booking.Session, error) { return d.sess, nil }

func seatAt(n int) reservation.Outcome {
	return reservation.Success(reservation.Seat{Car: "5", Number: n}, fmt.Sprintf("B%03d", n))
}

func runnerRequest() reservation.Request {
	low, high := 10, 20
	return reservation.Request{
		Account:     "A123456789",
		Origin:      reservation.Station{ID: "1000", Name: "臺北"},
		Destination: reservation.Station{ID: "4400", Name: "高雄"},
		Date:        "20250615",
		TrainNo:     "123",
		Criteria:    reservation.Criteria{Car: "5", SeatLow: &low, SeatHigh: &high},
	}
}

func TestRunnerJournalsRun(t *testing.T) {
	store, err := history.OpenSQLite(filepath.Join(t.TempDir(), "trabook.db"))
	require.NoError(t, err)

	sess := &cannedSession{outcomes: []reservation.Outcome{seatAt(3), seatAt(15)}}
	r := &runner{
		cfg:    config.Config{MaxRetries: 5},
		req:    runnerRequest(),
		dialer: cannedDialer{sess},
		store:  store,
	}
	defer r.Close()

	res := r.once(context.Background())
	assert.Equal(t, reservation.ResultAcquired, res.Kind)
	assert.Equal(t, 1, sess.canceled)
	assert.Equal(t, 1, sess.closed)

	runs, err := store.ListRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "acquired", runs[0].Result)
	assert.Equal(t, "5/15", runs[0].Seat)
	assert.Equal(t, 2, runs[0].Attempts)
	assert.Equal(t, "A1******89", runs[0].Account)
}

func TestRunnerWithoutJournal(t *testing.T) {
	sess := &cannedSession{outcomes: []reservation.Outcome{reservation.NoSeats()}}
	r := &runner{cfg: config.Config{}, req: runnerRequest(), dialer: cannedDialer{sess}}
	defer r.Close()

	res := r.once(context.Background())
	assert.Equal(t, reservation.ResultNoSeats, res.Kind)
	assert.Equal(t, 2, exitCode(resultError(res)))
}

func TestSessionSettingsFallBackToDefaults(t *testing.T) {
	assert.Equal(t, booking.DefaultSettings(), sessionSettings(config.Config{}))

	set := sessionSettings(config.Config{OverlayRounds: 7, ActionTimeout: 3 * time.Second})
	assert.Equal(t, 7, set.OverlayRounds)
	assert.Equal(t, 3*time.Second, set.ActionTimeout)
	assert.Equal(t, booking.DefaultSettings().ChallengeTimeout, set.ChallengeTimeout)
	assert.Equal(t, booking.DefaultSettings().PollInterval, set.PollInterval)
}
