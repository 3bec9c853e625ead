package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tra-booker/internal/reservation"
)

func intp(v int) *int { return &v }

func sampleRequest() reservation.Request {
	return reservation.Request{
		Account:     "A123456789",
		Origin:      reservation.Station{ID: "1000", Name: "臺北"},
		Destination: reservation.Station{ID: "4400", Name: "高雄"},
		Date:        "20250615",
		TrainNo:     "123",
		Criteria:    reservation.Criteria{Car: "5", SeatLow: intp(10), SeatHigh: intp(20)},
	}
}

type prefixSealer struct{}

func (prefixSealer) EncryptToString(s string) (string, error) { return "sealed:" + s, nil }

type failingSealer struct{}

func (failingSealer) EncryptToString(string) (string, error) { return "", errors.New("no key") }

func TestNewRun(t *testing.T) {
	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.FixedZone("CST", 8*3600))
	r, err := NewRun("run-1", sampleRequest(), nil, at)
	require.NoError(t, err)
	assert.Equal(t, "A1******89", r.Account)
	assert.Equal(t, "臺北", r.Origin)
	assert.Equal(t, "car=5 seat=10..20(exclusive)", r.Criteria)
	assert.Equal(t, time.UTC, r.StartedAt.Location())

	r, err = NewRun("run-1", sampleRequest(), prefixSealer{}, at)
	require.NoError(t, err)
	assert.Equal(t, "sealed:A123456789", r.Account)

	_, err = NewRun("run-1", sampleRequest(), failingSealer{}, at)
	assert.Error(t, err)
}

func TestDescribeCriteria(t *testing.T) {
	assert.Equal(t, "any", DescribeCriteria(reservation.Criteria{}))
	assert.Equal(t, "seat=-inf..30(inclusive)",
		DescribeCriteria(reservation.Criteria{SeatHigh: intp(30), Bounds: reservation.BoundsInclusive}))
	assert.Equal(t, "****", MaskAccount("abcd"))
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	older, err := NewRun(uuid.NewString(), sampleRequest(), nil, start)
	require.NoError(t, err)
	require.NoError(t, s.StartRun(ctx, older))
	require.NoError(t, s.FinishRun(ctx, older.ID, reservation.Result{Kind: reservation.ResultNoSeats, Attempts: 1}, start.Add(time.Minute)))

	newer, err := NewRun(uuid.NewString(), sampleRequest(), nil, start.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, s.StartRun(ctx, newer))
	require.NoError(t, s.RecordAttempt(ctx, Attempt{RunID: newer.ID, Seq: 1, Outcome: "success", Car: "3", Seat: 15, ReservationID: "B1", At: start.Add(time.Hour)}))
	require.NoError(t, s.RecordAttempt(ctx, Attempt{RunID: newer.ID, Seq: 2, Outcome: "success", Car: "5", Seat: 15, ReservationID: "B2", Accepted: true, At: start.Add(time.Hour)}))
	res := reservation.Acquired(reservation.Seat{Car: "5", Number: 15})
	res.Attempts = 2
	require.NoError(t, s.FinishRun(ctx, newer.ID, res, start.Add(2*time.Hour)))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(runs), 2)

	byID := map[string]Run{}
	for _, r := range runs {
		byID[r.ID] = r
	}
	got := byID[newer.ID]
	assert.Equal(t, "acquired", got.Result)
	assert.Equal(t, "5/15", got.Seat)
	assert.Equal(t, 2, got.Attempts)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, got.FinishedAt.Equal(start.Add(2*time.Hour)))
	assert.Equal(t, "no_seats", byID[older.ID].Result)

	err = s.FinishRun(ctx, "missing", res, start)
	assert.ErrorIs(t, err, ErrUnknownRun)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "trabook.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)

	runs, err := s.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "acquired", runs[0].Result, "newest first")
}

func TestSQLiteStoreUnfinishedRun(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "trabook.db"))
	require.NoError(t, err)
	defer s.Close()

	r, err := NewRun("r1", sampleRequest(), nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.StartRun(context.Background(), r))
	runs, err := s.ListRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].FinishedAt)
	assert.Equal(t, "running", runs[0].Result)
}

// Needs a disposable database, e.g. POSTGRES_TEST_URL=postgres://localhost/trabook_test.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	s, err := OpenPostgres(context.Background(), url)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}
