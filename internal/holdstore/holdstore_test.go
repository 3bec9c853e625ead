package holdstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tra-booker/internal/reservation"
)

func newStore(t *testing.T) (*FileStore, string) {
	path := filepath.Join(t.TempDir(), "hold")
	return New(path, bytes.Repeat([]byte{1}, 32), bytes.Repeat([]byte{2}, 32)), path
}

func TestSaveLoadClear(t *testing.T) {
	s, path := newStore(t)

	_, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	h := reservation.Handle{ReservationID: "0123456", Account: "A123456789", Seat: reservation.Seat{Car: "3", Number: 15}}
	require.NoError(t, s.Save(h))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "A123456789")

	got, ok, err := s.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, h, got)

	require.NoError(t, s.Clear())
	_, ok, err = s.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, s.Clear(), "clearing twice is fine")
}

func TestSaveOverwrites(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.Save(reservation.Handle{ReservationID: "1", Account: "A"}))
	require.NoError(t, s.Save(reservation.Handle{ReservationID: "2", Account: "A"}))
	got, _, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "2", got.ReservationID)
}

func TestLoadRejectsForeignKeys(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, s.Save(reservation.Handle{ReservationID: "1", Account: "A"}))

	other := New(path, bytes.Repeat([]byte{9}, 32), bytes.Repeat([]byte{2}, 32))
	_, _, err := other.Load()
	assert.Error(t, err)

	_, err = other.read()
	assert.NotErrorIs(t, err, ErrNoHold)
}
