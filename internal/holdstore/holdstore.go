// Package holdstore keeps a signed and encrypted checkpoint of the reservation
// a run currently holds, so a later run can release it after a crash.
package holdstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/securecookie"

	"github.com/example/tra-booker/internal/reservation"
)

const name = "trabook_hold"

var ErrNoHold = errors.New("no hold checkpoint")

type FileStore struct {
	path string
	sc   *securecookie.SecureCookie
}

// New takes a 32 or 64 byte hash key and a 16, 24 or 32 byte block key.
func New(path string, hashKey, blockKey []byte) *FileStore {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(0)
	return &FileStore{path: path, sc: sc}
}

func (s *FileStore) Save(h reservation.Handle) error {
	value := map[string]string{
		"rid":     h.ReservationID,
		"account": h.Account,
		"car":     h.Seat.Car,
		"seat":    strconv.Itoa(h.Seat.Number),
	}
	encoded, err := s.sc.Encode(name, value)
	if err != nil {
		return fmt.Errorf("encode hold: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".hold-*")
	if err != nil {
		return fmt.Errorf("write hold: %w", err)
	}
	if _, err := tmp.WriteString(encoded); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write hold: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write hold: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Load reports false when no checkpoint exists.
func (s *FileStore) Load() (reservation.Handle, bool, error) {
	h, err := s.read()
	if errors.Is(err, ErrNoHold) {
		return reservation.Handle{}, false, nil
	}
	if err != nil {
		return reservation.Handle{}, false, err
	}
	return h, true, nil
}

func (s *FileStore) read() (reservation.Handle, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return reservation.Handle{}, ErrNoHold
	}
	if err != nil {
		return reservation.Handle{}, fmt.Errorf("read hold: %w", err)
	}
	value := map[string]string{}
	if err := s.sc.Decode(name, strings.TrimSpace(string(b)), &value); err != nil {
		return reservation.Handle{}, fmt.Errorf("decode hold %s: %w", s.path, err)
	}
	if value["rid"] == "" {
		return reservation.Handle{}, ErrNoHold
	}
	seat, _ := strconv.Atoi(value["seat"])
	return reservation.Handle{
		ReservationID: value["rid"],
		Account:       value["account"],
		Seat:          reservation.Seat{Car: value["car"], Number: seat},
	}, nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear hold: %w", err)
	}
	return nil
}
