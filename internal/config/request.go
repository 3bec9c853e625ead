package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/tra-booker/internal/reservation"
	"github.com/example/tra-booker/internal/timetable"
)

// RequestFile is the YAML form of a booking request. Every field can also be
// set by a command-line flag.
//
//	origin: 臺北
//	destination: 高雄
//	date: "0615"
//	train: "123"
//	zone: window
//	car: "5"
//	seat_low: 10
//	seat_high: 20
//	bounds: exclusive
type RequestFile struct {
	Account     string `yaml:"account"`
	Origin      string `yaml:"origin"`
	Destination string `yaml:"destination"`
	Date        string `yaml:"date"`
	Train       string `yaml:"train"`
	Zone        string `yaml:"zone"`
	Car         string `yaml:"car"`
	SeatLow     *int   `yaml:"seat_low"`
	SeatHigh    *int   `yaml:"seat_high"`
	Bounds      string `yaml:"bounds"`
}

func LoadRequestFile(path string) (RequestFile, error) {
	var f RequestFile
	b, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read request: %w", err)
	}
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return f, fmt.Errorf("parse request %s: %w", path, err)
	}
	return f, nil
}

type StationResolver interface {
	Resolve(nameOrCode string) (reservation.Station, error)
}

// Build resolves stations, normalizes the date and validates the result.
// cfg supplies the account and bound mode when the file leaves them empty.
func (f RequestFile) Build(st StationResolver, cfg Config, now time.Time) (reservation.Request, error) {
	req := reservation.Request{
		Account: f.Account,
		TrainNo: strings.TrimSpace(f.Train),
		Criteria: reservation.Criteria{
			Car:      reservation.CanonicalCar(f.Car),
			SeatLow:  f.SeatLow,
			SeatHigh: f.SeatHigh,
			Bounds:   cfg.SeatBounds,
		},
	}
	if req.Account == "" {
		req.Account = cfg.Account
	}

	var err error
	if req.Origin, err = st.Resolve(f.Origin); err != nil {
		return req, fmt.Errorf("%w: origin: %v", reservation.ErrInvalidRequest, err)
	}
	if req.Destination, err = st.Resolve(f.Destination); err != nil {
		return req, fmt.Errorf("%w: destination: %v", reservation.ErrInvalidRequest, err)
	}
	if req.Date, err = timetable.NormalizeDateAt(f.Date, now); err != nil {
		return req, fmt.Errorf("%w: %v", reservation.ErrInvalidRequest, err)
	}
	if req.Zone, err = reservation.ParseSeatZone(f.Zone); err != nil {
		return req, err
	}
	if f.Bounds != "" {
		if req.Criteria.Bounds, err = reservation.ParseBoundMode(f.Bounds); err != nil {
			return req, err
		}
	}
	return req, req.Validate()
}
