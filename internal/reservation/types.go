package reservation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidRequest = errors.New("invalid booking request")

type SeatZone string

const (
	SeatZoneNone   SeatZone = ""
	SeatZoneAisle  SeatZone = "aisle"
	SeatZoneWindow SeatZone = "window"
)

func ParseSeatZone(s string) (SeatZone, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "any":
		return SeatZoneNone, nil
	case "aisle":
		return SeatZoneAisle, nil
	case "window":
		return SeatZoneWindow, nil
	}
	return SeatZoneNone, fmt.Errorf("%w: unknown seat zone %q (want none, aisle or window)", ErrInvalidRequest, s)
}

// BoundMode selects whether a seat equal to a bound is accepted.
type BoundMode int

const (
	BoundsExclusive BoundMode = iota
	BoundsInclusive
)

func ParseBoundMode(s string) (BoundMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exclusive":
		return BoundsExclusive, nil
	case "inclusive":
		return BoundsInclusive, nil
	}
	return BoundsExclusive, fmt.Errorf("%w: unknown bounds mode %q (want exclusive or inclusive)", ErrInvalidRequest, s)
}

func (m BoundMode) String() string {
	if m == BoundsInclusive {
		return "inclusive"
	}
	return "exclusive"
}

// Criteria is the traveler's acceptance policy. A zero Criteria accepts any seat.
type Criteria struct {
	// Car is empty when any car is acceptable.
	Car string

	// SeatLow and SeatHigh are optional; a nil bound leaves that side open.
	SeatLow  *int
	SeatHigh *int
	Bounds   BoundMode
}

type Station struct {
	ID   string
	Name string
}

// FormValue is the "<code>-<name>" form the booking surface's station inputs expect.
func (s Station) FormValue() string {
	if s.Name == "" {
		return s.ID
	}
	return s.ID + "-" + s.Name
}

func (s Station) String() string {
	if s.Name == "" {
		return s.ID
	}
	return s.Name
}

var eightDigits = regexp.MustCompile(`^\d{8}$`)

// Request is immutable once built; the controller only ever reads it.
type Request struct {
	Account     string
	Origin      Station
	Destination Station
	// Date is the canonical YYYYMMDD form.
	Date     string
	TrainNo  string
	Zone     SeatZone
	Criteria Criteria
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Account) == "" {
		return fmt.Errorf("%w: account required", ErrInvalidRequest)
	}
	if r.Origin.ID == "" || r.Destination.ID == "" {
		return fmt.Errorf("%w: origin and destination required", ErrInvalidRequest)
	}
	if r.Origin.ID == r.Destination.ID {
		return fmt.Errorf("%w: origin and destination must differ", ErrInvalidRequest)
	}
	if !eightDigits.MatchString(r.Date) {
		return fmt.Errorf("%w: date must be YYYYMMDD, got %q", ErrInvalidRequest, r.Date)
	}
	if strings.TrimSpace(r.TrainNo) == "" {
		return fmt.Errorf("%w: train number required", ErrInvalidRequest)
	}
	if r.Criteria.Car != "" {
		if _, err := strconv.Atoi(r.Criteria.Car); err != nil {
			return fmt.Errorf("%w: car must be numeric, got %q", ErrInvalidRequest, r.Criteria.Car)
		}
	}
	lo, hi := r.Criteria.SeatLow, r.Criteria.SeatHigh
	if lo != nil && hi != nil && *lo > *hi {
		return fmt.Errorf("%w: seat lower bound %d above upper bound %d", ErrInvalidRequest, *lo, *hi)
	}
	return nil
}

// FormDate renders Date as YYYY/MM/DD for the booking form.
func (r Request) FormDate() string {
	if len(r.Date) != 8 {
		return r.Date
	}
	return r.Date[:4] + "/" + r.Date[4:6] + "/" + r.Date[6:]
}

// Seat is an assigned car and seat number. Car is kept in canonical form (no leading zeros).
type Seat struct {
	Car    string
	Number int
}

func (s Seat) String() string { return fmt.Sprintf("car %s seat %d", s.Car, s.Number) }

// CanonicalCar strips leading zeros so "05" and "5" compare equal.
func CanonicalCar(car string) string {
	car = strings.TrimSpace(car)
	if n, err := strconv.Atoi(car); err == nil {
		return strconv.Itoa(n)
	}
	return car
}

// Handle is a held reservation. At most one is live per controller run.
type Handle struct {
	ReservationID string
	Account       string
	Seat          Seat
}
