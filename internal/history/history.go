// Package history journals controller runs and their attempts, in SQLite by
// default or Postgres when a database URL is configured.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/tra-booker/internal/reservation"
)

var ErrUnknownRun = errors.New("unknown run")

type Run struct {
	ID          string
	Account     string // sealed or masked, never plaintext
	Origin      string
	Destination string
	Date        string
	TrainNo     string
	Criteria    string

	StartedAt  time.Time
	FinishedAt *time.Time
	Result     string
	Seat       string
	Attempts   int
	Error      string
}

type Attempt struct {
	RunID         string
	Seq           int
	Outcome       string
	Car           string
	Seat          int
	ReservationID string
	Accepted      bool
	Error         string
	At            time.Time
}

type Store interface {
	StartRun(ctx context.Context, r Run) error
	RecordAttempt(ctx context.Context, a Attempt) error
	FinishRun(ctx context.Context, runID string, res reservation.Result, at time.Time) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// Sealer encrypts account identifiers before they are stored.
type Sealer interface {
	EncryptToString(plaintext string) (string, error)
}

// NewRun describes req for the journal. With a nil sealer the account is masked.
func NewRun(id string, req reservation.Request, sealer Sealer, at time.Time) (Run, error) {
	account := MaskAccount(req.Account)
	if sealer != nil {
		sealed, err := sealer.EncryptToString(req.Account)
		if err != nil {
			return Run{}, fmt.Errorf("seal account: %w", err)
		}
		account = sealed
	}
	return Run{
		ID:          id,
		Account:     account,
		Origin:      req.Origin.String(),
		Destination: req.Destination.String(),
		Date:        req.Date,
		TrainNo:     req.TrainNo,
		Criteria:    DescribeCriteria(req.Criteria),
		StartedAt:   at.UTC(),
	}, nil
}

// MaskAccount keeps the first and last two characters.
func MaskAccount(account string) string {
	r := []rune(account)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:2]) + strings.Repeat("*", len(r)-4) + string(r[len(r)-2:])
}

func DescribeCriteria(c reservation.Criteria) string {
	var parts []string
	if c.Car != "" {
		parts = append(parts, "car="+c.Car)
	}
	if c.SeatLow != nil || c.SeatHigh != nil {
		lo, hi := "-inf", "+inf"
		if c.SeatLow != nil {
			lo = fmt.Sprint(*c.SeatLow)
		}
		if c.SeatHigh != nil {
			hi = fmt.Sprint(*c.SeatHigh)
		}
		parts = append(parts, fmt.Sprintf("seat=%s..%s(%s)", lo, hi, c.Bounds))
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, " ")
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func seatText(res reservation.Result) string {
	if res.Kind != reservation.ResultAcquired {
		return ""
	}
	return fmt.Sprintf("%s/%d", res.Seat.Car, res.Seat.Number)
}
