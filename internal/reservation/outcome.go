package reservation

import "fmt"

// OutcomeKind is the executor's verdict on one attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeNoSeats
	OutcomeTransient
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNoSeats:
		return "no_seats"
	case OutcomeTransient:
		return "transient_error"
	}
	return "unknown"
}

// Outcome is exactly one of Success{Seat, ReservationID}, NoSeats, or Transient{Err}.
type Outcome struct {
	Kind          OutcomeKind
	Seat          Seat
	ReservationID string
	Err           error
}

func Success(seat Seat, reservationID string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Seat: seat, ReservationID: reservationID}
}

func NoSeats() Outcome { return Outcome{Kind: OutcomeNoSeats} }

func Transient(err error) Outcome {
	if err == nil {
		err = fmt.Errorf("unspecified transient error")
	}
	return Outcome{Kind: OutcomeTransient, Err: err}
}

type ResultKind int

const (
	ResultAcquired ResultKind = iota + 1
	ResultNoSeats
	ResultRetriesExhausted
	ResultFatal
)

func (k ResultKind) String() string {
	switch k {
	case ResultAcquired:
		return "acquired"
	case ResultNoSeats:
		return "no_seats"
	case ResultRetriesExhausted:
		return "retries_exhausted"
	case ResultFatal:
		return "fatal_error"
	}
	return "unknown"
}

// Result is the terminal outcome of a controller run.
type Result struct {
	Kind ResultKind
	Seat Seat
	Err  error

	// Attempts counts executor calls made during the run.
	Attempts int
}

func Acquired(seat Seat) Result { return Result{Kind: ResultAcquired, Seat: seat} }

func Fatal(err error) Result { return Result{Kind: ResultFatal, Err: err} }

// ExitCode maps a result to the process exit status.
func (r Result) ExitCode() int {
	switch r.Kind {
	case ResultAcquired:
		return 0
	case ResultNoSeats:
		return 2
	default:
		return 1
	}
}

func (r Result) String() string {
	switch r.Kind {
	case ResultAcquired:
		return fmt.Sprintf("acquired %s", r.Seat)
	case ResultFatal:
		return fmt.Sprintf("fatal error: %v", r.Err)
	case ResultRetriesExhausted:
		if r.Err != nil {
			return fmt.Sprintf("retries exhausted: %v", r.Err)
		}
	}
	return r.Kind.String()
}
