package reservation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() Request {
	return Request{
		Account:     "A123456789",
		Origin:      Station{ID: "1000", Name: "臺北"},
		Destination: Station{ID: "4400", Name: "高雄"},
		Date:        "20250615",
		TrainNo:     "123",
	}
}

func TestRequestValidate(t *testing.T) {
	require.NoError(t, validRequest().Validate())

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing account", func(r *Request) { r.Account = " " }},
		{"missing origin", func(r *Request) { r.Origin = Station{} }},
		{"same stations", func(r *Request) { r.Destination = r.Origin }},
		{"short date", func(r *Request) { r.Date = "0615" }},
		{"missing train", func(r *Request) { r.TrainNo = "" }},
		{"non numeric car", func(r *Request) { r.Criteria.Car = "A" }},
		{"inverted bounds", func(r *Request) { r.Criteria.SeatLow, r.Criteria.SeatHigh = intp(30), intp(10) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest))
		})
	}
}

func TestRequestFormValues(t *testing.T) {
	r := validRequest()
	assert.Equal(t, "2025/06/15", r.FormDate())
	assert.Equal(t, "1000-臺北", r.Origin.FormValue())
	assert.Equal(t, "1000", Station{ID: "1000"}.FormValue())
}

func TestParseSeatZone(t *testing.T) {
	z, err := ParseSeatZone("Window")
	require.NoError(t, err)
	assert.Equal(t, SeatZoneWindow, z)

	z, err = ParseSeatZone("")
	require.NoError(t, err)
	assert.Equal(t, SeatZoneNone, z)

	_, err = ParseSeatZone("middle")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestParseBoundMode(t *testing.T) {
	m, err := ParseBoundMode("inclusive")
	require.NoError(t, err)
	assert.Equal(t, BoundsInclusive, m)

	m, err = ParseBoundMode("")
	require.NoError(t, err)
	assert.Equal(t, BoundsExclusive, m)

	_, err = ParseBoundMode("open")
	assert.Error(t, err)
}

func TestResultExitCode(t *testing.T) {
	assert.Equal(t, 0, Acquired(Seat{Car: "5", Number: 15}).ExitCode())
	assert.Equal(t, 2, Result{Kind: ResultNoSeats}.ExitCode())
	assert.Equal(t, 1, Result{Kind: ResultRetriesExhausted}.ExitCode())
	assert.Equal(t, 1, Fatal(errors.New("boom")).ExitCode())
}

func TestTransientNeverNilError(t *testing.T) {
	o := Transient(nil)
	assert.Equal(t, OutcomeTransient, o.Kind)
	assert.Error(t, o.Err)
}
