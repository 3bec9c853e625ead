package timetable

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/tra-booker/internal/reservation"
)

const DefaultNearby = 5

type Source interface {
	StationDepartures(ctx context.Context, stationID, date string) ([]Train, error)
	ODDepartures(ctx context.Context, origin, dest, date string) ([]Train, error)
}

type StationResolver interface {
	Resolve(nameOrCode string) (reservation.Station, error)
}

// Lookup prints the departures nearest a requested time.
type Lookup struct {
	Source   Source
	Stations StationResolver
	Nearby   int
	Now      func() time.Time
}

// Input is the user's raw lookup: partial date and time, station names.
type Input struct {
	Date        string
	Time        string
	Origin      string
	Destination string
}

func (l *Lookup) Run(ctx context.Context, w io.Writer, in Input) error {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	date, err := NormalizeDateAt(in.Date, now())
	if err != nil {
		return err
	}
	tm, err := NormalizeTime(in.Time)
	if err != nil {
		return err
	}
	origin, err := l.Stations.Resolve(in.Origin)
	if err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	var dest reservation.Station
	if in.Destination != "" {
		if dest, err = l.Stations.Resolve(in.Destination); err != nil {
			return fmt.Errorf("destination: %w", err)
		}
	}

	zerolog.Ctx(ctx).Debug().Str("origin", origin.ID).Str("destination", dest.ID).Str("date", date).Msg("timetable lookup")
	var trains []Train
	if dest.ID != "" {
		trains, err = l.Source.ODDepartures(ctx, origin.ID, dest.ID, date)
	} else {
		trains, err = l.Source.StationDepartures(ctx, origin.ID, date)
	}
	if err != nil {
		return fmt.Errorf("fetch timetable: %w", err)
	}

	n := l.Nearby
	if n <= 0 {
		n = DefaultNearby
	}
	window, closest, err := SelectNearby(trains, tm, n)
	if err != nil {
		return err
	}
	if len(window) == 0 {
		fmt.Fprintln(w, "no trains found")
		return nil
	}
	PrintTable(w, Query{Date: date, Time: tm, Origin: origin.Name, Destination: dest.Name}, window, closest)
	return nil
}
