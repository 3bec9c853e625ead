package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/example/tra-booker/internal/config"
	"github.com/example/tra-booker/internal/reservation"
	"github.com/example/tra-booker/internal/stations"
)

// requestFlags are the request fields settable on the command line. A flag
// that was set wins over the --request file.
type requestFlags struct {
	path string
	f    config.RequestFile
	low  int
	high int
}

func (r *requestFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&r.path, "request", "", "YAML booking request file")
	fl.StringVar(&r.f.Account, "account", "", "national ID of the traveler (default TRA_ACCOUNT)")
	fl.StringVar(&r.f.Origin, "from", "", "origin station name or code")
	fl.StringVar(&r.f.Destination, "to", "", "destination station name or code")
	fl.StringVar(&r.f.Date, "date", "", "travel date: YYYYMMDD, MMDD or DD")
	fl.StringVar(&r.f.Train, "train", "", "train number")
	fl.StringVar(&r.f.Zone, "zone", "", "seat zone preference: none, aisle or window")
	fl.StringVar(&r.f.Car, "car", "", "required car number (empty accepts any car)")
	fl.IntVar(&r.low, "seat-low", 0, "seat number lower bound")
	fl.IntVar(&r.high, "seat-high", 0, "seat number upper bound")
	fl.StringVar(&r.f.Bounds, "bounds", "", "seat bound mode: exclusive or inclusive (default SEAT_BOUNDS)")
}

func (r *requestFlags) file(cmd *cobra.Command) (config.RequestFile, error) {
	var out config.RequestFile
	if r.path != "" {
		var err error
		if out, err = config.LoadRequestFile(r.path); err != nil {
			return out, err
		}
	}
	fl := cmd.Flags()
	str := func(name string, dst *string, v string) {
		if fl.Changed(name) {
			*dst = v
		}
	}
	str("account", &out.Account, r.f.Account)
	str("from", &out.Origin, r.f.Origin)
	str("to", &out.Destination, r.f.Destination)
	str("date", &out.Date, r.f.Date)
	str("train", &out.Train, r.f.Train)
	str("zone", &out.Zone, r.f.Zone)
	str("car", &out.Car, r.f.Car)
	str("bounds", &out.Bounds, r.f.Bounds)
	if fl.Changed("seat-low") {
		v := r.low
		out.SeatLow = &v
	}
	if fl.Changed("seat-high") {
		v := r.high
		out.SeatHigh = &v
	}
	return out, nil
}

func stationTable(cfg config.Config) (*stations.Table, error) {
	if cfg.StationsFile == "" {
		return stations.Default(), nil
	}
	return stations.Load(cfg.StationsFile)
}

func (r *requestFlags) build(cmd *cobra.Command, cfg config.Config) (reservation.Request, error) {
	f, err := r.file(cmd)
	if err != nil {
		return reservation.Request{}, err
	}
	st, err := stationTable(cfg)
	if err != nil {
		return reservation.Request{}, err
	}
	return f.Build(st, cfg, time.Now())
}
