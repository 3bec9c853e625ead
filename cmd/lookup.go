package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/example/tra-booker/internal/timetable"
)

func newLookupCmd() *cobra.Command {
	var (
		in     timetable.Input
		nearby int
	)

	c := &cobra.Command{
		Use:   "lookup",
		Short: "List the departures nearest a time from the TDX timetable",
		Example: `  trabook lookup --from 臺北 --date 0615 --time 0830
  trabook lookup --from 1000 --to 高雄 --date 15 --time 17:00 --nearby 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			if cfg.TDXClientID == "" || cfg.TDXClientSecret == "" {
				return errors.New("TDX_CLIENT_ID and TDX_CLIENT_SECRET are required for lookup")
			}
			st, err := stationTable(cfg)
			if err != nil {
				return err
			}
			l := &timetable.Lookup{
				Source:   timetable.NewClient(ctx, cfg.TDXClientID, cfg.TDXClientSecret),
				Stations: st,
				Nearby:   nearby,
			}
			return l.Run(ctx, cmd.OutOrStdout(), in)
		},
	}
	c.Flags().StringVar(&in.Origin, "from", "", "departure station name or code")
	c.Flags().StringVar(&in.Destination, "to", "", "arrival station; adds arrival and duration columns")
	c.Flags().StringVar(&in.Date, "date", "", "travel date: YYYYMMDD, MMDD or DD")
	c.Flags().StringVar(&in.Time, "time", "", "target departure time: HHMM or HH:MM")
	c.Flags().IntVar(&nearby, "nearby", timetable.DefaultNearby, "departures to show on each side of the closest")
	_ = c.MarkFlagRequired("from")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("time")
	return c
}
