package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/tra-booker/internal/crypto"
	"github.com/example/tra-booker/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	c := &cobra.Command{
		Use:   "history",
		Short: "List recent booking runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(cfg.CredEncKey) > 0 {
				aead, err := crypto.New(cfg.CredEncKey)
				if err != nil {
					return err
				}
				unseal(runs, aead)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	c.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return c
}

type opener interface {
	DecryptString(ciphertext string) (string, error)
}

// unseal swaps sealed account ids for plaintext. Masked ids, and ids sealed
// under another key, are left as stored.
func unseal(runs []history.Run, o opener) {
	for i := range runs {
		if acc, err := o.DecryptString(runs[i].Account); err == nil {
			runs[i].Account = acc
		}
	}
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tACCOUNT\tTRAIN\tDATE\tROUTE\tCRITERIA\tRESULT\tSEAT\tATTEMPTS")
	for _, r := range runs {
		seat := r.Seat
		if seat == "" {
			seat = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s→%s\t%s\t%s\t%s\t%d\n",
			r.StartedAt.Local().Format(time.DateTime), r.Account, r.TrainNo, r.Date, r.Origin, r.Destination,
			r.Criteria, r.Result, seat, r.Attempts)
	}
	_ = tw.Flush()
}
