package cmd

import (
	"github.com/spf13/cobra"
)

func newBookCmd() *cobra.Command {
	var rf requestFlags

	c := &cobra.Command{
		Use:   "book",
		Short: "Book, check the assigned seat, cancel and retry until it satisfies the request",
		Long: `Runs one acquisition: reserve a seat on the requested train, keep it when
the car and seat number satisfy the request, otherwise cancel and try again.

Exit status is 0 when a seat was acquired, 2 when the train has no seats left
and 1 on any other failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			req, err := rf.build(cmd, cfg)
			if err != nil {
				return err
			}
			r, err := newRunner(ctx, cfg, req)
			if err != nil {
				return err
			}
			defer r.Close()
			return resultError(r.once(ctx))
		},
	}
	rf.register(c)
	return c
}
