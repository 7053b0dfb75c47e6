package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/francescopitzalis1989/Renthubber/models"
)

func invoiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Commission invoices",
	}
	cmd.AddCommand(invoiceGenerateCmd())
	return cmd
}

func invoiceGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <hubber-id> <YYYY-MM>",
		Short: "Issue a hubber's invoice for a month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := models.ParsePeriod(args[1])
			if err != nil {
				return err
			}
			e, s, err := openEngine()
			if err != nil {
				return err
			}
			defer s.Close()

			inv, created, err := e.Invoices.Generate(args[0], period)
			if err != nil {
				return err
			}
			state := "issued"
			if !created {
				state = "already issued"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s, %d bookings, amount %s\n",
				inv.Number, state, inv.Period, len(inv.BookingIDs), inv.Amount)
			return nil
		},
	}
}
