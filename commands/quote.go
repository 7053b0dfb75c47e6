package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/francescopitzalis1989/Renthubber/money"
)

func quoteCmd() *cobra.Command {
	var hostID string
	cmd := &cobra.Command{
		Use:   "quote <amount>",
		Short: "Preview fees for a booking total, e.g. quote 100.00",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := money.Parse(args[0])
			if err != nil {
				return err
			}
			e, s, err := openEngine()
			if err != nil {
				return err
			}
			defer s.Close()

			q, err := e.Quote(total, hostID)
			if err != nil {
				return err
			}
			tag, _ := env.Locale()
			unit, _ := env.CurrencyUnit()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config v%d\n", q.ConfigVersion)
			fmt.Fprintf(out, "total:           %s\n", q.Total.Format(tag, unit))
			fmt.Fprintf(out, "renter fee (%s%%): %s\n", q.Renter.Percentage, q.Renter.PlatformFee.Format(tag, unit))
			fmt.Fprintf(out, "host commission (%s, %s%%): %s\n", q.Host.Role, q.Host.Percentage, q.Host.PlatformFee.Format(tag, unit))
			fmt.Fprintf(out, "host net:        %s\n", q.Host.NetAmount.Format(tag, unit))
			return nil
		},
	}
	cmd.Flags().StringVar(&hostID, "host", "", "host user id (selects role and commission override)")
	return cmd
}
