package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/francescopitzalis1989/Renthubber/auth"
	"github.com/francescopitzalis1989/Renthubber/models"
)

func tokenCmd() *cobra.Command {
	var (
		roles []string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a development bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := models.ParseRoles(roles)
			if err != nil {
				return err
			}
			token, err := auth.NewIssuer(env.JWTSecret, ttl).Issue(auth.Identity{UserID: args[0], Roles: rs})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&roles, "role", []string{"renter"}, "roles to grant (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
