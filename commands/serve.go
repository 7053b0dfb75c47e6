package commands

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/francescopitzalis1989/Renthubber/auth"
	"github.com/francescopitzalis1989/Renthubber/handlers"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, s, err := openEngine()
			if err != nil {
				return err
			}
			defer s.Close()

			h := handlers.New(e, auth.NewVerifier(env.JWTSecret))

			log.Printf("listening on :%s (db: %s, payout policy: %s)", env.Port, env.DBPath, env.PayoutPolicy)
			return http.ListenAndServe(":"+env.Port, h.Router(env.AllowedOrigins))
		},
	}
}
