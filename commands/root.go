// Package commands builds the renthubber command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/francescopitzalis1989/Renthubber/clock"
	"github.com/francescopitzalis1989/Renthubber/config"
	"github.com/francescopitzalis1989/Renthubber/engine"
	"github.com/francescopitzalis1989/Renthubber/store"
)

var (
	env    *config.Env
	dbPath string
)

// Execute runs the root command.
func Execute() error {
	return newRoot().Execute()
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "renthubber",
		Short:         "Marketplace rules and ledger engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			env = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&dbPath, "db", "", "BoltDB file (default $DB_PATH or renthubber.db)")

	root.AddCommand(serveCmd(), quoteCmd(), invoiceCmd(), tokenCmd())
	return root
}

// openEngine opens the store and builds the engine. The caller closes the
// returned store.
func openEngine() (*engine.Engine, *store.Store, error) {
	s, err := store.New(env.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	e, err := engine.New(s, clock.System{}, engine.Options{
		PayoutPolicy:              env.PayoutPolicy,
		BlockPayoutsOnOpenDispute: env.BlockPayoutsOnOpenDispute,
	})
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return e, s, nil
}
