// Command renthubber runs the marketplace rules and ledger engine.
//
//	renthubber serve                       start the HTTP API
//	renthubber quote 100.00 --host h1      preview fees
//	renthubber invoice generate h1 2024-03 issue a monthly invoice
//	renthubber token u1 --role admin       mint a development token
//
// Settings come from the environment (or a .env file): PORT, DB_PATH,
// JWT_SECRET (required), ALLOWED_ORIGINS, PAYOUT_POLICY, BLOCK_PAYOUTS_ON_OPEN_DISPUTE,
// DISPLAY_LOCALE and CURRENCY.
package main

import (
	"log"

	"github.com/francescopitzalis1989/Renthubber/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Fatalf("renthubber: %v", err)
	}
}
