package models

import "github.com/shopspring/decimal"

// Profile is the part of a user record the engine reads when settling and
// paying out.
type Profile struct {
	UserID string `json:"userId"`
	Roles  Roles  `json:"roles"`

	// CustomCommissionRate replaces the hubber and superhubber rates for
	// this user when set.
	CustomCommissionRate *decimal.Decimal `json:"customCommissionRate,omitempty"`

	// Suspended users cannot request or receive payouts.
	Suspended bool `json:"suspended,omitempty"`
}
