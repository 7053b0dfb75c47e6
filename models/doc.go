// Package models defines the plain data types the engine computes over and
// persists.
//
// Types here carry no behaviour beyond validation and small accessors. State
// transitions live in the packages that own them (ledger, payout, dispute,
// booking, invoice); those packages hand finished values to the store.
//
// All monetary fields are money.Money, an integer count of minor units, so
// JSON documents always carry amounts as integers (e.g. 1250 for 12.50 EUR).
package models
