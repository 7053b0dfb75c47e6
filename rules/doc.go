// Package rules holds the pure marketplace computations: fee split,
// cancellation refund, listing completeness, and SuperHubber eligibility.
//
// Nothing here reads a clock, a global, or a store. Every function takes the
// config values it needs as arguments, so a quote shown to a user and the
// settlement that follows produce identical numbers when given the same
// snapshot.
package rules
