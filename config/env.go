// Package config loads process settings from the environment and holds the
// engine's live configuration snapshot.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Payout admission policies selectable with PAYOUT_POLICY.
const (
	PayoutPolicyUnguarded = "unguarded"
	PayoutPolicyReserve   = "reserve"
)

// Env is the process configuration.
type Env struct {
	Port   string `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"renthubber.db"`

	// JWTSecret verifies bearer tokens issued by the identity service. There
	// is no default; a process without one refuses to start.
	JWTSecret string `env:"JWT_SECRET,required"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	PayoutPolicy              string `env:"PAYOUT_POLICY" envDefault:"unguarded"`
	BlockPayoutsOnOpenDispute bool   `env:"BLOCK_PAYOUTS_ON_OPEN_DISPUTE" envDefault:"false"`

	DisplayLocale string `env:"DISPLAY_LOCALE" envDefault:"it"`
	Currency      string `env:"CURRENCY" envDefault:"EUR"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads a .env file if present (missing is not an error), then parses
// and validates Env.
func Load() (*Env, error) {
	_ = godotenv.Load()

	var cfg Env
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (e *Env) Validate() error {
	switch e.PayoutPolicy {
	case PayoutPolicyUnguarded, PayoutPolicyReserve:
	default:
		return fmt.Errorf("PAYOUT_POLICY must be %q or %q, got %q", PayoutPolicyUnguarded, PayoutPolicyReserve, e.PayoutPolicy)
	}
	if e.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if _, err := e.Locale(); err != nil {
		return err
	}
	if _, err := e.CurrencyUnit(); err != nil {
		return err
	}
	return nil
}

// Locale parses DisplayLocale.
func (e *Env) Locale() (language.Tag, error) {
	tag, err := language.Parse(e.DisplayLocale)
	if err != nil {
		return language.Und, fmt.Errorf("DISPLAY_LOCALE: %w", err)
	}
	return tag, nil
}

// CurrencyUnit parses Currency as an ISO 4217 code.
func (e *Env) CurrencyUnit() (currency.Unit, error) {
	unit, err := currency.ParseISO(e.Currency)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("CURRENCY: %w", err)
	}
	return unit, nil
}
