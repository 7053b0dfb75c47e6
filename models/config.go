package models

import (
	"github.com/shopspring/decimal"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/money"
)

// FeeConfig is the platform commission schedule. A computation receives one
// value and never observes a partial update.
type FeeConfig struct {
	// PlatformPercentage is the base rate, used when no role-specific rate
	// applies.
	PlatformPercentage    decimal.Decimal `json:"platformPercentage"`
	RenterPercentage      decimal.Decimal `json:"renterPercentage"`
	HubberPercentage      decimal.Decimal `json:"hubberPercentage"`
	SuperHubberPercentage decimal.Decimal `json:"superHubberPercentage"`
	FixedFeeMinorUnits    money.Money     `json:"fixedFeeMinorUnits"`
}

// Validate checks every percentage is in [0,100] and the fixed fee is not
// negative.
func (c FeeConfig) Validate() error {
	pcts := map[string]decimal.Decimal{
		"platformPercentage":    c.PlatformPercentage,
		"renterPercentage":      c.RenterPercentage,
		"hubberPercentage":      c.HubberPercentage,
		"superHubberPercentage": c.SuperHubberPercentage,
	}
	for name, p := range pcts {
		if !money.ValidPercent(p) {
			return apperr.WithMeta(apperr.CodeInvalidFeeConfiguration, name+" out of range",
				map[string]string{"field": name, "value": p.String()})
		}
	}
	if c.FixedFeeMinorUnits.IsNegative() {
		return apperr.New(apperr.CodeInvalidFeeConfiguration, "fixedFeeMinorUnits is negative")
	}
	return nil
}

// WithCommissionOverride returns a copy where a per-user commission rate
// replaces the hubber and superhubber rates.
func (c FeeConfig) WithCommissionOverride(pct decimal.Decimal) FeeConfig {
	c.HubberPercentage = pct
	c.SuperHubberPercentage = pct
	return c
}

// CancellationPolicy decides how much of a booking is refunded on
// cancellation.
type CancellationPolicy struct {
	ID               string          `json:"id"`
	Label            string          `json:"label"`
	RefundPercentage decimal.Decimal `json:"refundPercentage"`
	CutoffHours      float64         `json:"cutoffHours"`
}

// Validate checks RefundPercentage is in [0,100] and CutoffHours ≥ 0.
func (p CancellationPolicy) Validate() error {
	if p.ID == "" {
		return apperr.New(apperr.CodeConfigPrecondition, "cancellation policy id is empty")
	}
	if !money.ValidPercent(p.RefundPercentage) {
		return apperr.WithMeta(apperr.CodeConfigPrecondition, "refundPercentage out of range",
			map[string]string{"policy": p.ID, "value": p.RefundPercentage.String()})
	}
	if p.CutoffHours < 0 {
		return apperr.WithMeta(apperr.CodeConfigPrecondition, "cutoffHours is negative",
			map[string]string{"policy": p.ID})
	}
	return nil
}

// ReferralConfig controls the welcome bonus credited to referred renters.
type ReferralConfig struct {
	IsActive    bool        `json:"isActive"`
	BonusAmount money.Money `json:"bonusAmount"`
}

// SuperHubberConfig holds the thresholds a hubber is measured against.
type SuperHubberConfig struct {
	MinRating             float64 `json:"minRating"`
	MinResponseRate       float64 `json:"minResponseRate"`
	MaxCancellationRate   float64 `json:"maxCancellationRate"`
	MinHostingDays        int     `json:"minHostingDays"`
	RequiredCriteriaCount int     `json:"requiredCriteriaCount"`
}

// Validate enforces RequiredCriteriaCount ∈ [1,4]. The evaluator trusts
// configs that passed this check.
func (c SuperHubberConfig) Validate() error {
	if c.RequiredCriteriaCount < 1 || c.RequiredCriteriaCount > 4 {
		return apperr.Newf(apperr.CodeConfigPrecondition,
			"requiredCriteriaCount must be between 1 and 4, got %d", c.RequiredCriteriaCount)
	}
	return nil
}

// SuperHubberMetrics are a hubber's measured performance figures, supplied
// by the caller.
type SuperHubberMetrics struct {
	Rating                  float64 `json:"rating"`
	ResponseRatePercent     float64 `json:"responseRatePercent"`
	CancellationRatePercent float64 `json:"cancellationRatePercent"`
	HostingDays             int     `json:"hostingDays"`
}

// Snapshot is the full engine configuration at one version. It is replaced
// as a whole, never edited in place.
type Snapshot struct {
	Version               int64                `json:"version"`
	Fees                  FeeConfig            `json:"fees"`
	Referral              ReferralConfig       `json:"referral"`
	CancellationPolicies  []CancellationPolicy `json:"cancellationPolicies"`
	CompletenessThreshold int                  `json:"completenessThreshold"`
	SuperHubber           SuperHubberConfig    `json:"superHubber"`
}

// Policy looks up a cancellation policy by id.
func (s *Snapshot) Policy(id string) (CancellationPolicy, bool) {
	for _, p := range s.CancellationPolicies {
		if p.ID == id {
			return p, true
		}
	}
	return CancellationPolicy{}, false
}

// Validate checks every section of the snapshot.
func (s *Snapshot) Validate() error {
	if err := s.Fees.Validate(); err != nil {
		return err
	}
	if s.Referral.BonusAmount.IsNegative() {
		return apperr.New(apperr.CodeConfigPrecondition, "referral bonusAmount is negative")
	}
	seen := make(map[string]bool, len(s.CancellationPolicies))
	for _, p := range s.CancellationPolicies {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return apperr.Newf(apperr.CodeConfigPrecondition, "duplicate cancellation policy %q", p.ID)
		}
		seen[p.ID] = true
	}
	if s.CompletenessThreshold < 0 || s.CompletenessThreshold > 100 {
		return apperr.Newf(apperr.CodeConfigPrecondition,
			"completenessThreshold must be between 0 and 100, got %d", s.CompletenessThreshold)
	}
	return s.SuperHubber.Validate()
}
