package rules

import (
	"github.com/shopspring/decimal"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
)

// Split is the result of applying the fee schedule to a gross amount.
type Split struct {
	Gross       money.Money     `json:"gross"`
	Role        models.Role     `json:"role"`
	Percentage  decimal.Decimal `json:"percentage"`
	PlatformFee money.Money     `json:"platformFee"`
	NetAmount   money.Money     `json:"netAmount"`
}

// ComputeSplit derives the platform fee and the net amount for gross charged
// to (or earned by) a payer with the given role.
//
//	platformFee = round(gross * pct / 100) + fixedFee
//	netAmount   = gross - platformFee
//
// A fee larger than gross is rejected as InvalidFeeConfiguration.
func ComputeSplit(gross money.Money, role models.Role, fees models.FeeConfig) (Split, error) {
	if gross.IsNegative() {
		return Split{}, apperr.Newf(apperr.CodeInvalidAmount, "gross amount %s is negative", gross)
	}
	if err := fees.Validate(); err != nil {
		return Split{}, err
	}

	pct := Percentage(role, fees)
	fee := gross.Percent(pct).Add(fees.FixedFeeMinorUnits)
	if fee > gross {
		return Split{}, apperr.WithMeta(apperr.CodeInvalidFeeConfiguration, "platform fee exceeds gross amount",
			map[string]string{"gross": gross.String(), "fee": fee.String(), "role": string(role)})
	}

	return Split{
		Gross:       gross,
		Role:        role,
		Percentage:  pct,
		PlatformFee: fee,
		NetAmount:   gross.Sub(fee),
	}, nil
}

// Percentage selects the rate for role. Roles without a dedicated rate pay
// the base platform percentage.
func Percentage(role models.Role, fees models.FeeConfig) decimal.Decimal {
	switch role {
	case models.RoleRenter:
		return fees.RenterPercentage
	case models.RoleHubber:
		return fees.HubberPercentage
	case models.RoleSuperHubber:
		return fees.SuperHubberPercentage
	}
	return fees.PlatformPercentage
}

// CommissionRole picks the role whose rate applies to a host's commission.
// SuperHubber takes precedence over hubber.
func CommissionRole(roles models.Roles) models.Role {
	if roles.Has(models.RoleSuperHubber) {
		return models.RoleSuperHubber
	}
	return models.RoleHubber
}
