package rules

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
)

func testFees() models.FeeConfig {
	return models.FeeConfig{
		PlatformPercentage:    decimal.NewFromInt(10),
		RenterPercentage:      decimal.NewFromInt(8),
		HubberPercentage:      decimal.NewFromInt(10),
		SuperHubberPercentage: decimal.NewFromInt(5),
		FixedFeeMinorUnits:    money.FromMajor(2),
	}
}

func TestComputeSplitHubberScenario(t *testing.T) {
	split, err := ComputeSplit(money.FromMajor(100), models.RoleHubber, testFees())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if split.PlatformFee != money.FromMajor(12) {
		t.Fatalf("expected fee 12.00, got %s", split.PlatformFee)
	}
	if split.NetAmount != money.FromMajor(88) {
		t.Fatalf("expected net 88.00, got %s", split.NetAmount)
	}
}

func TestComputeSplitSelectsRateByRole(t *testing.T) {
	tests := []struct {
		role models.Role
		want money.Money
	}{
		{models.RoleRenter, 1000},     // 8% of 100.00 + 2.00
		{models.RoleHubber, 1200},     // 10% + 2.00
		{models.RoleSuperHubber, 700}, // 5% + 2.00
		{models.RoleAdmin, 1200},      // base platform rate
	}
	for _, tt := range tests {
		split, err := ComputeSplit(money.FromMajor(100), tt.role, testFees())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.role, err)
		}
		if split.PlatformFee != tt.want {
			t.Fatalf("%s: expected fee %s, got %s", tt.role, tt.want, split.PlatformFee)
		}
	}
}

func TestComputeSplitFeeNeverExceedsGross(t *testing.T) {
	_, err := ComputeSplit(money.FromMinor(150), models.RoleHubber, testFees())
	if !errors.Is(err, apperr.ErrInvalidFeeConfiguration) {
		t.Fatalf("expected INVALID_FEE_CONFIGURATION, got %v", err)
	}

	// A fee exactly equal to gross is allowed and leaves nothing for the host.
	fees := testFees()
	fees.HubberPercentage = decimal.Zero
	split, err := ComputeSplit(money.FromMajor(2), models.RoleHubber, fees)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if split.NetAmount != 0 {
		t.Fatalf("expected net 0, got %s", split.NetAmount)
	}
}

func TestComputeSplitRejectsBadInput(t *testing.T) {
	if _, err := ComputeSplit(-1, models.RoleHubber, testFees()); !errors.Is(err, apperr.ErrInvalidAmount) {
		t.Fatalf("expected INVALID_AMOUNT, got %v", err)
	}
	fees := testFees()
	fees.RenterPercentage = decimal.NewFromInt(120)
	if _, err := ComputeSplit(10000, models.RoleRenter, fees); !errors.Is(err, apperr.ErrInvalidFeeConfiguration) {
		t.Fatalf("expected INVALID_FEE_CONFIGURATION, got %v", err)
	}
}

func TestComputeSplitConservesGross(t *testing.T) {
	pcts := []string{"0", "2.5", "7.35", "10", "33.333", "100"}
	fixed := []money.Money{0, 1, 200}
	roles := []models.Role{models.RoleRenter, models.RoleHubber, models.RoleSuperHubber}

	for _, p := range pcts {
		for _, f := range fixed {
			fees := models.FeeConfig{
				PlatformPercentage:    decimal.RequireFromString(p),
				RenterPercentage:      decimal.RequireFromString(p),
				HubberPercentage:      decimal.RequireFromString(p),
				SuperHubberPercentage: decimal.RequireFromString(p),
				FixedFeeMinorUnits:    f,
			}
			for gross := money.Money(0); gross <= 5000; gross += 37 {
				for _, role := range roles {
					split, err := ComputeSplit(gross, role, fees)
					if err != nil {
						if !errors.Is(err, apperr.ErrInvalidFeeConfiguration) {
							t.Fatalf("unexpected error: %v", err)
						}
						continue
					}
					if split.PlatformFee+split.NetAmount != gross {
						t.Fatalf("fee %s + net %s != gross %s", split.PlatformFee, split.NetAmount, gross)
					}
					if split.NetAmount.IsNegative() {
						t.Fatalf("negative net for gross %s", gross)
					}
				}
			}
		}
	}
}

func TestCommissionOverride(t *testing.T) {
	fees := testFees().WithCommissionOverride(decimal.NewFromInt(3))
	split, err := ComputeSplit(money.FromMajor(100), models.RoleSuperHubber, fees)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if split.PlatformFee != money.FromMajor(5) {
		t.Fatalf("expected fee 5.00, got %s", split.PlatformFee)
	}
}

func TestCommissionRolePrecedence(t *testing.T) {
	if got := CommissionRole(models.Roles{models.RoleRenter, models.RoleHubber, models.RoleSuperHubber}); got != models.RoleSuperHubber {
		t.Fatalf("expected superhubber, got %s", got)
	}
	if got := CommissionRole(models.Roles{models.RoleHubber}); got != models.RoleHubber {
		t.Fatalf("expected hubber, got %s", got)
	}
	if got := CommissionRole(nil); got != models.RoleHubber {
		t.Fatalf("expected hubber default, got %s", got)
	}
}
