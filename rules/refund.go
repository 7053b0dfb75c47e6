package rules

import (
	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
)

// ComputeRefund returns the part of total refunded when a booking is
// cancelled hoursBeforeStart hours ahead of its start. The caller derives the
// hours from its clock; negative values mean the booking already started.
//
// A policy with CutoffHours == 0 is non-refundable.
func ComputeRefund(total money.Money, policy models.CancellationPolicy, hoursBeforeStart float64) (money.Money, error) {
	if total.IsNegative() {
		return 0, apperr.Newf(apperr.CodeInvalidAmount, "booking total %s is negative", total)
	}
	if err := policy.Validate(); err != nil {
		return 0, err
	}
	if policy.CutoffHours == 0 || hoursBeforeStart < policy.CutoffHours {
		return 0, nil
	}
	return total.Percent(policy.RefundPercentage), nil
}
