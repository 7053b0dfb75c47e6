package payout

import (
	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
)

// Lister lists a user's payout requests.
type Lister interface {
	ListPayouts(userID string) ([]models.PayoutRequest, error)
}

// AdmissionPolicy decides whether a new request may be created. It runs
// while the account lock is held, with a read-only copy of the account.
type AdmissionPolicy interface {
	Admit(l Lister, a *models.LedgerAccount, p *models.PayoutRequest) error
}

// Unguarded admits every well-formed request. The balance is only checked
// when the request is approved, so several pending requests may together
// exceed it.
type Unguarded struct{}

func (Unguarded) Admit(Lister, *models.LedgerAccount, *models.PayoutRequest) error { return nil }

// ReservePending treats pending requests as held funds: the new amount plus
// everything still pending must fit in the hubber balance.
type ReservePending struct{}

func (ReservePending) Admit(l Lister, a *models.LedgerAccount, p *models.PayoutRequest) error {
	existing, err := l.ListPayouts(p.UserID)
	if err != nil {
		return err
	}
	var held money.Money
	for _, r := range existing {
		if r.Status == models.PayoutPending {
			held = held.Add(r.Amount)
		}
	}
	available := a.HubberBalance.Sub(held)
	if p.Amount > available {
		return apperr.WithMeta(apperr.CodeInsufficientBalance, "payout exceeds available balance",
			map[string]string{
				"user":      p.UserID,
				"balance":   a.HubberBalance.String(),
				"pending":   held.String(),
				"requested": p.Amount.String(),
			})
	}
	return nil
}
