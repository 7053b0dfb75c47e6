// Package engine is the command surface of the marketplace rules and ledger
// engine. It wires the components to one store, one config holder and one
// clock, and adds the commands that span more than one of them.
package engine

import (
	"fmt"
	"log"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/booking"
	"github.com/francescopitzalis1989/Renthubber/clock"
	"github.com/francescopitzalis1989/Renthubber/config"
	"github.com/francescopitzalis1989/Renthubber/dispute"
	"github.com/francescopitzalis1989/Renthubber/invoice"
	"github.com/francescopitzalis1989/Renthubber/keylock"
	"github.com/francescopitzalis1989/Renthubber/ledger"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
	"github.com/francescopitzalis1989/Renthubber/payout"
	"github.com/francescopitzalis1989/Renthubber/rules"
	"github.com/francescopitzalis1989/Renthubber/store"
)

// Options selects the swappable policies.
type Options struct {
	// PayoutPolicy is config.PayoutPolicyUnguarded or
	// config.PayoutPolicyReserve.
	PayoutPolicy string

	// BlockPayoutsOnOpenDispute refuses approvals for hubbers that are the
	// target of an open dispute.
	BlockPayoutsOnOpenDispute bool
}

// Engine bundles the components.
type Engine struct {
	Config   *config.Holder
	Ledger   *ledger.Book
	Payouts  *payout.Machine
	Disputes *dispute.Machine
	Bookings *booking.Manager
	Invoices *invoice.Generator

	store    *store.Store
	clock    clock.Clock
	profiles keylock.Locker
}

// New builds an Engine over s.
func New(s *store.Store, c clock.Clock, opts Options) (*Engine, error) {
	holder, err := config.NewHolder(s)
	if err != nil {
		return nil, err
	}

	book := ledger.New(s, c)
	disputes := dispute.New(s, c)

	var payoutOpts []payout.Option
	switch opts.PayoutPolicy {
	case "", config.PayoutPolicyUnguarded:
	case config.PayoutPolicyReserve:
		payoutOpts = append(payoutOpts, payout.WithAdmission(payout.ReservePending{}))
	default:
		return nil, fmt.Errorf("unknown payout policy %q", opts.PayoutPolicy)
	}
	suspended := payout.SuspensionGate{Profiles: s}
	payoutOpts = append(payoutOpts, payout.WithCreationGate(suspended), payout.WithGate(suspended))
	if opts.BlockPayoutsOnOpenDispute {
		payoutOpts = append(payoutOpts, payout.WithGate(dispute.OpenDisputeGate{Machine: disputes}))
	}

	disputes.OnResolved(func(d models.Dispute) {
		log.Printf("engine: dispute %s resolved against %s; no ledger action configured", d.ID, d.TargetID)
	})

	return &Engine{
		Config:   holder,
		Ledger:   book,
		Payouts:  payout.New(s, book, c, payoutOpts...),
		Disputes: disputes,
		Bookings: booking.New(s, book, holder, c),
		Invoices: invoice.NewGenerator(s, c),
		store:    s,
		clock:    c,
	}, nil
}

// Quote previews a booking for both parties under the live config. The host
// side is computed exactly as Complete will compute it.
type Quote struct {
	ConfigVersion int64       `json:"configVersion"`
	Total         money.Money `json:"total"`
	Renter        rules.Split `json:"renter"`
	Host          rules.Split `json:"host"`
}

func (e *Engine) Quote(total money.Money, hostID string) (*Quote, error) {
	snap := e.Config.Current()
	host, err := e.Bookings.Profile(hostID)
	if err != nil {
		return nil, err
	}
	hostSplit, err := booking.Settle(total, host, snap)
	if err != nil {
		return nil, err
	}
	renterSplit, err := rules.ComputeSplit(total, models.RoleRenter, snap.Fees)
	if err != nil {
		return nil, err
	}
	return &Quote{ConfigVersion: snap.Version, Total: total, Renter: renterSplit, Host: hostSplit}, nil
}

// RefundPreview is what cancelling a booking now would refund.
type RefundPreview struct {
	BookingID        string      `json:"bookingId"`
	PolicyID         string      `json:"policyId"`
	HoursBeforeStart float64     `json:"hoursBeforeStart"`
	Refund           money.Money `json:"refund"`
}

func (e *Engine) PreviewRefund(bookingID string) (*RefundPreview, error) {
	b, err := e.Bookings.Get(bookingID)
	if err != nil {
		return nil, err
	}
	policy, ok := e.Config.Current().Policy(b.PolicyID)
	if !ok {
		return nil, apperr.Newf(apperr.CodeConfigPrecondition, "cancellation policy %q not configured", b.PolicyID)
	}
	hours := clock.HoursUntil(e.clock, b.StartsAt)
	refund, err := rules.ComputeRefund(b.Paid, policy, hours)
	if err != nil {
		return nil, err
	}
	return &RefundPreview{BookingID: b.ID, PolicyID: policy.ID, HoursBeforeStart: hours, Refund: refund}, nil
}

// Completeness is a scored listing draft.
type Completeness struct {
	Score       int  `json:"score"`
	Threshold   int  `json:"threshold"`
	Publishable bool `json:"publishable"`
}

// ScoreDraft scores d against the configured publish threshold.
func (e *Engine) ScoreDraft(d models.ListingDraft) Completeness {
	threshold := e.Config.Current().CompletenessThreshold
	score := rules.Score(d)
	return Completeness{Score: score, Threshold: threshold, Publishable: score >= threshold}
}

// EvaluateSuperHubber checks m against the configured thresholds.
func (e *Engine) EvaluateSuperHubber(m models.SuperHubberMetrics) rules.Assessment {
	return rules.AssessSuperHubber(m, e.Config.Current().SuperHubber)
}

// PayWithWallet pays a booking from the renter wallet. The amount is the
// booking total; the caller cannot choose it.
func (e *Engine) PayWithWallet(renterID, bookingID string) (*models.Booking, error) {
	return e.Bookings.Pay(bookingID, renterID)
}

// ApplyReferralBonus credits the configured welcome bonus to userID's renter
// wallet. Each user receives it at most once.
func (e *Engine) ApplyReferralBonus(userID string) (models.Transaction, error) {
	ref := e.Config.Current().Referral
	if !ref.IsActive || !ref.BonusAmount.IsPositive() {
		return models.Transaction{}, apperr.New(apperr.CodeConfigPrecondition, "referral program is not active")
	}
	return e.Ledger.CreditOnce(userID, ledger.Entry{
		Wallet:      models.WalletRenter,
		Amount:      ref.BonusAmount,
		Description: "Referral bonus",
		Reference:   "referral:" + userID,
	})
}

// SetProfile stores the roles and commission override of a user. A stored
// suspension is kept; only SetSuspended changes it.
func (e *Engine) SetProfile(p models.Profile) error {
	if p.UserID == "" {
		return apperr.New(apperr.CodeInvalidInput, "user id is empty")
	}
	if p.CustomCommissionRate != nil && !money.ValidPercent(*p.CustomCommissionRate) {
		return apperr.New(apperr.CodeInvalidFeeConfiguration, "customCommissionRate out of range")
	}

	unlock := e.profiles.Lock(p.UserID)
	defer unlock()
	current, err := e.Bookings.Profile(p.UserID)
	if err != nil {
		return err
	}
	p.Suspended = current.Suspended
	if err := e.store.PutProfile(&p); err != nil {
		return fmt.Errorf("persist profile %s: %w", p.UserID, err)
	}
	log.Printf("engine: profile %s roles=%v", p.UserID, p.Roles)
	return nil
}

// SetSuspended suspends or reinstates userID. A suspended user can neither
// request nor receive payouts.
func (e *Engine) SetSuspended(userID string, suspended bool) (models.Profile, error) {
	if userID == "" {
		return models.Profile{}, apperr.New(apperr.CodeInvalidInput, "user id is empty")
	}
	unlock := e.profiles.Lock(userID)
	defer unlock()

	p, err := e.Bookings.Profile(userID)
	if err != nil {
		return models.Profile{}, err
	}
	p.Suspended = suspended
	if err := e.store.PutProfile(&p); err != nil {
		return models.Profile{}, fmt.Errorf("persist profile %s: %w", userID, err)
	}
	log.Printf("engine: profile %s suspended=%t", userID, suspended)
	return p, nil
}

// Profile returns the settlement profile of userID.
func (e *Engine) Profile(userID string) (models.Profile, error) {
	return e.Bookings.Profile(userID)
}
