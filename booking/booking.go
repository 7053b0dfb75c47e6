// Package booking settles bookings against the ledger.
//
//	pending ──accept──▶ accepted ──complete──▶ completed
//	   │                   │
//	   ├──reject──▶ rejected
//	   └──────cancel───────┴──▶ cancelled
//
// The renter pays once from the renter wallet while the booking is pending
// or accepted, and the amount debited is recorded as Paid. Completion needs a
// paid booking; it splits the total with the fee calculator and credits the
// host's hubber wallet with the net amount. Cancellation applies the booking's
// cancellation policy to Paid, so an unpaid booking refunds nothing. Quotes
// and settlements share Settle, so the two always agree for the same snapshot.
//
// Every posting commits in the same store transaction as the booking it
// settles. A failed write leaves both the wallet and the booking untouched,
// and the command can simply be retried.
package booking

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/clock"
	"github.com/francescopitzalis1989/Renthubber/keylock"
	"github.com/francescopitzalis1989/Renthubber/ledger"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
	"github.com/francescopitzalis1989/Renthubber/rules"
	"github.com/francescopitzalis1989/Renthubber/store"
)

// Store is the persistence the manager needs.
type Store interface {
	GetBooking(id string) (*models.Booking, error)
	PutBooking(b *models.Booking) error
	ListBookings(hostID string) ([]models.Booking, error)
	GetProfile(userID string) (*models.Profile, error)
}

// Ledger is the subset of ledger.Book used for payment, settlement and
// refunds.
type Ledger interface {
	Credit(userID string, e ledger.Entry, also ...ledger.Write) (models.Transaction, error)
	Debit(userID string, e ledger.Entry, also ...ledger.Write) (models.Transaction, error)
}

// Snapshots supplies the live config snapshot.
type Snapshots interface {
	Current() *models.Snapshot
}

// Manager owns booking state transitions.
type Manager struct {
	store  Store
	ledger Ledger
	config Snapshots
	clock  clock.Clock
	locks  keylock.Locker
}

// New returns a Manager.
func New(s Store, l Ledger, cfg Snapshots, c clock.Clock) *Manager {
	return &Manager{store: s, ledger: l, config: cfg, clock: c}
}

// Request describes a new booking.
type Request struct {
	ListingID string
	RenterID  string
	HostID    string
	Total     money.Money
	PolicyID  string
	StartsAt  time.Time
}

// Settle computes the host-side split of total for host under snap.
func Settle(total money.Money, host models.Profile, snap *models.Snapshot) (rules.Split, error) {
	fees := snap.Fees
	if host.CustomCommissionRate != nil {
		fees = fees.WithCommissionOverride(*host.CustomCommissionRate)
	}
	return rules.ComputeSplit(total, rules.CommissionRole(host.Roles), fees)
}

// Profile returns the stored profile of userID. Users without one are
// treated as plain hubbers.
func (m *Manager) Profile(userID string) (models.Profile, error) {
	p, err := m.store.GetProfile(userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Profile{UserID: userID, Roles: models.Roles{models.RoleHubber}}, nil
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("load profile %s: %w", userID, err)
	}
	return *p, nil
}

// Create records a pending booking.
func (m *Manager) Create(r Request) (*models.Booking, error) {
	if r.ListingID == "" || r.RenterID == "" || r.HostID == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "listing, renter and host are required")
	}
	if r.RenterID == r.HostID {
		return nil, apperr.New(apperr.CodeInvalidInput, "host cannot book their own listing")
	}
	if !r.Total.IsPositive() {
		return nil, apperr.WithMeta(apperr.CodeInvalidAmount, "booking total must be positive",
			map[string]string{"total": r.Total.String()})
	}
	if _, ok := m.config.Current().Policy(r.PolicyID); !ok {
		return nil, apperr.Newf(apperr.CodeInvalidInput, "unknown cancellation policy %q", r.PolicyID)
	}

	b := &models.Booking{
		ID:        uuid.NewString(),
		ListingID: r.ListingID,
		RenterID:  r.RenterID,
		HostID:    r.HostID,
		Total:     r.Total,
		Status:    models.BookingPending,
		PolicyID:  r.PolicyID,
		StartsAt:  r.StartsAt.UTC(),
		CreatedAt: m.clock.Now(),
	}
	if err := m.store.PutBooking(b); err != nil {
		return nil, fmt.Errorf("persist booking: %w", err)
	}
	log.Printf("booking: created %s renter=%s host=%s total=%s", b.ID, b.RenterID, b.HostID, b.Total)
	return b, nil
}

// Accept confirms a pending booking. Only the host may accept.
func (m *Manager) Accept(id, actorID string) (*models.Booking, error) {
	return m.transition(id, func(b *models.Booking) error {
		if b.HostID != actorID {
			return forbidden(id, actorID)
		}
		if b.Status != models.BookingPending {
			return invalidTransition(b, models.BookingAccepted)
		}
		b.Status = models.BookingAccepted
		return nil
	})
}

// Reject declines a pending booking. Only the host may reject.
func (m *Manager) Reject(id, actorID string) (*models.Booking, error) {
	return m.transition(id, func(b *models.Booking) error {
		if b.HostID != actorID {
			return forbidden(id, actorID)
		}
		if b.Status != models.BookingPending {
			return invalidTransition(b, models.BookingRejected)
		}
		b.Status = models.BookingRejected
		return nil
	})
}

// Pay debits the booking total from the renter wallet and records it as
// paid. Only the renter may pay, only once, and only before the booking is
// completed, rejected or cancelled.
func (m *Manager) Pay(id, renterID string) (*models.Booking, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	current, err := m.store.GetBooking(id)
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", id, err)
	}
	if current.RenterID != renterID {
		return nil, forbidden(id, renterID)
	}
	if current.Status != models.BookingPending && current.Status != models.BookingAccepted {
		return nil, invalidTransition(current, "paid")
	}
	if current.Paid.IsPositive() {
		return nil, apperr.WithMeta(apperr.CodeInvalidStateTransition, "booking is already paid",
			map[string]string{"booking": id, "paid": current.Paid.String()})
	}

	next := *current
	now := m.clock.Now()
	next.Paid = current.Total
	next.PaidAt = &now

	entry := ledger.Entry{
		Wallet:      models.WalletRenter,
		Amount:      next.Paid,
		Description: "Booking payment",
		Reference:   "payment:" + id,
	}
	if _, err := m.ledger.Debit(next.RenterID, entry, putBooking(&next)); err != nil {
		return nil, err
	}

	log.Printf("booking: paid %s renter=%s amount=%s", id, next.RenterID, next.Paid)
	return &next, nil
}

// Complete settles an accepted, paid booking: the commission is retained and
// the net amount is credited to the host's hubber wallet. A booking is
// settled at most once.
func (m *Manager) Complete(id string) (*models.Booking, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	current, err := m.store.GetBooking(id)
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", id, err)
	}
	if current.Status != models.BookingAccepted {
		return nil, invalidTransition(current, models.BookingCompleted)
	}
	if current.Paid < current.Total {
		return nil, apperr.WithMeta(apperr.CodeInvalidStateTransition, "booking is not paid",
			map[string]string{"booking": id, "paid": current.Paid.String(), "total": current.Total.String()})
	}

	host, err := m.Profile(current.HostID)
	if err != nil {
		return nil, err
	}
	snap := m.config.Current()
	split, err := Settle(current.Total, host, snap)
	if err != nil {
		return nil, err
	}

	next := *current
	now := m.clock.Now()
	next.Status = models.BookingCompleted
	next.Commission = split.PlatformFee
	next.NetEarnings = split.NetAmount
	next.CompletedAt = &now
	next.ConfigVersion = snap.Version

	entry := ledger.Entry{
		Wallet:      models.WalletHubber,
		Amount:      split.NetAmount,
		Description: "Booking earnings",
		Reference:   "booking:" + id,
	}
	if entry.Amount.IsPositive() {
		if _, err := m.ledger.Credit(next.HostID, entry, putBooking(&next)); err != nil {
			return nil, err
		}
	} else if err := m.store.PutBooking(&next); err != nil {
		return nil, fmt.Errorf("persist booking %s: %w", id, err)
	}

	log.Printf("booking: completed %s host=%s commission=%s net=%s config=v%d",
		id, next.HostID, next.Commission, next.NetEarnings, snap.Version)
	return &next, nil
}

// Cancel cancels a pending or accepted booking and refunds the renter per
// the booking's cancellation policy. The refund is a share of what was paid.
// Either party may cancel.
func (m *Manager) Cancel(id, actorID string) (*models.Booking, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	current, err := m.store.GetBooking(id)
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", id, err)
	}
	if actorID != current.RenterID && actorID != current.HostID {
		return nil, forbidden(id, actorID)
	}
	if current.Status != models.BookingPending && current.Status != models.BookingAccepted {
		return nil, invalidTransition(current, models.BookingCancelled)
	}

	snap := m.config.Current()
	policy, ok := snap.Policy(current.PolicyID)
	if !ok {
		return nil, apperr.WithMeta(apperr.CodeConfigPrecondition, "booking policy missing from config",
			map[string]string{"booking": id, "policy": current.PolicyID, "config": fmt.Sprint(snap.Version)})
	}
	refund, err := rules.ComputeRefund(current.Paid, policy, clock.HoursUntil(m.clock, current.StartsAt))
	if err != nil {
		return nil, err
	}

	next := *current
	now := m.clock.Now()
	next.Status = models.BookingCancelled
	next.Refund = refund
	next.CancelledAt = &now
	next.ConfigVersion = snap.Version

	if refund.IsPositive() {
		entry := ledger.Entry{
			Wallet:      models.WalletRenter,
			Amount:      refund,
			Description: "Cancellation refund",
			Reference:   "refund:" + id,
		}
		if _, err := m.ledger.Credit(next.RenterID, entry, putBooking(&next)); err != nil {
			return nil, err
		}
	} else if err := m.store.PutBooking(&next); err != nil {
		return nil, fmt.Errorf("persist booking %s: %w", id, err)
	}

	log.Printf("booking: cancelled %s by=%s refund=%s policy=%s", id, actorID, refund, policy.ID)
	return &next, nil
}

// putBooking writes b in the same transaction as a ledger posting.
func putBooking(b *models.Booking) ledger.Write {
	return func(tx *store.Tx) error {
		if err := tx.PutBooking(b); err != nil {
			return fmt.Errorf("persist booking %s: %w", b.ID, err)
		}
		return nil
	}
}

func (m *Manager) transition(id string, apply func(b *models.Booking) error) (*models.Booking, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	current, err := m.store.GetBooking(id)
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", id, err)
	}
	next := *current
	if err := apply(&next); err != nil {
		return nil, err
	}
	if err := m.store.PutBooking(&next); err != nil {
		return nil, fmt.Errorf("persist booking %s: %w", id, err)
	}
	log.Printf("booking: %s %s", next.Status, id)
	return &next, nil
}

// Get returns one booking.
func (m *Manager) Get(id string) (*models.Booking, error) {
	return m.store.GetBooking(id)
}

// ListByHost returns the bookings hosted by hostID.
func (m *Manager) ListByHost(hostID string) ([]models.Booking, error) {
	return m.store.ListBookings(hostID)
}

func forbidden(id, actorID string) error {
	return apperr.WithMeta(apperr.CodeForbidden, "not a party to this booking",
		map[string]string{"booking": id, "user": actorID})
}

func invalidTransition(b *models.Booking, to models.BookingStatus) error {
	return apperr.WithMeta(apperr.CodeInvalidStateTransition, "booking cannot move to "+string(to),
		map[string]string{"booking": b.ID, "status": string(b.Status)})
}
