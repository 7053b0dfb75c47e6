// Package payout implements the payout request lifecycle.
//
//	pending ──approve──▶ approved
//	   └─────reject───▶ rejected
//
// Approval debits the requesting hubber's wallet. The debit and the approved
// request are committed in one store transaction, so either both happen or
// the request stays pending with the wallet untouched.
package payout

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/clock"
	"github.com/francescopitzalis1989/Renthubber/keylock"
	"github.com/francescopitzalis1989/Renthubber/ledger"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
	"github.com/francescopitzalis1989/Renthubber/store"
)

// Store is the persistence the machine needs.
type Store interface {
	GetPayout(id string) (*models.PayoutRequest, error)
	PutPayout(p *models.PayoutRequest) error
	ListPayouts(userID string) ([]models.PayoutRequest, error)
}

// Ledger is the subset of ledger.Book used for settlement.
type Ledger interface {
	Debit(userID string, e ledger.Entry, also ...ledger.Write) (models.Transaction, error)
	WithAccount(userID string, fn func(a *models.LedgerAccount) error) error
}

// Gate can veto a payout, e.g. while the hubber has an open dispute or is
// suspended.
type Gate interface {
	AllowPayout(userID string) error
}

// Machine drives payout requests through their lifecycle.
type Machine struct {
	store  Store
	ledger Ledger
	clock  clock.Clock
	admit  AdmissionPolicy
	gates  []Gate
	create []Gate
	locks  keylock.Locker
}

// Option configures a Machine.
type Option func(*Machine)

// WithAdmission replaces the default Unguarded admission policy.
func WithAdmission(p AdmissionPolicy) Option {
	return func(m *Machine) { m.admit = p }
}

// WithGate adds a gate consulted before every approval.
func WithGate(g Gate) Option {
	return func(m *Machine) { m.gates = append(m.gates, g) }
}

// WithCreationGate adds a gate consulted before a request is created.
func WithCreationGate(g Gate) Option {
	return func(m *Machine) { m.create = append(m.create, g) }
}

// New returns a Machine.
func New(s Store, l Ledger, c clock.Clock, opts ...Option) *Machine {
	m := &Machine{store: s, ledger: l, clock: c, admit: Unguarded{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create records a new pending request. Whether the hubber balance covers
// the amount is left to the admission policy.
func (m *Machine) Create(userID string, amount money.Money, iban string) (*models.PayoutRequest, error) {
	if userID == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "user id is empty")
	}
	if !amount.IsPositive() {
		return nil, apperr.WithMeta(apperr.CodeInvalidAmount, "payout amount must be positive",
			map[string]string{"amount": amount.String()})
	}
	iban = normalizeIBAN(iban)
	if iban == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "iban is required")
	}
	if err := allow(m.create, userID); err != nil {
		return nil, err
	}

	p := &models.PayoutRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		IBAN:        iban,
		Status:      models.PayoutPending,
		RequestedAt: m.clock.Now(),
	}

	// The admission check and the write happen under the account lock so a
	// reserving policy sees every pending request of the user.
	err := m.ledger.WithAccount(userID, func(a *models.LedgerAccount) error {
		if err := m.admit.Admit(m.store, a, p); err != nil {
			return err
		}
		return m.store.PutPayout(p)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("payout: created %s user=%s amount=%s", p.ID, userID, amount)
	return p, nil
}

// Process applies an admin decision to a pending request.
func (m *Machine) Process(id string, decision models.PayoutDecision) (*models.PayoutRequest, error) {
	if decision != models.DecisionApprove && decision != models.DecisionReject {
		return nil, apperr.Newf(apperr.CodeInvalidInput, "unknown decision %q", decision)
	}

	unlock := m.locks.Lock(id)
	defer unlock()

	current, err := m.store.GetPayout(id)
	if err != nil {
		return nil, fmt.Errorf("load payout %s: %w", id, err)
	}
	if current.Status != models.PayoutPending {
		return nil, apperr.WithMeta(apperr.CodeInvalidStateTransition, "payout request already processed",
			map[string]string{"payout": id, "status": string(current.Status)})
	}

	next := *current
	now := m.clock.Now()
	next.ProcessedAt = &now

	if decision == models.DecisionReject {
		next.Status = models.PayoutRejected
		if err := m.store.PutPayout(&next); err != nil {
			return nil, fmt.Errorf("persist payout %s: %w", id, err)
		}
		log.Printf("payout: rejected %s user=%s", id, next.UserID)
		return &next, nil
	}

	if err := allow(m.gates, next.UserID); err != nil {
		return nil, err
	}

	next.Status = models.PayoutApproved
	next.TransactionID = uuid.NewString()
	tx, err := m.ledger.Debit(next.UserID, ledger.Entry{
		ID:          next.TransactionID,
		Wallet:      models.WalletHubber,
		Amount:      next.Amount,
		Description: "Payout to IBAN " + maskIBAN(next.IBAN),
		Reference:   "payout:" + id,
	}, func(stx *store.Tx) error {
		if err := stx.PutPayout(&next); err != nil {
			return fmt.Errorf("persist payout %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("payout: approved %s user=%s amount=%s tx=%s", id, next.UserID, next.Amount, tx.ID)
	return &next, nil
}

// Get returns one request.
func (m *Machine) Get(id string) (*models.PayoutRequest, error) {
	return m.store.GetPayout(id)
}

// List returns all requests, or only userID's when it is set.
func (m *Machine) List(userID string) ([]models.PayoutRequest, error) {
	return m.store.ListPayouts(userID)
}

func allow(gates []Gate, userID string) error {
	for _, g := range gates {
		if err := g.AllowPayout(userID); err != nil {
			return err
		}
	}
	return nil
}

func normalizeIBAN(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// maskIBAN keeps the country code and the last four characters.
func maskIBAN(iban string) string {
	if len(iban) <= 8 {
		return iban
	}
	return iban[:4] + strings.Repeat("*", len(iban)-8) + iban[len(iban)-4:]
}
