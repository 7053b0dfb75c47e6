// Package ledger owns every balance change.
//
// Each user has one LedgerAccount with two independent wallets, renter and
// hubber. Balances move only through Credit and Debit, which append a
// Transaction to the account's history. A debit larger than the wallet
// balance is rejected; it is never clamped.
//
// All mutations of one account are serialized by a per-account lock. A
// mutation is applied to a copy of the stored account and becomes the new
// state only once the store accepts the write, so a rejected or failed
// operation leaves the stored account exactly as it was.
//
// Credit and Debit take optional Writes that commit in the same store
// transaction as the account. Callers use them to persist the record a
// posting settles, such as a completed booking or an approved payout, so the
// money and the record can never disagree.
package ledger

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/clock"
	"github.com/francescopitzalis1989/Renthubber/keylock"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
	"github.com/francescopitzalis1989/Renthubber/store"
)

// Store is the persistence the ledger needs. GetAccount must return an error
// matching apperr.ErrNotFound for unknown users.
type Store interface {
	GetAccount(userID string) (*models.LedgerAccount, error)
	Atomically(fn func(*store.Tx) error) error
}

// Write is an extra store write committed together with a posting.
type Write func(tx *store.Tx) error

// Book is the set of all ledger accounts.
type Book struct {
	store Store
	clock clock.Clock
	locks keylock.Locker
}

// New returns a Book backed by s.
func New(s Store, c clock.Clock) *Book {
	return &Book{store: s, clock: c}
}

// Entry describes one credit or debit.
type Entry struct {
	// ID is the transaction id. Empty means a fresh one is generated.
	ID          string
	Wallet      models.WalletType
	Amount      money.Money
	Description string
	Reference   string
}

// Credit adds amount to the wallet. amount must be positive. The account and
// every write in also are committed in one transaction or not at all.
func (b *Book) Credit(userID string, e Entry, also ...Write) (models.Transaction, error) {
	return b.post(userID, models.Credit, e, nil, also)
}

// Debit removes amount from the wallet, failing with InsufficientBalance if
// the wallet holds less. Writes in also commit with the account.
func (b *Book) Debit(userID string, e Entry, also ...Write) (models.Transaction, error) {
	return b.post(userID, models.Debit, e, nil, also)
}

// CreditOnce credits the wallet unless a transaction with the same reference
// already exists, in which case it fails with InvalidStateTransition.
func (b *Book) CreditOnce(userID string, e Entry) (models.Transaction, error) {
	if e.Reference == "" {
		return models.Transaction{}, apperr.New(apperr.CodeInvalidInput, "credit once requires a reference")
	}
	guard := func(a *models.LedgerAccount) error {
		for _, tx := range a.Transactions {
			if tx.Reference == e.Reference {
				return apperr.WithMeta(apperr.CodeInvalidStateTransition, "reference already credited",
					map[string]string{"user": userID, "reference": e.Reference})
			}
		}
		return nil
	}
	return b.post(userID, models.Credit, e, guard, nil)
}

func (b *Book) post(userID string, dir models.Direction, e Entry, guard func(*models.LedgerAccount) error, also []Write) (models.Transaction, error) {
	if userID == "" {
		return models.Transaction{}, apperr.New(apperr.CodeInvalidInput, "user id is empty")
	}

	unlock := b.locks.Lock(userID)
	defer unlock()

	current, err := b.load(userID)
	if err != nil {
		return models.Transaction{}, err
	}
	if guard != nil {
		if err := guard(current); err != nil {
			return models.Transaction{}, err
		}
	}

	next := current.Clone()
	now := b.clock.Now()
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	tx, err := Apply(next, dir, e, id, now)
	if err != nil {
		return models.Transaction{}, err
	}
	next.UpdatedAt = now

	err = b.store.Atomically(func(stx *store.Tx) error {
		if err := stx.PutAccount(next); err != nil {
			return err
		}
		for _, w := range also {
			if err := w(stx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Transaction{}, fmt.Errorf("persist account %s: %w", userID, err)
	}

	log.Printf("ledger: %s %s %s wallet=%s user=%s balance=%s ref=%s",
		dir, tx.Amount, tx.ID, tx.WalletType, userID, tx.BalanceAfter, tx.Reference)
	return tx, nil
}

// Account returns the user's account. Users with no history get an empty
// account with zero balances.
func (b *Book) Account(userID string) (*models.LedgerAccount, error) {
	return b.load(userID)
}

// History returns the user's transactions newest first, optionally limited
// to one wallet.
func (b *Book) History(userID string, wallet *models.WalletType) ([]models.Transaction, error) {
	a, err := b.load(userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(a.Transactions))
	for i := len(a.Transactions) - 1; i >= 0; i-- {
		tx := a.Transactions[i]
		if wallet == nil || tx.WalletType == *wallet {
			out = append(out, tx)
		}
	}
	return out, nil
}

// WithAccount runs fn while holding the account lock, giving it a read-only
// copy of the account. Callers use it to make a decision that must not race
// with balance changes.
func (b *Book) WithAccount(userID string, fn func(a *models.LedgerAccount) error) error {
	unlock := b.locks.Lock(userID)
	defer unlock()
	a, err := b.load(userID)
	if err != nil {
		return err
	}
	return fn(a)
}

func (b *Book) load(userID string) (*models.LedgerAccount, error) {
	a, err := b.store.GetAccount(userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return &models.LedgerAccount{UserID: userID, Transactions: []models.Transaction{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", userID, err)
	}
	return a, nil
}

// Apply posts one entry to a in place and returns the appended transaction.
// On error a is not modified.
func Apply(a *models.LedgerAccount, dir models.Direction, e Entry, id string, at time.Time) (models.Transaction, error) {
	if e.Wallet != models.WalletRenter && e.Wallet != models.WalletHubber {
		return models.Transaction{}, apperr.Newf(apperr.CodeInvalidInput, "unknown wallet type %q", e.Wallet)
	}
	if !e.Amount.IsPositive() {
		return models.Transaction{}, apperr.WithMeta(apperr.CodeInvalidAmount, "amount must be positive",
			map[string]string{"amount": e.Amount.String()})
	}

	balance := a.Balance(e.Wallet)
	switch dir {
	case models.Credit:
		balance = balance.Add(e.Amount)
	case models.Debit:
		if e.Amount > balance {
			return models.Transaction{}, apperr.WithMeta(apperr.CodeInsufficientBalance, "debit exceeds balance",
				map[string]string{
					"user":    a.UserID,
					"wallet":  string(e.Wallet),
					"balance": balance.String(),
					"amount":  e.Amount.String(),
				})
		}
		balance = balance.Sub(e.Amount)
	default:
		return models.Transaction{}, apperr.Newf(apperr.CodeInvalidInput, "unknown direction %q", dir)
	}

	tx := models.Transaction{
		ID:           id,
		Amount:       e.Amount,
		Direction:    dir,
		WalletType:   e.Wallet,
		Description:  e.Description,
		Reference:    e.Reference,
		BalanceAfter: balance,
		Timestamp:    at,
	}
	if e.Wallet == models.WalletHubber {
		a.HubberBalance = balance
	} else {
		a.RenterBalance = balance
	}
	a.Transactions = append(a.Transactions, tx)
	return tx, nil
}

// Verify checks that each wallet balance equals its credits minus its debits
// and never went negative along the way.
func Verify(a *models.LedgerAccount) error {
	sums := map[models.WalletType]money.Money{}
	for _, tx := range a.Transactions {
		switch tx.Direction {
		case models.Credit:
			sums[tx.WalletType] += tx.Amount
		case models.Debit:
			sums[tx.WalletType] -= tx.Amount
		}
		if sums[tx.WalletType].IsNegative() {
			return fmt.Errorf("wallet %s went negative at transaction %s", tx.WalletType, tx.ID)
		}
		if sums[tx.WalletType] != tx.BalanceAfter {
			return fmt.Errorf("transaction %s records balance %s, history gives %s", tx.ID, tx.BalanceAfter, sums[tx.WalletType])
		}
	}
	if sums[models.WalletRenter] != a.RenterBalance {
		return fmt.Errorf("renter balance %s, history gives %s", a.RenterBalance, sums[models.WalletRenter])
	}
	if sums[models.WalletHubber] != a.HubberBalance {
		return fmt.Errorf("hubber balance %s, history gives %s", a.HubberBalance, sums[models.WalletHubber])
	}
	return nil
}
