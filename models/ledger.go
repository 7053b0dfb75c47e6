package models

import (
	"fmt"
	"time"

	"github.com/francescopitzalis1989/Renthubber/money"
)

// WalletType names one of the two independent balances of an account.
type WalletType string

const (
	WalletRenter WalletType = "renter"
	WalletHubber WalletType = "hubber"
)

// ParseWalletType validates a wallet name.
func ParseWalletType(s string) (WalletType, error) {
	switch w := WalletType(s); w {
	case WalletRenter, WalletHubber:
		return w, nil
	}
	return "", fmt.Errorf("unknown wallet type %q", s)
}

// Direction is the sign of a ledger transaction.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// Transaction is one append-only ledger entry. Amount is always positive;
// Direction carries the sign.
type Transaction struct {
	ID          string      `json:"id"`
	Amount      money.Money `json:"amount"`
	Direction   Direction   `json:"direction"`
	WalletType  WalletType  `json:"walletType"`
	Description string      `json:"description"`

	// Reference links the entry to the command that caused it, e.g. a payout
	// request id or "booking:<id>".
	Reference string `json:"reference,omitempty"`

	// BalanceAfter is the wallet balance once this entry is applied.
	BalanceAfter money.Money `json:"balanceAfter"`

	Timestamp time.Time `json:"timestamp"`
}

// LedgerAccount holds a user's two wallets and their full history in append
// order.
type LedgerAccount struct {
	UserID        string        `json:"userId"`
	RenterBalance money.Money   `json:"renterBalance"`
	HubberBalance money.Money   `json:"hubberBalance"`
	Transactions  []Transaction `json:"transactions"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Balance returns the balance of the named wallet.
func (a *LedgerAccount) Balance(w WalletType) money.Money {
	if w == WalletHubber {
		return a.HubberBalance
	}
	return a.RenterBalance
}

// Clone returns a deep copy so callers can mutate without aliasing history.
func (a *LedgerAccount) Clone() *LedgerAccount {
	c := *a
	c.Transactions = append([]Transaction(nil), a.Transactions...)
	return &c
}
