package models

import (
	"time"

	"github.com/francescopitzalis1989/Renthubber/money"
)

// PayoutStatus is the lifecycle state of a payout request.
type PayoutStatus string

const (
	PayoutPending  PayoutStatus = "pending"
	PayoutApproved PayoutStatus = "approved"
	PayoutRejected PayoutStatus = "rejected"
)

// PayoutDecision is an admin's verdict on a pending request.
type PayoutDecision string

const (
	DecisionApprove PayoutDecision = "approve"
	DecisionReject  PayoutDecision = "reject"
)

// PayoutRequest asks for a transfer of hubber balance to a bank account.
// The balance is not held when the request is created.
type PayoutRequest struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Amount      money.Money  `json:"amount"`
	IBAN        string       `json:"iban"`
	Status      PayoutStatus `json:"status"`
	RequestedAt time.Time    `json:"requestedAt"`
	ProcessedAt *time.Time   `json:"processedAt,omitempty"`

	// TransactionID is the ledger debit recorded on approval.
	TransactionID string `json:"transactionId,omitempty"`
}
