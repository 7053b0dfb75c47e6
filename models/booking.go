package models

import (
	"time"

	"github.com/francescopitzalis1989/Renthubber/money"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingRejected  BookingStatus = "rejected"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a renter's reservation of a hubber's listing.
type Booking struct {
	ID        string `json:"id"`
	ListingID string `json:"listingId"`
	RenterID  string `json:"renterId"`
	HostID    string `json:"hostId"`

	// Total is what the renter pays for the booking.
	Total money.Money `json:"total"`

	// Paid is what the renter wallet was actually debited for this booking.
	// Refunds are computed on Paid, never on Total.
	Paid   money.Money `json:"paid"`
	PaidAt *time.Time  `json:"paidAt,omitempty"`

	// Commission and NetEarnings are filled in at completion. Commission is
	// the fee retained by the platform; NetEarnings is credited to the host.
	Commission  money.Money `json:"commission"`
	NetEarnings money.Money `json:"netEarnings"`

	// Refund is credited to the renter wallet when the booking is cancelled.
	Refund money.Money `json:"refund"`

	Status   BookingStatus `json:"status"`
	PolicyID string        `json:"policyId"`
	StartsAt time.Time     `json:"startsAt"`

	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	// ConfigVersion is the config snapshot version used to settle or refund
	// the booking.
	ConfigVersion int64 `json:"configVersion,omitempty"`
}
