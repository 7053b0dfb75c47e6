// Package invoice rolls a hubber's settled bookings up into monthly
// commission invoices.
package invoice

import (
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/clock"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
)

// Totals is the result of aggregating bookings for one hubber and period.
type Totals struct {
	Amount     money.Money
	BookingIDs []string
}

// Aggregate sums the commission of the bookings hosted by hubberID that were
// completed inside period. No matching bookings gives a zero total.
func Aggregate(hubberID string, period models.Period, bookings []models.Booking) Totals {
	t := Totals{BookingIDs: []string{}}
	for _, b := range bookings {
		if b.HostID != hubberID || b.Status != models.BookingCompleted || b.CompletedAt == nil {
			continue
		}
		if !period.Contains(*b.CompletedAt) {
			continue
		}
		t.Amount = t.Amount.Add(b.Commission)
		t.BookingIDs = append(t.BookingIDs, b.ID)
	}
	sort.Strings(t.BookingIDs)
	return t
}

// Number formats an invoice number, e.g. INV-2024-007.
func Number(year int, seq uint64) string {
	return fmt.Sprintf("INV-%04d-%03d", year, seq)
}

// Store is the persistence the generator needs.
type Store interface {
	ListBookings(hostID string) ([]models.Booking, error)
	CreateInvoice(inv *models.Invoice, number func(seq uint64) string) (*models.Invoice, bool, error)
	ListInvoices(hubberID string) ([]models.Invoice, error)
}

// Generator issues invoices.
type Generator struct {
	store Store
	clock clock.Clock
}

// NewGenerator returns a Generator.
func NewGenerator(s Store, c clock.Clock) *Generator {
	return &Generator{store: s, clock: c}
}

// Generate issues the invoice of hubberID for period. The invoice is marked
// paid because its commission was retained when each booking settled.
//
// An invoice already issued for the same hubber and period is returned as is
// with created=false; nothing is recomputed or written.
func (g *Generator) Generate(hubberID string, period models.Period) (*models.Invoice, bool, error) {
	if hubberID == "" {
		return nil, false, apperr.New(apperr.CodeInvalidInput, "hubber id is empty")
	}
	bookings, err := g.store.ListBookings(hubberID)
	if err != nil {
		return nil, false, fmt.Errorf("list bookings of %s: %w", hubberID, err)
	}
	totals := Aggregate(hubberID, period, bookings)

	inv := &models.Invoice{
		ID:         uuid.NewString(),
		HubberID:   hubberID,
		Period:     period,
		Amount:     totals.Amount,
		BookingIDs: totals.BookingIDs,
		Status:     models.InvoicePaid,
		IssuedAt:   g.clock.Now(),
	}
	result, created, err := g.store.CreateInvoice(inv, func(seq uint64) string {
		return Number(period.Year, seq)
	})
	if err != nil {
		return nil, false, fmt.Errorf("create invoice for %s %s: %w", hubberID, period, err)
	}
	if created {
		log.Printf("invoice: issued %s hubber=%s period=%s amount=%s bookings=%d",
			result.Number, hubberID, period, result.Amount, len(result.BookingIDs))
	}
	return result, created, nil
}

// List returns the invoices of hubberID, or all when it is empty.
func (g *Generator) List(hubberID string) ([]models.Invoice, error) {
	return g.store.ListInvoices(hubberID)
}
