package models

import (
	"fmt"
	"time"

	"github.com/francescopitzalis1989/Renthubber/money"
)

// InvoiceStatus is always paid at generation: the commission it documents was
// already retained when each booking settled. It is not a payment state.
type InvoiceStatus string

const InvoicePaid InvoiceStatus = "paid"

// Period is a calendar month in UTC. It encodes as "YYYY-MM".
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod reads "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// Start returns the first instant of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant after the period.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start()) && t.Before(p.End())
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Invoice documents the commission retained from one hubber's completed
// bookings in one period.
type Invoice struct {
	ID       string `json:"id"`
	Number   string `json:"number"`
	HubberID string `json:"hubberId"`
	Period   Period `json:"period"`

	// Amount is the sum of the included bookings' commission. Zero when the
	// hubber completed nothing in the period.
	Amount     money.Money   `json:"amount"`
	BookingIDs []string      `json:"bookingIds"`
	Status     InvoiceStatus `json:"status"`
	IssuedAt   time.Time     `json:"issuedAt"`
}
