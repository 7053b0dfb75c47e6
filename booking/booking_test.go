package booking_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/booking"
	"github.com/francescopitzalis1989/Renthubber/clock"
	"github.com/francescopitzalis1989/Renthubber/config"
	"github.com/francescopitzalis1989/Renthubber/ledger"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
	"github.com/francescopitzalis1989/Renthubber/store"
)

var now = time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store   *store.Store
	book    *ledger.Book
	clock   *clock.Fixed
	manager *booking.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "booking.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	holder, err := config.NewHolder(s)
	if err != nil {
		t.Fatalf("config holder: %v", err)
	}
	c := clock.NewFixed(now)
	book := ledger.New(s, c)
	return &fixture{store: s, book: book, clock: c, manager: booking.New(s, book, holder, c)}
}

func (f *fixture) create(t *testing.T, total money.Money, policy string, startsIn time.Duration) *models.Booking {
	t.Helper()
	b, err := f.manager.Create(booking.Request{
		ListingID: "loft-1",
		RenterID:  "renter1",
		HostID:    "host1",
		Total:     total,
		PolicyID:  policy,
		StartsAt:  now.Add(startsIn),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return b
}

// paid returns an accepted booking the renter paid for from a wallet funded
// with exactly the total.
func (f *fixture) paid(t *testing.T, total money.Money, policy string, startsIn time.Duration) *models.Booking {
	t.Helper()
	b := f.create(t, total, policy, startsIn)
	if _, err := f.manager.Accept(b.ID, "host1"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	f.fund(t, "renter1", total)
	if _, err := f.manager.Pay(b.ID, "renter1"); err != nil {
		t.Fatalf("pay: %v", err)
	}
	return b
}

func (f *fixture) fund(t *testing.T, user string, amount money.Money) {
	t.Helper()
	_, err := f.book.Credit(user, ledger.Entry{Wallet: models.WalletRenter, Amount: amount, Description: "Top up"})
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func (f *fixture) account(t *testing.T, user string) *models.LedgerAccount {
	t.Helper()
	a, err := f.book.Account(user)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	return a
}

func TestCreateValidates(t *testing.T) {
	f := newFixture(t)
	base := booking.Request{ListingID: "l1", RenterID: "r1", HostID: "h1", Total: 1000, PolicyID: "flexible", StartsAt: now}

	tests := []struct {
		name string
		edit func(r *booking.Request)
		want error
	}{
		{"zero total", func(r *booking.Request) { r.Total = 0 }, apperr.ErrInvalidAmount},
		{"own listing", func(r *booking.Request) { r.HostID = r.RenterID }, apperr.ErrInvalidInput},
		{"unknown policy", func(r *booking.Request) { r.PolicyID = "lenient" }, apperr.ErrInvalidInput},
		{"no listing", func(r *booking.Request) { r.ListingID = "" }, apperr.ErrInvalidInput},
	}
	for _, tt := range tests {
		r := base
		tt.edit(&r)
		if _, err := f.manager.Create(r); !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestOnlyHostAcceptsOrRejects(t *testing.T) {
	f := newFixture(t)
	b, _ := f.manager.Create(booking.Request{ListingID: "l1", RenterID: "r1", HostID: "h1", Total: 1000, PolicyID: "flexible", StartsAt: now})

	if _, err := f.manager.Accept(b.ID, "r1"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	if _, err := f.manager.Reject(b.ID, "h1"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.manager.Accept(b.ID, "h1"); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}
}

func TestCompleteCreditsHostOnce(t *testing.T) {
	f := newFixture(t)
	b := f.paid(t, money.FromMajor(100), "flexible", 48*time.Hour)

	done, err := f.manager.Complete(b.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	// Default snapshot: 10% hubber commission plus a 2.00 fixed fee.
	if done.Commission != money.FromMajor(12) || done.NetEarnings != money.FromMajor(88) {
		t.Fatalf("unexpected split commission=%s net=%s", done.Commission, done.NetEarnings)
	}
	if done.ConfigVersion != 1 || done.CompletedAt == nil {
		t.Fatalf("unexpected booking %+v", done)
	}
	if got := f.account(t, "host1").HubberBalance; got != money.FromMajor(88) {
		t.Fatalf("expected host balance 88.00, got %s", got)
	}

	if _, err := f.manager.Complete(b.ID); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}
	if got := f.account(t, "host1").HubberBalance; got != money.FromMajor(88) {
		t.Fatalf("expected host balance unchanged, got %s", got)
	}
}

func TestCompleteRequiresAcceptance(t *testing.T) {
	f := newFixture(t)
	b, _ := f.manager.Create(booking.Request{ListingID: "l1", RenterID: "r1", HostID: "h1", Total: 1000, PolicyID: "flexible", StartsAt: now})
	if _, err := f.manager.Complete(b.ID); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}
}

func TestCompleteUsesSuperHubberRateAndOverride(t *testing.T) {
	f := newFixture(t)
	if err := f.store.PutProfile(&models.Profile{UserID: "host1", Roles: models.Roles{models.RoleHubber, models.RoleSuperHubber}}); err != nil {
		t.Fatalf("put profile: %v", err)
	}
	b := f.paid(t, money.FromMajor(100), "flexible", 48*time.Hour)
	done, err := f.manager.Complete(b.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Commission != money.FromMajor(7) {
		t.Fatalf("expected superhubber commission 7.00, got %s", done.Commission)
	}

	rate := decimal.NewFromInt(3)
	if err := f.store.PutProfile(&models.Profile{UserID: "host1", Roles: models.Roles{models.RoleHubber}, CustomCommissionRate: &rate}); err != nil {
		t.Fatalf("put profile: %v", err)
	}
	b2 := f.paid(t, money.FromMajor(100), "flexible", 48*time.Hour)
	done2, err := f.manager.Complete(b2.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done2.Commission != money.FromMajor(5) {
		t.Fatalf("expected custom commission 5.00, got %s", done2.Commission)
	}
}

func TestCancelRefundsPerPolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   string
		startsIn time.Duration
		want     money.Money
	}{
		{"flexible early", "flexible", 30 * time.Hour, money.FromMajor(50)},
		{"flexible late", "flexible", 10 * time.Hour, 0},
		{"strict early", "strict", 200 * time.Hour, money.FromMajor(25)},
		{"already started", "flexible", -2 * time.Hour, 0},
	}
	for _, tt := range tests {
		f := newFixture(t)
		b := f.paid(t, money.FromMajor(50), tt.policy, tt.startsIn)

		done, err := f.manager.Cancel(b.ID, "renter1")
		if err != nil {
			t.Fatalf("%s: cancel: %v", tt.name, err)
		}
		if done.Refund != tt.want || done.Status != models.BookingCancelled {
			t.Fatalf("%s: expected refund %s, got %s (%s)", tt.name, tt.want, done.Refund, done.Status)
		}
		if got := f.account(t, "renter1").RenterBalance; got != tt.want {
			t.Fatalf("%s: expected renter balance %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestCancelRules(t *testing.T) {
	f := newFixture(t)
	b := f.paid(t, money.FromMajor(50), "flexible", 30*time.Hour)

	if _, err := f.manager.Cancel(b.ID, "stranger"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	if _, err := f.manager.Cancel(b.ID, "host1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.manager.Cancel(b.ID, "renter1"); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}
	if got := f.account(t, "renter1").RenterBalance; got != money.FromMajor(50) {
		t.Fatalf("expected a single refund of 50.00, got %s", got)
	}
}

func TestSettleMatchesCompletion(t *testing.T) {
	f := newFixture(t)
	snap := config.DefaultSnapshot()
	quote, err := booking.Settle(money.FromMinor(12345), models.Profile{Roles: models.Roles{models.RoleHubber}}, &snap)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	b := f.paid(t, money.FromMinor(12345), "moderate", 300*time.Hour)
	done, err := f.manager.Complete(b.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Commission != quote.PlatformFee || done.NetEarnings != quote.NetAmount {
		t.Fatalf("quote %s/%s differs from settlement %s/%s",
			quote.PlatformFee, quote.NetAmount, done.Commission, done.NetEarnings)
	}
}

func TestPayDebitsRenterOnce(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, money.FromMajor(40), "flexible", 48*time.Hour)

	if _, err := f.manager.Pay(b.ID, "renter1"); !errors.Is(err, apperr.ErrInsufficientBalance) {
		t.Fatalf("expected INSUFFICIENT_BALANCE, got %v", err)
	}
	f.fund(t, "renter1", money.FromMajor(100))
	if _, err := f.manager.Pay(b.ID, "host1"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	done, err := f.manager.Pay(b.ID, "renter1")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if done.Paid != money.FromMajor(40) || done.PaidAt == nil || done.Status != models.BookingPending {
		t.Fatalf("unexpected booking %+v", done)
	}
	if _, err := f.manager.Pay(b.ID, "renter1"); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}
	if got := f.account(t, "renter1").RenterBalance; got != money.FromMajor(60) {
		t.Fatalf("expected renter balance 60.00, got %s", got)
	}
}

func TestUnpaidCancelRefundsNothing(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, money.FromMajor(500), "flexible", 72*time.Hour)

	done, err := f.manager.Cancel(b.ID, "renter1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if done.Refund != 0 || done.Status != models.BookingCancelled {
		t.Fatalf("unpaid booking refunded %s (%s)", done.Refund, done.Status)
	}
	acct := f.account(t, "renter1")
	if acct.RenterBalance != 0 || len(acct.Transactions) != 0 {
		t.Fatalf("unpaid cancellation touched the wallet: %+v", acct)
	}
	if _, err := f.manager.Pay(b.ID, "renter1"); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION paying a cancelled booking, got %v", err)
	}
}

func TestCompleteRequiresPayment(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, money.FromMajor(100), "flexible", 48*time.Hour)
	if _, err := f.manager.Accept(b.ID, "host1"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.manager.Complete(b.ID); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}
	if got := f.account(t, "host1").HubberBalance; got != 0 {
		t.Fatalf("unpaid booking credited the host %s", got)
	}
}

type failingWrites struct {
	*ledger.Book
	fail bool
}

func (f *failingWrites) Credit(userID string, e ledger.Entry, also ...ledger.Write) (models.Transaction, error) {
	if f.fail {
		also = append(also, func(*store.Tx) error { return errors.New("disk full") })
	}
	return f.Book.Credit(userID, e, also...)
}

func TestFailedSettlementWriteLeavesBookingAccepted(t *testing.T) {
	f := newFixture(t)
	b := f.paid(t, money.FromMajor(100), "flexible", 48*time.Hour)
	holder, _ := config.NewHolder(f.store)
	writes := &failingWrites{Book: f.book, fail: true}
	m := booking.New(f.store, writes, holder, f.clock)

	if _, err := m.Complete(b.ID); err == nil {
		t.Fatal("expected write failure")
	}
	if got := f.account(t, "host1").HubberBalance; got != 0 {
		t.Fatalf("failed completion credited the host %s", got)
	}
	if stored, _ := m.Get(b.ID); stored.Status != models.BookingAccepted {
		t.Fatalf("failed completion changed status to %s", stored.Status)
	}

	writes.fail = false
	if _, err := m.Complete(b.ID); err != nil {
		t.Fatalf("retry complete: %v", err)
	}
	acct := f.account(t, "host1")
	if acct.HubberBalance != money.FromMajor(88) || len(acct.Transactions) != 1 {
		t.Fatalf("expected a single 88.00 credit, got %+v", acct)
	}
}

func TestFailedRefundWriteLeavesBookingOpen(t *testing.T) {
	f := newFixture(t)
	b := f.paid(t, money.FromMajor(50), "flexible", 30*time.Hour)
	holder, _ := config.NewHolder(f.store)
	writes := &failingWrites{Book: f.book, fail: true}
	m := booking.New(f.store, writes, holder, f.clock)

	if _, err := m.Cancel(b.ID, "renter1"); err == nil {
		t.Fatal("expected write failure")
	}
	if got := f.account(t, "renter1").RenterBalance; got != 0 {
		t.Fatalf("failed cancellation refunded %s", got)
	}
	if stored, _ := m.Get(b.ID); stored.Status != models.BookingAccepted {
		t.Fatalf("failed cancellation changed status to %s", stored.Status)
	}

	writes.fail = false
	if _, err := m.Cancel(b.ID, "renter1"); err != nil {
		t.Fatalf("retry cancel: %v", err)
	}
	if got := f.account(t, "renter1").RenterBalance; got != money.FromMajor(50) {
		t.Fatalf("expected a single 50.00 refund, got %s", got)
	}
}
