package dispute_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/clock"
	"github.com/francescopitzalis1989/Renthubber/dispute"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/store"
)

func newMachine(t *testing.T) *dispute.Machine {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "dispute.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return dispute.New(s, clock.NewFixed(time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC)))
}

func TestOpenValidates(t *testing.T) {
	m := newMachine(t)
	tests := []struct {
		name     string
		reporter string
		target   string
		typ      models.DisputeType
		desc     string
	}{
		{"no reporter", "", "h1", models.DisputeDamage, "broken"},
		{"no target", "r1", "", models.DisputeDamage, "broken"},
		{"bad type", "r1", "h1", "fraud", "broken"},
		{"blank description", "r1", "h1", models.DisputeScam, "  "},
	}
	for _, tt := range tests {
		if _, err := m.Open(tt.reporter, tt.target, tt.typ, tt.desc); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("%s: expected INVALID_INPUT, got %v", tt.name, err)
		}
	}
}

func TestResolveAndDismissAreTerminal(t *testing.T) {
	m := newMachine(t)

	d, err := m.Open("r1", "h1", models.DisputeDamage, "Scratched lens")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	resolved, err := m.Resolve(d.ID, "Partial refund agreed")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != models.DisputeResolved || resolved.ResolutionNote != "Partial refund agreed" || resolved.ClosedAt == nil {
		t.Fatalf("unexpected dispute %+v", resolved)
	}
	if _, err := m.Resolve(d.ID, "again"); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}
	if _, err := m.Dismiss(d.ID, ""); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}

	d2, _ := m.Open("r1", "h1", models.DisputeRudeBehaviour, "Late and rude")
	dismissed, err := m.Dismiss(d2.ID, "")
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if dismissed.Status != models.DisputeDismissed {
		t.Fatalf("expected dismissed, got %s", dismissed.Status)
	}
	if _, err := m.Resolve(d2.ID, "late"); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}
}

func TestHooksFireAfterTransition(t *testing.T) {
	m := newMachine(t)
	var resolved, dismissed []string
	m.OnResolved(func(d models.Dispute) { resolved = append(resolved, d.ID) })
	m.OnDismissed(func(d models.Dispute) { dismissed = append(dismissed, d.ID) })

	a, _ := m.Open("r1", "h1", models.DisputeDamage, "Broken")
	b, _ := m.Open("r2", "h1", models.DisputeScam, "Never delivered")
	m.Resolve(a.ID, "ok")
	m.Dismiss(b.ID, "")
	m.Resolve(a.ID, "twice")

	if len(resolved) != 1 || resolved[0] != a.ID {
		t.Fatalf("unexpected resolved hooks %v", resolved)
	}
	if len(dismissed) != 1 || dismissed[0] != b.ID {
		t.Fatalf("unexpected dismissed hooks %v", dismissed)
	}
}

func TestOpenDisputeGate(t *testing.T) {
	m := newMachine(t)
	gate := dispute.OpenDisputeGate{Machine: m}

	if err := gate.AllowPayout("h1"); err != nil {
		t.Fatalf("expected payout allowed, got %v", err)
	}
	d, _ := m.Open("r1", "h1", models.DisputeDamage, "Broken")
	if err := gate.AllowPayout("h1"); !errors.Is(err, apperr.ErrPayoutBlocked) {
		t.Fatalf("expected PAYOUT_BLOCKED, got %v", err)
	}
	if err := gate.AllowPayout("h2"); err != nil {
		t.Fatalf("other hubber should not be blocked: %v", err)
	}
	m.Dismiss(d.ID, "")
	if err := gate.AllowPayout("h1"); err != nil {
		t.Fatalf("expected payout allowed after dismissal, got %v", err)
	}
}
