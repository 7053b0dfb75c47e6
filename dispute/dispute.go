// Package dispute implements the dispute lifecycle.
//
//	open ──resolve──▶ resolved
//	  └───dismiss──▶ dismissed
//
// Both outcomes are terminal. Closing a dispute has no ledger effect; callers
// that need compensating entries register an OnResolved hook.
package dispute

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/clock"
	"github.com/francescopitzalis1989/Renthubber/keylock"
	"github.com/francescopitzalis1989/Renthubber/models"
)

// Store is the persistence the machine needs.
type Store interface {
	GetDispute(id string) (*models.Dispute, error)
	PutDispute(d *models.Dispute) error
	ListDisputes() ([]models.Dispute, error)
}

// Hook observes a dispute after its closing transition has been stored.
type Hook func(d models.Dispute)

// Machine drives disputes through their lifecycle.
type Machine struct {
	store Store
	clock clock.Clock
	locks keylock.Locker

	onResolved  []Hook
	onDismissed []Hook
}

// New returns a Machine.
func New(s Store, c clock.Clock) *Machine {
	return &Machine{store: s, clock: c}
}

// OnResolved registers h to run after each resolution. Hooks must be
// registered before the machine is used.
func (m *Machine) OnResolved(h Hook) { m.onResolved = append(m.onResolved, h) }

// OnDismissed registers h to run after each dismissal.
func (m *Machine) OnDismissed(h Hook) { m.onDismissed = append(m.onDismissed, h) }

// Open records a new dispute.
func (m *Machine) Open(reporterID, targetID string, typ models.DisputeType, description string) (*models.Dispute, error) {
	if reporterID == "" || targetID == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "reporter and target are required")
	}
	if !models.ValidDisputeType(typ) {
		return nil, apperr.Newf(apperr.CodeInvalidInput, "unknown dispute type %q", typ)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "description is required")
	}

	d := &models.Dispute{
		ID:          uuid.NewString(),
		ReporterID:  reporterID,
		TargetID:    targetID,
		Type:        typ,
		Description: description,
		Status:      models.DisputeOpen,
		OpenedAt:    m.clock.Now(),
	}
	if err := m.store.PutDispute(d); err != nil {
		return nil, fmt.Errorf("persist dispute: %w", err)
	}
	log.Printf("dispute: opened %s type=%s reporter=%s target=%s", d.ID, typ, reporterID, targetID)
	return d, nil
}

// Resolve closes an open dispute in the reporter's favour.
func (m *Machine) Resolve(id, note string) (*models.Dispute, error) {
	return m.close(id, models.DisputeResolved, note, m.onResolved)
}

// Dismiss closes an open dispute without action. The note is optional.
func (m *Machine) Dismiss(id, note string) (*models.Dispute, error) {
	return m.close(id, models.DisputeDismissed, note, m.onDismissed)
}

func (m *Machine) close(id string, to models.DisputeStatus, note string, hooks []Hook) (*models.Dispute, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	current, err := m.store.GetDispute(id)
	if err != nil {
		return nil, fmt.Errorf("load dispute %s: %w", id, err)
	}
	if current.Status != models.DisputeOpen {
		return nil, apperr.WithMeta(apperr.CodeInvalidStateTransition, "dispute already closed",
			map[string]string{"dispute": id, "status": string(current.Status)})
	}

	next := *current
	now := m.clock.Now()
	next.Status = to
	next.ResolutionNote = strings.TrimSpace(note)
	next.ClosedAt = &now
	if err := m.store.PutDispute(&next); err != nil {
		return nil, fmt.Errorf("persist dispute %s: %w", id, err)
	}
	log.Printf("dispute: %s %s", to, id)

	for _, h := range hooks {
		h(next)
	}
	return &next, nil
}

// Get returns one dispute.
func (m *Machine) Get(id string) (*models.Dispute, error) {
	return m.store.GetDispute(id)
}

// List returns every dispute.
func (m *Machine) List() ([]models.Dispute, error) {
	return m.store.ListDisputes()
}

// OpenAgainst returns the open disputes whose target is userID.
func (m *Machine) OpenAgainst(userID string) ([]models.Dispute, error) {
	all, err := m.store.ListDisputes()
	if err != nil {
		return nil, err
	}
	var out []models.Dispute
	for _, d := range all {
		if d.TargetID == userID && d.Status == models.DisputeOpen {
			out = append(out, d)
		}
	}
	return out, nil
}

// OpenDisputeGate blocks payouts to users that are the target of an open
// dispute. It satisfies payout.Gate.
type OpenDisputeGate struct {
	Machine *Machine
}

func (g OpenDisputeGate) AllowPayout(userID string) error {
	open, err := g.Machine.OpenAgainst(userID)
	if err != nil {
		return err
	}
	if len(open) > 0 {
		return apperr.WithMeta(apperr.CodePayoutBlocked, "user has open disputes",
			map[string]string{"user": userID, "dispute": open[0].ID})
	}
	return nil
}
