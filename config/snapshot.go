package config

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
)

// DefaultSnapshot is the configuration a fresh installation starts with.
func DefaultSnapshot() models.Snapshot {
	return models.Snapshot{
		Version: 1,
		Fees: models.FeeConfig{
			PlatformPercentage:    decimal.NewFromInt(10),
			RenterPercentage:      decimal.NewFromInt(10),
			HubberPercentage:      decimal.NewFromInt(10),
			SuperHubberPercentage: decimal.NewFromInt(5),
			FixedFeeMinorUnits:    money.FromMajor(2),
		},
		Referral: models.ReferralConfig{
			IsActive:    true,
			BonusAmount: money.FromMajor(10),
		},
		CancellationPolicies: []models.CancellationPolicy{
			{ID: "flexible", Label: "Flexible", RefundPercentage: decimal.NewFromInt(100), CutoffHours: 24},
			{ID: "moderate", Label: "Moderate", RefundPercentage: decimal.NewFromInt(100), CutoffHours: 120},
			{ID: "strict", Label: "Strict", RefundPercentage: decimal.NewFromInt(50), CutoffHours: 168},
		},
		CompletenessThreshold: 70,
		SuperHubber: models.SuperHubberConfig{
			MinRating:             4.7,
			MinResponseRate:       90,
			MaxCancellationRate:   1.0,
			MinHostingDays:        90,
			RequiredCriteriaCount: 3,
		},
	}
}

// SnapshotStore persists snapshots across restarts.
type SnapshotStore interface {
	GetSnapshot() (*models.Snapshot, error)
	PutSnapshot(s *models.Snapshot) error
}

// Holder publishes the current snapshot. Readers get an immutable value and
// never see a half-applied update; writers replace the whole snapshot.
type Holder struct {
	store   SnapshotStore
	writeMu sync.Mutex
	current atomic.Pointer[models.Snapshot]
}

// NewHolder loads the persisted snapshot, seeding and persisting
// DefaultSnapshot on first start.
func NewHolder(s SnapshotStore) (*Holder, error) {
	h := &Holder{store: s}
	snap, err := s.GetSnapshot()
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		def := DefaultSnapshot()
		if err := s.PutSnapshot(&def); err != nil {
			return nil, fmt.Errorf("seed config snapshot: %w", err)
		}
		snap = &def
	case err != nil:
		return nil, fmt.Errorf("load config snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("stored config snapshot v%d: %w", snap.Version, err)
	}
	h.current.Store(clone(snap))
	return h, nil
}

// Current returns the live snapshot. The value must not be modified.
func (h *Holder) Current() *models.Snapshot {
	return h.current.Load()
}

// Swap validates next, assigns it the following version, persists it, and
// publishes it. On any error the current snapshot stays in place.
func (h *Holder) Swap(next models.Snapshot) (*models.Snapshot, error) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.Version = h.current.Load().Version + 1
	published := clone(&next)
	if err := h.store.PutSnapshot(published); err != nil {
		return nil, fmt.Errorf("persist config snapshot: %w", err)
	}
	h.current.Store(published)
	log.Printf("config: published snapshot v%d", published.Version)
	return published, nil
}

func clone(s *models.Snapshot) *models.Snapshot {
	c := *s
	c.CancellationPolicies = append([]models.CancellationPolicy(nil), s.CancellationPolicies...)
	return &c
}
