package payout

import (
	"errors"
	"fmt"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/models"
)

// ProfileSource loads user profiles. Unknown users yield an error matching
// apperr.ErrNotFound.
type ProfileSource interface {
	GetProfile(userID string) (*models.Profile, error)
}

// SuspensionGate blocks payouts for suspended users. Users without a stored
// profile are not suspended.
type SuspensionGate struct {
	Profiles ProfileSource
}

func (g SuspensionGate) AllowPayout(userID string) error {
	p, err := g.Profiles.GetProfile(userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load profile %s: %w", userID, err)
	}
	if p.Suspended {
		return apperr.WithMeta(apperr.CodePayoutBlocked, "account is suspended",
			map[string]string{"user": userID})
	}
	return nil
}
