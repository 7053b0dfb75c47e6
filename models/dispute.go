package models

import "time"

// DisputeType classifies what a dispute is about.
type DisputeType string

const (
	DisputeDamage        DisputeType = "damage"
	DisputeScam          DisputeType = "scam"
	DisputeRudeBehaviour DisputeType = "rude_behavior"
)

// DisputeStatus is the lifecycle state of a dispute. Anything other than
// open is terminal.
type DisputeStatus string

const (
	DisputeOpen      DisputeStatus = "open"
	DisputeResolved  DisputeStatus = "resolved"
	DisputeDismissed DisputeStatus = "dismissed"
)

// Dispute is a complaint raised by one participant against another user or
// listing.
type Dispute struct {
	// ID is generated by the engine when the dispute is opened.
	ID string `json:"id"`

	// ReporterID is the user who raised the dispute.
	ReporterID string `json:"reporterId"`

	// TargetID is the user (or listing) the dispute is about. When it names
	// a hubber, an open dispute can gate that hubber's payouts.
	TargetID string `json:"targetId"`

	Type        DisputeType   `json:"type"`
	Description string        `json:"description"`
	Status      DisputeStatus `json:"status"`

	// ResolutionNote is attached by the admin closing the dispute.
	ResolutionNote string `json:"resolutionNote,omitempty"`

	OpenedAt time.Time  `json:"openedAt"`
	ClosedAt *time.Time `json:"closedAt,omitempty"`
}

// ValidDisputeType reports whether t is a known type.
func ValidDisputeType(t DisputeType) bool {
	switch t {
	case DisputeDamage, DisputeScam, DisputeRudeBehaviour:
		return true
	}
	return false
}
