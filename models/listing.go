package models

import "github.com/francescopitzalis1989/Renthubber/money"

// ListingCategory distinguishes rentable goods from rentable spaces.
type ListingCategory string

const (
	CategoryGoods ListingCategory = "goods"
	CategorySpace ListingCategory = "space"
)

// ListingDraft is a listing being edited before publication. Only the fields
// the completeness score looks at are modelled.
type ListingDraft struct {
	Category    ListingCategory `json:"category"`
	Title       string          `json:"title"`
	Description string          `json:"description"`

	// Price is nil until the hubber enters one.
	Price *money.Money `json:"price,omitempty"`

	Location           string   `json:"location"`
	Images             []string `json:"images"`
	CancellationPolicy string   `json:"cancellationPolicy"`

	// Goods only.
	Brand    string `json:"brand,omitempty"`
	Features string `json:"features,omitempty"`

	// Spaces only.
	AreaSqm  string `json:"areaSqm,omitempty"`
	Capacity string `json:"capacity,omitempty"`
}
