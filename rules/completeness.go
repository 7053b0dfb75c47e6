package rules

import (
	"strings"
	"unicode/utf8"

	"github.com/francescopitzalis1989/Renthubber/models"
)

// Checklist weights.
const (
	weightTitle        = 10
	weightDescription  = 15
	weightPrice        = 10
	weightLocation     = 10
	weightFirstImage   = 15
	weightThreeImages  = 10
	weightPolicy       = 10
	weightCategoryItem = 10

	minTitleLen       = 5
	minDescriptionLen = 50
	minFeaturesLen    = 5

	maxScore = 100
)

// Score rates how filled-out a draft is, from 0 to 100.
func Score(d models.ListingDraft) int {
	score := 0
	if textLen(d.Title) > minTitleLen {
		score += weightTitle
	}
	if textLen(d.Description) > minDescriptionLen {
		score += weightDescription
	}
	if d.Price != nil && d.Price.IsPositive() {
		score += weightPrice
	}
	if textLen(d.Location) > 0 {
		score += weightLocation
	}
	if len(d.Images) >= 1 {
		score += weightFirstImage
	}
	if len(d.Images) >= 3 {
		score += weightThreeImages
	}
	if textLen(d.CancellationPolicy) > 0 {
		score += weightPolicy
	}

	switch d.Category {
	case models.CategoryGoods:
		if textLen(d.Brand) > 0 {
			score += weightCategoryItem
		}
		if textLen(d.Features) > minFeaturesLen {
			score += weightCategoryItem
		}
	case models.CategorySpace:
		if textLen(d.AreaSqm) > 0 {
			score += weightCategoryItem
		}
		if textLen(d.Capacity) > 0 {
			score += weightCategoryItem
		}
	}

	return min(score, maxScore)
}

// IsPublishable reports whether the draft meets the configured threshold.
func IsPublishable(d models.ListingDraft, threshold int) bool {
	return Score(d) >= threshold
}

func textLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
