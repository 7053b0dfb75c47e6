package rules

import (
	"testing"

	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
)

func fullGoodsDraft() models.ListingDraft {
	price := money.FromMajor(15)
	return models.ListingDraft{
		Category:           models.CategoryGoods,
		Title:              "Trapano Professionale Bosch 18V",
		Description:        "Trapano avvitatore professionale a batteria, perfetto per lavori di fai-da-te.",
		Price:              &price,
		Location:           "Milano, MI",
		Images:             []string{"a.jpg", "b.jpg", "c.jpg"},
		CancellationPolicy: "flexible",
		Brand:              "Bosch",
		Features:           "2 batterie, valigetta",
	}
}

func TestScoreFullDraft(t *testing.T) {
	if got := Score(fullGoodsDraft()); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestScoreChecklist(t *testing.T) {
	tests := []struct {
		name string
		edit func(d *models.ListingDraft)
		want int
	}{
		{"short title", func(d *models.ListingDraft) { d.Title = "Drill" }, 90},
		{"short description", func(d *models.ListingDraft) { d.Description = "Nice drill" }, 85},
		{"no price", func(d *models.ListingDraft) { d.Price = nil }, 90},
		{"zero price", func(d *models.ListingDraft) { zero := money.Money(0); d.Price = &zero }, 90},
		{"negative price", func(d *models.ListingDraft) { neg := money.Money(-500); d.Price = &neg }, 90},
		{"blank location", func(d *models.ListingDraft) { d.Location = "   " }, 90},
		{"one image", func(d *models.ListingDraft) { d.Images = d.Images[:1] }, 90},
		{"no images", func(d *models.ListingDraft) { d.Images = nil }, 75},
		{"no policy", func(d *models.ListingDraft) { d.CancellationPolicy = "" }, 90},
		{"no brand", func(d *models.ListingDraft) { d.Brand = "" }, 90},
		{"short features", func(d *models.ListingDraft) { d.Features = "wifi" }, 90},
	}
	for _, tt := range tests {
		d := fullGoodsDraft()
		tt.edit(&d)
		if got := Score(d); got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestScoreSpaceFields(t *testing.T) {
	d := fullGoodsDraft()
	d.Category = models.CategorySpace
	if got := Score(d); got != 80 {
		t.Fatalf("space without area/capacity: expected 80, got %d", got)
	}
	d.AreaSqm = "150"
	d.Capacity = "50"
	if got := Score(d); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestScoreBoundedAndIdempotent(t *testing.T) {
	drafts := []models.ListingDraft{{}, fullGoodsDraft(), {Category: models.CategorySpace, Title: "Loft"}}
	for _, d := range drafts {
		first := Score(d)
		if first < 0 || first > 100 {
			t.Fatalf("score %d out of bounds", first)
		}
		if again := Score(d); again != first {
			t.Fatalf("score changed between calls: %d then %d", first, again)
		}
	}
	if got := Score(models.ListingDraft{}); got != 0 {
		t.Fatalf("expected empty draft to score 0, got %d", got)
	}
}

func TestScoreCountsRunes(t *testing.T) {
	d := models.ListingDraft{Title: "Città"} // 5 runes, 6 bytes
	if got := Score(d); got != 0 {
		t.Fatalf("expected 0 for five-rune title, got %d", got)
	}
}

func TestIsPublishable(t *testing.T) {
	d := fullGoodsDraft()
	d.Images = nil // 75
	if !IsPublishable(d, 70) {
		t.Fatal("expected publishable at threshold 70")
	}
	if IsPublishable(d, 80) {
		t.Fatal("expected not publishable at threshold 80")
	}
}
