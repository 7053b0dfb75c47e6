package rules

import "github.com/francescopitzalis1989/Renthubber/models"

// Assessment is the per-criterion breakdown of a SuperHubber evaluation.
type Assessment struct {
	Rating           bool `json:"rating"`
	ResponseRate     bool `json:"responseRate"`
	CancellationRate bool `json:"cancellationRate"`
	HostingDays      bool `json:"hostingDays"`
	Passed           int  `json:"passed"`
	Required         int  `json:"required"`
	Eligible         bool `json:"eligible"`
}

// AssessSuperHubber checks the four criteria independently.
//
// cfg must have passed SuperHubberConfig.Validate; RequiredCriteriaCount is
// not re-checked here.
func AssessSuperHubber(m models.SuperHubberMetrics, cfg models.SuperHubberConfig) Assessment {
	a := Assessment{
		Rating:           m.Rating >= cfg.MinRating,
		ResponseRate:     m.ResponseRatePercent >= cfg.MinResponseRate,
		CancellationRate: m.CancellationRatePercent <= cfg.MaxCancellationRate,
		HostingDays:      m.HostingDays >= cfg.MinHostingDays,
		Required:         cfg.RequiredCriteriaCount,
	}
	for _, ok := range []bool{a.Rating, a.ResponseRate, a.CancellationRate, a.HostingDays} {
		if ok {
			a.Passed++
		}
	}
	a.Eligible = a.Passed >= cfg.RequiredCriteriaCount
	return a
}

// EvaluateSuperHubber reports whether the metrics satisfy at least
// RequiredCriteriaCount of the four criteria.
func EvaluateSuperHubber(m models.SuperHubberMetrics, cfg models.SuperHubberConfig) bool {
	return AssessSuperHubber(m, cfg).Eligible
}
