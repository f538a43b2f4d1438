// internal/engine/ranking/scorer.go
// Package ranking computes composite relevance scores and defines the total
// ordering over qualifying schemes.
package ranking

import (
	"sort"
	"time"

	"yojana-workers/internal/models"
)

// urgencyWindowDays is the deadline window that earns an urgency bonus.
// Schemes closing within it score proportionally higher; schemes farther out
// contribute 0 urgency. Distance past the window is never penalized further.
const urgencyWindowDays = 30

// DefaultWeights sum to 1 and are overridable per user.
var DefaultWeights = models.ScoreWeights{
	Benefit:    0.35,
	Deadline:   0.25,
	Margin:     0.25,
	Preference: 0.15,
}

// CatalogStats carries catalog-wide normalization constants computed once per
// matching call from the same snapshot the qualifier saw.
type CatalogStats struct {
	MaxBenefit float64
}

// ComputeCatalogStats scans the snapshot for the catalog-wide max benefit.
func ComputeCatalogStats(schemes []models.Scheme) CatalogStats {
	var stats CatalogStats
	for i := range schemes {
		if schemes[i].BenefitAmount > stats.MaxBenefit {
			stats.MaxBenefit = schemes[i].BenefitAmount
		}
	}
	return stats
}

type Scorer struct {
	weights models.ScoreWeights
}

func NewScorer(weights models.ScoreWeights) *Scorer {
	if weights.Sum() == 0 {
		weights = DefaultWeights
	}
	return &Scorer{weights: weights}
}

// Score computes the composite relevance score of a qualifying scheme:
//
//	w_benefit·normBenefit + w_deadline·urgency + w_margin·(1−normMargin) + w_pref·prefWeight
//
// A smaller eligibility margin means the user only just clears the bar, which
// ranks the scheme higher on the margin term.
func (s *Scorer) Score(scheme *models.Scheme, qual *models.Qualification, prefs *models.Preferences, stats CatalogStats, now time.Time) (float64, models.RankingFactors) {
	w := s.weights
	if prefs != nil && prefs.Weights != nil {
		w = *prefs.Weights
	}

	factors := models.RankingFactors{
		NormalizedBenefit: normalizedBenefit(scheme.BenefitAmount, stats.MaxBenefit),
		Urgency:           Urgency(scheme.Deadline, now),
		MarginCloseness:   1 - clamp01(qual.EligibilityMargin),
		PreferenceWeight:  prefs.BoostFor(scheme.Category),
	}

	score := w.Benefit*factors.NormalizedBenefit +
		w.Deadline*factors.Urgency +
		w.Margin*factors.MarginCloseness +
		w.Preference*factors.PreferenceWeight

	return score, factors
}

// Urgency is clamp((30 − daysUntilDeadline)/30, 0, 1).
func Urgency(deadline, now time.Time) float64 {
	days := deadline.Sub(now).Hours() / 24
	return clamp01((urgencyWindowDays - days) / urgencyWindowDays)
}

func normalizedBenefit(benefit, maxBenefit float64) float64 {
	if maxBenefit <= 0 {
		return 0
	}
	return clamp01(benefit / maxBenefit)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Less defines the deterministic total order over results: composite score
// descending, then eligibility margin ascending (barely-qualifying first),
// then benefit descending, then scheme id ascending. Equal scores therefore
// always sort reproducibly.
func Less(a, b *models.MatchResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.EligibilityMargin() != b.EligibilityMargin() {
		return a.EligibilityMargin() < b.EligibilityMargin()
	}
	if a.BenefitAmount != b.BenefitAmount {
		return a.BenefitAmount > b.BenefitAmount
	}
	return a.SchemeID < b.SchemeID
}

// Sort orders a result set by the total order above.
func Sort(results []models.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return Less(&results[i], &results[j])
	})
}
