// internal/models/preferences.go
package models

// ScoreWeights are the composite-score weights. They must sum to 1.
type ScoreWeights struct {
	Benefit    float64 `json:"benefit"`
	Deadline   float64 `json:"deadline"`
	Margin     float64 `json:"margin"`
	Preference float64 `json:"preference"`
}

// Sum returns the weight total, used for validation.
func (w ScoreWeights) Sum() float64 {
	return w.Benefit + w.Deadline + w.Margin + w.Preference
}

// Preferences are optional per-user ranking overrides supplied by the
// preference store. A nil Preferences means defaults throughout.
type Preferences struct {
	// Weights overrides the default score weights when non-nil.
	Weights *ScoreWeights `json:"weights,omitempty"`

	// BoostedCategories are scheme categories the user cares about; schemes
	// tagged with one of them get full preference weight, others none.
	BoostedCategories []string `json:"boostedCategories,omitempty"`
}

// BoostFor returns the preference weight contribution for a scheme category:
// 1 when boosted, 0 otherwise. With no boosts configured every scheme gets a
// neutral 0.5 so the preference term does not distort default ordering.
func (p *Preferences) BoostFor(category string) float64 {
	if p == nil || len(p.BoostedCategories) == 0 {
		return 0.5
	}
	for _, c := range p.BoostedCategories {
		if c == category {
			return 1
		}
	}
	return 0
}
