// internal/workers/matching/find-matches/models.go
package findmatches

import "yojana-workers/internal/models"

type Input struct {
	ProfileID string `json:"profileId"`

	// Profile, when present, is used as-is and the profile store is not
	// consulted. Upstream processes that already collected the profile pass
	// it inline.
	Profile *models.Profile `json:"profile,omitempty"`

	// UserID keys the preference store; defaults to the profile id.
	UserID string `json:"userId,omitempty"`

	// Preferences override the stored ones for this call only.
	Preferences *models.Preferences `json:"preferences,omitempty"`

	// Optional search pre-filter. When any field is set and a search index
	// is wired, the catalog is narrowed before evaluation.
	Keywords string `json:"keywords,omitempty"`
	State    string `json:"state,omitempty"`
	Category string `json:"category,omitempty"`
}

type Output struct {
	CallID         string               `json:"callId"`
	Results        []models.MatchResult `json:"results"`
	Suggestions    []models.Suggestion  `json:"suggestions,omitempty"`
	Partial        bool                 `json:"partial"`
	TookLong       bool                 `json:"tookLong"`
	EvaluatedCount int                  `json:"evaluatedCount"`
	TotalCount     int                  `json:"totalCount"`
}
