// internal/workers/matching/explain-match/models.go
package explainmatch

import "yojana-workers/internal/models"

type Input struct {
	ProfileID string          `json:"profileId"`
	Profile   *models.Profile `json:"profile,omitempty"`
	SchemeID  string          `json:"schemeId"`
}

type Output struct {
	SchemeID  string                    `json:"schemeId"`
	Qualifies bool                      `json:"qualifies"`
	Excluded  models.ExclusionReason    `json:"excluded,omitempty"`
	Outcomes  []models.CriterionOutcome `json:"outcomes,omitempty"`
	Entries   []models.ExplanationEntry `json:"explanation,omitempty"`
}
