// internal/workers/matching/suggest-improvements/models.go
package suggestimprovements

import "yojana-workers/internal/models"

type Input struct {
	ProfileID string          `json:"profileId"`
	Profile   *models.Profile `json:"profile,omitempty"`
}

type Output struct {
	Suggestions []models.Suggestion `json:"suggestions"`
}
