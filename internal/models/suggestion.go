// internal/models/suggestion.go
package models

// Suggestion describes one minimal profile change that would unlock schemes
// currently failing on a single bounded criterion. Generated only on demand:
// zero-match fallback or an explicit profile-improvement query.
type Suggestion struct {
	Attribute        string   `json:"attribute"`
	CurrentValue     string   `json:"currentValue"`
	RequiredChange   string   `json:"requiredChange"` // boundary the attribute must cross, e.g. ">= 18 years"
	UnlocksSchemeIDs []string `json:"unlocksSchemeIds"`
	DeltaMagnitude   float64  `json:"deltaMagnitude"` // normalized distance to the boundary
}
