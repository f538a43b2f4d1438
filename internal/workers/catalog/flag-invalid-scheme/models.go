// internal/workers/catalog/flag-invalid-scheme/models.go
package flaginvalidscheme

type Input struct {
	SchemeID string `json:"schemeId"`
	Details  string `json:"details"`

	// Source identifies which evaluation surfaced the problem, e.g.
	// "find-matches" or "catalog-loader".
	Source string `json:"source,omitempty"`
}

type Output struct {
	MessageID string `json:"messageId"`
	FlaggedAt string `json:"flaggedAt"` // RFC 3339
}

// flagMessage is the payload published to the scheme-management topic.
type flagMessage struct {
	SchemeID  string `json:"schemeId"`
	Details   string `json:"details"`
	Source    string `json:"source,omitempty"`
	FlaggedAt string `json:"flaggedAt"`
}
