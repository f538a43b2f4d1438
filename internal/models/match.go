// internal/models/match.go
package models

// CriterionKind discriminates the closed set of criterion variants. Downstream
// explanation and ranking code can switch on it exhaustively.
type CriterionKind string

const (
	KindRange   CriterionKind = "range"
	KindOrdinal CriterionKind = "ordinal"
	KindSet     CriterionKind = "set"
)

// Attribute names referenced by criterion outcomes and suggestions.
const (
	AttributeAge       = "age"
	AttributeIncome    = "income"
	AttributeEducation = "education"
	AttributeState     = "state"
	AttributeDistrict  = "district"
	AttributeCategory  = "category"
)

// OutcomeStatus distinguishes a normal mismatch from a fail-closed evaluation
// against a missing profile attribute.
type OutcomeStatus string

const (
	StatusEvaluated OutcomeStatus = "evaluated"
	StatusUnknown   OutcomeStatus = "unknown"
)

// CriterionOutcome is the result of evaluating one defined criterion.
// Margin is the signed distance to the qualifying boundary normalized by the
// criterion's span; nil for set-membership criteria, which have no distance
// metric.
type CriterionOutcome struct {
	Kind      CriterionKind `json:"kind"`
	Attribute string        `json:"attribute"`
	Required  bool          `json:"required"` // always true: no advisory criteria exist
	Matched   bool          `json:"matched"`
	Status    OutcomeStatus `json:"status"`
	Margin    *float64      `json:"margin,omitempty"`
}

// ExclusionReason says why a scheme was never criterion-evaluated. These are
// reported distinctly from criterion failures and never reach explanations.
type ExclusionReason string

const (
	ReasonInactive ExclusionReason = "inactive"
	ReasonExpired  ExclusionReason = "expired"
	ReasonInvalid  ExclusionReason = "invalid"
)

// Qualification is the verdict of one scheme against one profile.
type Qualification struct {
	SchemeID  string             `json:"schemeId"`
	Qualifies bool               `json:"qualifies"`
	Excluded  ExclusionReason    `json:"excluded,omitempty"` // set iff criteria were never evaluated
	Outcomes  []CriterionOutcome `json:"outcomes"`

	// EligibilityMargin is the minimum normalized margin among bounded
	// (range/ordinal) outcomes: how close the user sits to the nearest
	// disqualification boundary. Set-only schemes carry 0.
	EligibilityMargin float64 `json:"eligibilityMargin"`
}

// RankingFactors are the normalized components behind a composite score,
// returned so callers can audit the ordering.
type RankingFactors struct {
	NormalizedBenefit float64 `json:"normalizedBenefit"`
	Urgency           float64 `json:"urgency"`
	MarginCloseness   float64 `json:"marginCloseness"` // 1 - clamped eligibility margin
	PreferenceWeight  float64 `json:"preferenceWeight"`
}

// ExplanationEntry renders one evaluated criterion for display. Values are
// pre-formatted strings so the presentation layer shows exactly what the
// engine compared.
type ExplanationEntry struct {
	CriterionName  string `json:"criterionName"`
	UserValue      string `json:"userValue"`
	CriterionValue string `json:"criterionValue"`
	Matched        bool   `json:"matched"`
}

// MatchResult is one qualifying (or explained) scheme with its score and
// audit trail. Constructed fresh per matching call, never persisted here.
type MatchResult struct {
	SchemeID       string             `json:"schemeId"`
	SchemeName     string             `json:"schemeName,omitempty"`
	Qualifies      bool               `json:"qualifies"`
	Outcomes       []CriterionOutcome `json:"outcomes"`
	Score          float64            `json:"score"`
	RankingFactors RankingFactors     `json:"rankingFactors"`
	Explanation    []ExplanationEntry `json:"explanation"`
	BenefitAmount  float64            `json:"benefitAmount"`

	eligibilityMargin float64
}

// EligibilityMargin exposes the margin carried over from qualification for
// tie-breaking.
func (m *MatchResult) EligibilityMargin() float64 { return m.eligibilityMargin }

// SetEligibilityMargin is used by the qualifier/orchestrator when assembling
// the result.
func (m *MatchResult) SetEligibilityMargin(v float64) { m.eligibilityMargin = v }

// MatchResponse is the full answer of one findMatches call.
type MatchResponse struct {
	CallID      string        `json:"callId"`
	Results     []MatchResult `json:"results"`
	Suggestions []Suggestion  `json:"suggestions,omitempty"`

	// Partial means the hard deadline aborted pending evaluations and only
	// accumulated results are returned.
	Partial bool `json:"partial"`

	// TookLong means the soft deadline passed; results are complete but the
	// caller may want to render a "taking longer" notice.
	TookLong bool `json:"tookLong"`

	EvaluatedCount int `json:"evaluatedCount"`
	TotalCount     int `json:"totalCount"`
}
