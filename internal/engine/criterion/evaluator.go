// internal/engine/criterion/evaluator.go
// Package criterion holds the three pure evaluation functions, one per
// criterion kind. Evaluators depend only on their arguments and have no side
// effects, so per-scheme evaluation can run on any goroutine in any order.
package criterion

import (
	"yojana-workers/internal/models"
)

// Spans are the fixed per-attribute reference spans used to normalize the
// margin of single-bounded range criteria, so a rupee margin and a year
// margin stay comparable across schemes.
type Spans struct {
	Age    float64 // years
	Income float64 // rupees per year
}

// DefaultSpans match the documented normalization constants: a 100-year age
// span and a ₹10,00,000 income span.
var DefaultSpans = Spans{Age: 100, Income: 1000000}

// EvaluateRange evaluates a numeric range criterion. Boundaries are
// inclusive: a value exactly at min or max matches with margin 0. When both
// bounds exist the margin is normalized by the bounded span, otherwise by the
// attribute's reference span. known=false means the profile does not carry
// the attribute; the criterion fails closed with a distinguished unknown
// status.
func EvaluateRange(attribute string, value float64, known bool, min, max *float64, refSpan float64) models.CriterionOutcome {
	out := models.CriterionOutcome{
		Kind:      models.KindRange,
		Attribute: attribute,
		Required:  true,
		Status:    models.StatusEvaluated,
	}

	if !known {
		out.Status = models.StatusUnknown
		return out
	}

	matched := true
	if min != nil && value < *min {
		matched = false
	}
	if max != nil && value > *max {
		matched = false
	}
	out.Matched = matched

	var margin float64
	switch {
	case min != nil && max != nil:
		span := *max - *min
		if span <= 0 {
			span = refSpan
		}
		lower := value - *min
		upper := *max - value
		if lower < upper {
			margin = lower / span
		} else {
			margin = upper / span
		}
	case min != nil:
		margin = (value - *min) / refSpan
	case max != nil:
		margin = (*max - value) / refSpan
	default:
		// No bounds defined: unconstrained, vacuously matched, no margin.
		out.Matched = true
		return out
	}

	out.Margin = &margin
	return out
}

// EvaluateOrdinal evaluates a minimum-level criterion over a fixed total
// order. The margin is the rank distance normalized by the maximum rank
// index, keeping it in roughly [-1, 1].
func EvaluateOrdinal(attribute string, rank int, known bool, minRank, maxRank int) models.CriterionOutcome {
	out := models.CriterionOutcome{
		Kind:      models.KindOrdinal,
		Attribute: attribute,
		Required:  true,
		Status:    models.StatusEvaluated,
	}

	if !known {
		out.Status = models.StatusUnknown
		return out
	}

	out.Matched = rank >= minRank
	if maxRank > 0 {
		margin := float64(rank-minRank) / float64(maxRank)
		out.Margin = &margin
	} else {
		margin := 0.0
		out.Margin = &margin
	}
	return out
}

// EvaluateSet evaluates a set-membership criterion. An empty allowed set
// means unconstrained. Set criteria carry no margin: there is no natural
// distance between, say, two districts.
func EvaluateSet(attribute, value string, known bool, allowed []string) models.CriterionOutcome {
	out := models.CriterionOutcome{
		Kind:      models.KindSet,
		Attribute: attribute,
		Required:  true,
		Status:    models.StatusEvaluated,
	}

	if len(allowed) == 0 {
		out.Matched = true
		return out
	}

	if !known {
		out.Status = models.StatusUnknown
		return out
	}

	for _, a := range allowed {
		if a == value {
			out.Matched = true
			return out
		}
	}
	return out
}
