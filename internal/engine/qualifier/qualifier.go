// internal/engine/qualifier/qualifier.go
// Package qualifier evaluates all criteria of one scheme against one profile.
package qualifier

import (
	"fmt"
	"strings"
	"time"

	"yojana-workers/internal/common/errors"
	"yojana-workers/internal/common/logger"
	"yojana-workers/internal/common/metrics"
	"yojana-workers/internal/engine/criterion"
	"yojana-workers/internal/models"
)

type Qualifier struct {
	spans  criterion.Spans
	logger logger.Logger
}

func New(spans criterion.Spans, log logger.Logger) *Qualifier {
	return &Qualifier{
		spans:  spans,
		logger: log,
	}
}

// ValidateCriteria checks a scheme's criteria for structural sanity. A
// malformed scheme is excluded from the current call and flagged; it never
// aborts the batch.
func ValidateCriteria(s *models.Scheme) *errors.StandardError {
	var problems []string
	c := &s.Criteria

	if c.MinAge != nil && *c.MinAge < 0 {
		problems = append(problems, fmt.Sprintf("minAge %d is negative", *c.MinAge))
	}
	if c.MaxAge != nil && *c.MaxAge < 0 {
		problems = append(problems, fmt.Sprintf("maxAge %d is negative", *c.MaxAge))
	}
	if c.MinAge != nil && c.MaxAge != nil && *c.MinAge > *c.MaxAge {
		problems = append(problems, fmt.Sprintf("minAge %d above maxAge %d", *c.MinAge, *c.MaxAge))
	}
	if c.MaxIncome != nil && *c.MaxIncome < 0 {
		problems = append(problems, fmt.Sprintf("maxIncome %.2f is negative", *c.MaxIncome))
	}
	if c.MinEducation != "" {
		if _, ok := c.MinEducation.Rank(); !ok {
			problems = append(problems, fmt.Sprintf("unknown education level %q", c.MinEducation))
		}
	}
	for _, cat := range c.Categories {
		if !cat.Valid() {
			problems = append(problems, fmt.Sprintf("unknown social category %q", cat))
		}
	}
	if s.BenefitAmount < 0 {
		problems = append(problems, fmt.Sprintf("benefitAmount %.2f is negative", s.BenefitAmount))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.NewSchemeDataInvalidError(s.ID, strings.Join(problems, "; "))
}

// Qualify evaluates one scheme against one profile at the given evaluation
// time. Inactive or expired schemes short-circuit before any criterion is
// touched; their exclusion is a reason code, never a criterion failure.
func (q *Qualifier) Qualify(profile *models.Profile, scheme *models.Scheme, now time.Time) (*models.Qualification, *errors.StandardError) {
	qual := &models.Qualification{SchemeID: scheme.ID}

	if !scheme.IsActive {
		qual.Excluded = models.ReasonInactive
		metrics.SchemesEvaluated.WithLabelValues("inactive").Inc()
		return qual, nil
	}
	if scheme.Expired(now) {
		qual.Excluded = models.ReasonExpired
		metrics.SchemesEvaluated.WithLabelValues("expired").Inc()
		return qual, nil
	}

	if err := ValidateCriteria(scheme); err != nil {
		qual.Excluded = models.ReasonInvalid
		metrics.SchemesEvaluated.WithLabelValues("invalid").Inc()
		return qual, err
	}

	outcomes := q.evaluate(profile, &scheme.Criteria)
	qual.Outcomes = outcomes

	// Vacuously true when the scheme defines no criteria.
	qual.Qualifies = true
	for i := range outcomes {
		if !outcomes[i].Matched {
			qual.Qualifies = false
		}
		if outcomes[i].Status == models.StatusUnknown {
			metrics.AttributeUnknown.WithLabelValues(outcomes[i].Attribute).Inc()
			q.logger.Warn("criterion failed closed on unknown attribute", map[string]interface{}{
				"schemeId":  scheme.ID,
				"attribute": outcomes[i].Attribute,
				"profileId": profile.ID,
			})
		}
	}

	qual.EligibilityMargin = eligibilityMargin(outcomes)

	if qual.Qualifies {
		metrics.SchemesEvaluated.WithLabelValues("qualified").Inc()
	} else {
		metrics.SchemesEvaluated.WithLabelValues("rejected").Inc()
	}
	return qual, nil
}

// evaluate produces one outcome per defined criterion field. Undefined fields
// impose no constraint and must not appear in explanations, so they produce
// no outcome at all.
func (q *Qualifier) evaluate(p *models.Profile, c *models.Criteria) []models.CriterionOutcome {
	var outcomes []models.CriterionOutcome

	if c.MinAge != nil || c.MaxAge != nil {
		var min, max *float64
		if c.MinAge != nil {
			v := float64(*c.MinAge)
			min = &v
		}
		if c.MaxAge != nil {
			v := float64(*c.MaxAge)
			max = &v
		}
		ageKnown := p.Age > 0
		outcomes = append(outcomes, criterion.EvaluateRange(
			models.AttributeAge, float64(p.Age), ageKnown, min, max, q.spans.Age))
	}

	if c.MaxIncome != nil {
		var income float64
		known := p.AnnualIncome != nil && *p.AnnualIncome >= 0
		if known {
			income = *p.AnnualIncome
		}
		outcomes = append(outcomes, criterion.EvaluateRange(
			models.AttributeIncome, income, known, nil, c.MaxIncome, q.spans.Income))
	}

	if c.MinEducation != "" {
		minRank, _ := c.MinEducation.Rank() // validated above
		rank, known := p.EducationLevel.Rank()
		outcomes = append(outcomes, criterion.EvaluateOrdinal(
			models.AttributeEducation, rank, known, minRank, models.EducationMaxRank))
	}

	if len(c.States) > 0 {
		outcomes = append(outcomes, criterion.EvaluateSet(
			models.AttributeState, p.State, p.State != "", c.States))
	}

	if len(c.Districts) > 0 {
		outcomes = append(outcomes, criterion.EvaluateSet(
			models.AttributeDistrict, p.District, p.District != "", c.Districts))
	}

	if len(c.Categories) > 0 {
		allowed := make([]string, len(c.Categories))
		for i, cat := range c.Categories {
			allowed[i] = string(cat)
		}
		outcomes = append(outcomes, criterion.EvaluateSet(
			models.AttributeCategory, string(p.SocialCategory), p.SocialCategory.Valid(), allowed))
	}

	return outcomes
}

// eligibilityMargin is the minimum normalized margin among bounded outcomes:
// how close to the disqualification boundary the user sits. Set-only schemes
// have no gradation and carry 0.
func eligibilityMargin(outcomes []models.CriterionOutcome) float64 {
	found := false
	min := 0.0
	for i := range outcomes {
		if outcomes[i].Margin == nil {
			continue
		}
		if !found || *outcomes[i].Margin < min {
			min = *outcomes[i].Margin
			found = true
		}
	}
	if !found {
		return 0
	}
	return min
}
