// internal/engine/explain/builder.go
// Package explain renders per-criterion outcomes into an auditable match
// explanation. Only criteria the scheme actually defined appear; coverage is
// never fabricated for unconstrained attributes.
package explain

import (
	"fmt"
	"strconv"
	"strings"

	"yojana-workers/internal/models"
)

const notProvided = "not provided"

// Build renders the explanation for one scheme's outcomes. For qualifying
// schemes every entry is matched by construction; the value of the
// explanation is showing which attributes drove qualification.
func Build(profile *models.Profile, scheme *models.Scheme, outcomes []models.CriterionOutcome) []models.ExplanationEntry {
	entries := make([]models.ExplanationEntry, 0, len(outcomes))
	for i := range outcomes {
		entries = append(entries, buildEntry(profile, &scheme.Criteria, &outcomes[i]))
	}
	return entries
}

func buildEntry(p *models.Profile, c *models.Criteria, o *models.CriterionOutcome) models.ExplanationEntry {
	entry := models.ExplanationEntry{
		CriterionName: o.Attribute,
		Matched:       o.Matched,
	}

	switch o.Attribute {
	case models.AttributeAge:
		entry.UserValue = renderAge(p.Age)
		entry.CriterionValue = renderAgeBounds(c.MinAge, c.MaxAge)
	case models.AttributeIncome:
		if p.AnnualIncome != nil {
			entry.UserValue = FormatINR(*p.AnnualIncome) + " per year"
		} else {
			entry.UserValue = notProvided
		}
		if c.MaxIncome != nil {
			entry.CriterionValue = "at most " + FormatINR(*c.MaxIncome) + " per year"
		}
	case models.AttributeEducation:
		entry.UserValue = renderEducation(p.EducationLevel)
		entry.CriterionValue = strings.ReplaceAll(string(c.MinEducation), "_", " ") + " or above"
	case models.AttributeState:
		entry.UserValue = orNotProvided(p.State)
		entry.CriterionValue = renderSet(c.States)
	case models.AttributeDistrict:
		entry.UserValue = orNotProvided(p.District)
		entry.CriterionValue = renderSet(c.Districts)
	case models.AttributeCategory:
		if p.SocialCategory.Valid() {
			entry.UserValue = string(p.SocialCategory)
		} else {
			entry.UserValue = notProvided
		}
		cats := make([]string, len(c.Categories))
		for i, cat := range c.Categories {
			cats[i] = string(cat)
		}
		entry.CriterionValue = renderSet(cats)
	}

	if o.Status == models.StatusUnknown {
		entry.UserValue = notProvided
	}
	return entry
}

func renderAge(age int) string {
	if age <= 0 {
		return notProvided
	}
	return fmt.Sprintf("%d years", age)
}

func renderAgeBounds(min, max *int) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%d to %d years", *min, *max)
	case min != nil:
		return fmt.Sprintf("at least %d years", *min)
	case max != nil:
		return fmt.Sprintf("at most %d years", *max)
	}
	return ""
}

func renderEducation(level models.EducationLevel) string {
	if _, ok := level.Rank(); !ok {
		return notProvided
	}
	return strings.ReplaceAll(string(level), "_", " ")
}

func renderSet(values []string) string {
	return "one of " + strings.Join(values, ", ")
}

func orNotProvided(v string) string {
	if v == "" {
		return notProvided
	}
	return v
}

// FormatINR formats a rupee amount with Indian digit grouping, e.g.
// ₹12,34,567. Paise are dropped; eligibility ceilings are whole rupees.
func FormatINR(v float64) string {
	n := int64(v)
	if n < 0 {
		return "-" + FormatINR(-v)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return "₹" + s
	}

	// Last three digits form one group, the rest group in pairs.
	head := s[:len(s)-3]
	tail := s[len(s)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return "₹" + strings.Join(append(groups, tail), ",")
}
