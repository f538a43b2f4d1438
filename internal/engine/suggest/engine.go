// internal/engine/suggest/engine.go
// Package suggest computes minimal profile changes that would unlock schemes
// a profile currently misses. Only bounded criteria (range/ordinal) generate
// suggestions: set-membership attributes like state of residence or social
// category are treated as non-actionable.
package suggest

import (
	"fmt"
	"sort"
	"strings"

	"yojana-workers/internal/engine/criterion"
	"yojana-workers/internal/engine/explain"
	"yojana-workers/internal/models"
)

// Candidate pairs a non-qualifying scheme with its qualification verdict.
type Candidate struct {
	Scheme        models.Scheme
	Qualification models.Qualification
}

type Engine struct {
	topK  int
	spans criterion.Spans
}

func New(topK int, spans criterion.Spans) *Engine {
	if topK <= 0 {
		topK = 5
	}
	return &Engine{topK: topK, spans: spans}
}

// direction of the required attribute change.
type direction int

const (
	up   direction = iota // attribute must rise to the boundary
	down                  // attribute must fall to the boundary
)

// nearMiss is one scheme blocked by a single bounded attribute. limit is the
// scheme's opposite bound, if it has one: moving past it overshoots the
// scheme instead of unlocking it.
type nearMiss struct {
	schemeID  string
	attribute string
	dir       direction
	boundary  float64  // raw boundary value (years, rupees, rank)
	limit     *float64 // opposite bound, nil when the range is open
}

// Suggest aggregates near-misses across the catalog into ranked
// attribute-change suggestions: (schemes unlocked, descending) then
// (delta magnitude, ascending, so the smallest realistic change ranks first).
func (e *Engine) Suggest(profile *models.Profile, candidates []Candidate) []models.Suggestion {
	var misses []nearMiss
	for i := range candidates {
		if m, ok := e.nearMissOf(profile, &candidates[i]); ok {
			misses = append(misses, m)
		}
	}
	if len(misses) == 0 {
		return nil
	}

	type group struct {
		attribute string
		dir       direction
		misses    []nearMiss
	}
	groups := map[string]*group{}
	for _, m := range misses {
		key := fmt.Sprintf("%s/%d", m.attribute, m.dir)
		g, ok := groups[key]
		if !ok {
			g = &group{attribute: m.attribute, dir: m.dir}
			groups[key] = g
		}
		g.misses = append(g.misses, m)
	}

	var suggestions []models.Suggestion
	for _, g := range groups {
		suggestions = append(suggestions, e.expandGroup(profile, g.attribute, g.dir, g.misses)...)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if len(a.UnlocksSchemeIDs) != len(b.UnlocksSchemeIDs) {
			return len(a.UnlocksSchemeIDs) > len(b.UnlocksSchemeIDs)
		}
		if a.DeltaMagnitude != b.DeltaMagnitude {
			return a.DeltaMagnitude < b.DeltaMagnitude
		}
		if a.Attribute != b.Attribute {
			return a.Attribute < b.Attribute
		}
		return a.RequiredChange < b.RequiredChange
	})

	if len(suggestions) > e.topK {
		suggestions = suggestions[:e.topK]
	}
	return suggestions
}

// nearMissOf extracts the single blocking bounded attribute of a candidate,
// if there is exactly one. A scheme failing on two or more independent
// attributes is not fixable by a single change and is skipped, as is any
// scheme failing on a set criterion or on an unknown attribute.
func (e *Engine) nearMissOf(profile *models.Profile, c *Candidate) (nearMiss, bool) {
	if c.Qualification.Excluded != "" || c.Qualification.Qualifies {
		return nearMiss{}, false
	}

	var failing []models.CriterionOutcome
	for _, o := range c.Qualification.Outcomes {
		if !o.Matched {
			failing = append(failing, o)
		}
	}
	if len(failing) == 0 {
		return nearMiss{}, false
	}

	attribute := failing[0].Attribute
	for _, o := range failing {
		if o.Kind == models.KindSet || o.Status == models.StatusUnknown {
			return nearMiss{}, false
		}
		if o.Attribute != attribute {
			return nearMiss{}, false
		}
	}

	cr := &c.Scheme.Criteria
	switch attribute {
	case models.AttributeAge:
		if cr.MinAge != nil && profile.Age < *cr.MinAge {
			return nearMiss{c.Scheme.ID, attribute, up, float64(*cr.MinAge), intBound(cr.MaxAge)}, true
		}
		if cr.MaxAge != nil && profile.Age > *cr.MaxAge {
			return nearMiss{c.Scheme.ID, attribute, down, float64(*cr.MaxAge), intBound(cr.MinAge)}, true
		}
	case models.AttributeIncome:
		if cr.MaxIncome != nil {
			return nearMiss{c.Scheme.ID, attribute, down, *cr.MaxIncome, nil}, true
		}
	case models.AttributeEducation:
		if cr.MinEducation != "" {
			if rank, ok := cr.MinEducation.Rank(); ok {
				return nearMiss{c.Scheme.ID, attribute, up, float64(rank), nil}, true
			}
		}
	}
	return nearMiss{}, false
}

// expandGroup turns the near-misses of one attribute+direction into one
// suggestion per distinct boundary. Crossing a boundary also unlocks every
// scheme whose boundary lies between the profile's current value and it,
// unless the move overshoots that scheme's opposite bound.
func (e *Engine) expandGroup(profile *models.Profile, attribute string, dir direction, misses []nearMiss) []models.Suggestion {
	byBoundary := map[float64][]string{}
	for _, m := range misses {
		byBoundary[m.boundary] = append(byBoundary[m.boundary], m.schemeID)
	}

	boundaries := make([]float64, 0, len(byBoundary))
	for b := range byBoundary {
		boundaries = append(boundaries, b)
	}
	sort.Float64s(boundaries)

	var out []models.Suggestion
	for _, b := range boundaries {
		var unlocks []string
		for _, m := range misses {
			if dir == up && m.boundary <= b && (m.limit == nil || b <= *m.limit) {
				unlocks = append(unlocks, m.schemeID)
			}
			if dir == down && m.boundary >= b && (m.limit == nil || b >= *m.limit) {
				unlocks = append(unlocks, m.schemeID)
			}
		}
		sort.Strings(unlocks)

		out = append(out, models.Suggestion{
			Attribute:        attribute,
			CurrentValue:     e.currentValue(profile, attribute),
			RequiredChange:   e.renderChange(attribute, dir, b),
			UnlocksSchemeIDs: unlocks,
			DeltaMagnitude:   e.delta(profile, attribute, b),
		})
	}
	return out
}

func intBound(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func (e *Engine) currentValue(p *models.Profile, attribute string) string {
	switch attribute {
	case models.AttributeAge:
		return fmt.Sprintf("%d years", p.Age)
	case models.AttributeIncome:
		if p.AnnualIncome != nil {
			return explain.FormatINR(*p.AnnualIncome) + " per year"
		}
	case models.AttributeEducation:
		return strings.ReplaceAll(string(p.EducationLevel), "_", " ")
	}
	return ""
}

func (e *Engine) renderChange(attribute string, dir direction, boundary float64) string {
	switch attribute {
	case models.AttributeAge:
		if dir == up {
			return fmt.Sprintf("age of at least %d years", int(boundary))
		}
		return fmt.Sprintf("age of at most %d years", int(boundary))
	case models.AttributeIncome:
		return "annual income of at most " + explain.FormatINR(boundary)
	case models.AttributeEducation:
		if level, ok := models.EducationForRank(int(boundary)); ok {
			return strings.ReplaceAll(string(level), "_", " ") + " education or above"
		}
	}
	return ""
}

// delta is the normalized distance from the current attribute value to the
// boundary, using the same spans the evaluator normalizes margins with.
func (e *Engine) delta(p *models.Profile, attribute string, boundary float64) float64 {
	var current, span float64
	switch attribute {
	case models.AttributeAge:
		current, span = float64(p.Age), e.spans.Age
	case models.AttributeIncome:
		if p.AnnualIncome == nil {
			return 0
		}
		current, span = *p.AnnualIncome, e.spans.Income
	case models.AttributeEducation:
		rank, _ := p.EducationLevel.Rank()
		current, span = float64(rank), float64(models.EducationMaxRank)
	default:
		return 0
	}
	d := boundary - current
	if d < 0 {
		d = -d
	}
	if span <= 0 {
		return d
	}
	return d / span
}
