// internal/models/scheme.go
package models

import "time"

// Criteria holds the eligibility constraints of one scheme. Every field is
// optional; absence means "unconstrained". All present criteria are mandatory.
type Criteria struct {
	MinAge       *int             `json:"minAge,omitempty"`
	MaxAge       *int             `json:"maxAge,omitempty"`
	MaxIncome    *float64         `json:"maxIncome,omitempty"`
	MinEducation EducationLevel   `json:"minEducation,omitempty"`
	States       []string         `json:"states,omitempty"`
	Districts    []string         `json:"districts,omitempty"`
	Categories   []SocialCategory `json:"categories,omitempty"`
}

// IsEmpty reports whether the scheme defines no constraints at all, in which
// case every profile qualifies vacuously.
func (c *Criteria) IsEmpty() bool {
	return c.MinAge == nil && c.MaxAge == nil && c.MaxIncome == nil &&
		c.MinEducation == "" && len(c.States) == 0 && len(c.Districts) == 0 &&
		len(c.Categories) == 0
}

// Scheme is one government scheme from the catalog. Name/Description/ApplyURL
// are presentation fields owned by the content service and carried opaquely.
type Scheme struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"` // thematic tag, e.g. "education", "housing"
	BenefitAmount float64   `json:"benefitAmount"`
	Deadline      time.Time `json:"deadline"`
	IsActive      bool      `json:"isActive"`
	Criteria      Criteria  `json:"criteria"`
	ApplyURL      string    `json:"applyUrl,omitempty"`
}

// Expired reports whether the application deadline has passed at the given
// evaluation time.
func (s *Scheme) Expired(now time.Time) bool {
	return s.Deadline.Before(now)
}

// Clone returns a deep copy of the scheme so snapshot isolation holds even if
// the caller mutates its catalog mid-call.
func (s *Scheme) Clone() Scheme {
	cp := *s
	cp.Criteria = s.Criteria.clone()
	return cp
}

func (c Criteria) clone() Criteria {
	cp := c
	if c.MinAge != nil {
		v := *c.MinAge
		cp.MinAge = &v
	}
	if c.MaxAge != nil {
		v := *c.MaxAge
		cp.MaxAge = &v
	}
	if c.MaxIncome != nil {
		v := *c.MaxIncome
		cp.MaxIncome = &v
	}
	if c.States != nil {
		cp.States = append([]string(nil), c.States...)
	}
	if c.Districts != nil {
		cp.Districts = append([]string(nil), c.Districts...)
	}
	if c.Categories != nil {
		cp.Categories = append([]SocialCategory(nil), c.Categories...)
	}
	return cp
}

// CloneSchemes snapshots a catalog slice.
func CloneSchemes(schemes []Scheme) []Scheme {
	out := make([]Scheme, len(schemes))
	for i := range schemes {
		out[i] = schemes[i].Clone()
	}
	return out
}
