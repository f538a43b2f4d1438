// internal/models/profile.go
package models

// EducationLevel is an ordinal enum with a fixed total order from
// below-primary to doctorate.
type EducationLevel string

const (
	EducationBelowPrimary    EducationLevel = "below_primary"
	EducationPrimary         EducationLevel = "primary"
	EducationMiddle          EducationLevel = "middle"
	EducationSecondary       EducationLevel = "secondary"
	EducationSeniorSecondary EducationLevel = "senior_secondary"
	EducationDiploma         EducationLevel = "diploma"
	EducationGraduate        EducationLevel = "graduate"
	EducationPostGraduate    EducationLevel = "post_graduate"
	EducationDoctorate       EducationLevel = "doctorate"
)

var educationRanks = map[EducationLevel]int{
	EducationBelowPrimary:    0,
	EducationPrimary:         1,
	EducationMiddle:          2,
	EducationSecondary:       3,
	EducationSeniorSecondary: 4,
	EducationDiploma:         5,
	EducationGraduate:        6,
	EducationPostGraduate:    7,
	EducationDoctorate:       8,
}

// EducationMaxRank is the rank index of the highest level, used to normalize
// ordinal margins into [-1, 1].
const EducationMaxRank = 8

// Rank returns the ordinal rank of the level and whether the level is known.
func (e EducationLevel) Rank() (int, bool) {
	r, ok := educationRanks[e]
	return r, ok
}

// EducationForRank is the inverse of Rank, used when rendering ordinal
// boundaries back into level names.
func EducationForRank(rank int) (EducationLevel, bool) {
	for level, r := range educationRanks {
		if r == rank {
			return level, true
		}
	}
	return "", false
}

// SocialCategory is the reservation category enum.
type SocialCategory string

const (
	CategoryGeneral SocialCategory = "general"
	CategoryOBC     SocialCategory = "obc"
	CategorySC      SocialCategory = "sc"
	CategoryST      SocialCategory = "st"
	CategoryEWS     SocialCategory = "ews"
)

// Valid reports whether the category is one of the known enum values.
func (c SocialCategory) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryOBC, CategorySC, CategoryST, CategoryEWS:
		return true
	}
	return false
}

// Profile is a citizen profile as supplied by the profile store. Numeric
// fields are already range-checked and enums resolved by the collection
// service; zero/nil values mean the attribute was never captured.
//
// A Profile is treated as immutable for the duration of one matching call.
type Profile struct {
	ID             string         `json:"id"`
	Age            int            `json:"age"`                    // years, 0 = not captured
	AnnualIncome   *float64       `json:"annualIncome,omitempty"` // rupees per year, nil = not captured
	EducationLevel EducationLevel `json:"educationLevel,omitempty"`
	State          string         `json:"state,omitempty"`
	District       string         `json:"district,omitempty"`
	SocialCategory SocialCategory `json:"socialCategory,omitempty"`
	Occupation     string         `json:"occupation,omitempty"`
}

// Clone returns an independent copy so one matching call cannot observe
// concurrent updates to the caller's profile record.
func (p *Profile) Clone() *Profile {
	cp := *p
	if p.AnnualIncome != nil {
		v := *p.AnnualIncome
		cp.AnnualIncome = &v
	}
	return &cp
}
