// internal/engine/explain/builder_test.go
package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"yojana-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func ip(v int) *int {
	return &v
}

func fp(v float64) *float64 {
	return &v
}

func createTestProfile() *models.Profile {
	income := 180000.0
	return &models.Profile{
		ID:             "profile-001",
		Age:            22,
		AnnualIncome:   &income,
		EducationLevel: models.EducationSeniorSecondary,
		State:          "bihar",
		SocialCategory: models.CategoryOBC,
	}
}

func outcome(kind models.CriterionKind, attribute string, matched bool) models.CriterionOutcome {
	return models.CriterionOutcome{
		Kind:      kind,
		Attribute: attribute,
		Required:  true,
		Matched:   matched,
		Status:    models.StatusEvaluated,
	}
}

// ==========================
// Explanation Rendering Tests
// ==========================

func TestBuild_RendersOnlyDefinedCriteria(t *testing.T) {
	profile := createTestProfile()
	scheme := &models.Scheme{
		ID: "s1",
		Criteria: models.Criteria{
			MinAge:    ip(18),
			MaxAge:    ip(30),
			MaxIncome: fp(250000),
		},
	}
	outcomes := []models.CriterionOutcome{
		outcome(models.KindRange, models.AttributeAge, true),
		outcome(models.KindRange, models.AttributeIncome, true),
	}

	entries := Build(profile, scheme, outcomes)

	assert.Len(t, entries, 2)
	assert.Equal(t, models.AttributeAge, entries[0].CriterionName)
	assert.Equal(t, "22 years", entries[0].UserValue)
	assert.Equal(t, "18 to 30 years", entries[0].CriterionValue)
	assert.True(t, entries[0].Matched)

	assert.Equal(t, models.AttributeIncome, entries[1].CriterionName)
	assert.Equal(t, "₹1,80,000 per year", entries[1].UserValue)
	assert.Equal(t, "at most ₹2,50,000 per year", entries[1].CriterionValue)
}

func TestBuild_EducationAndSetCriteria(t *testing.T) {
	profile := createTestProfile()
	scheme := &models.Scheme{
		ID: "s1",
		Criteria: models.Criteria{
			MinEducation: models.EducationSecondary,
			States:       []string{"bihar", "jharkhand"},
			Categories:   []models.SocialCategory{models.CategoryOBC, models.CategorySC},
		},
	}
	outcomes := []models.CriterionOutcome{
		outcome(models.KindOrdinal, models.AttributeEducation, true),
		outcome(models.KindSet, models.AttributeState, true),
		outcome(models.KindSet, models.AttributeCategory, true),
	}

	entries := Build(profile, scheme, outcomes)

	assert.Len(t, entries, 3)
	assert.Equal(t, "senior secondary", entries[0].UserValue)
	assert.Equal(t, "secondary or above", entries[0].CriterionValue)
	assert.Equal(t, "one of bihar, jharkhand", entries[1].CriterionValue)
	assert.Equal(t, "obc", entries[2].UserValue)
	assert.Equal(t, "one of obc, sc", entries[2].CriterionValue)
}

func TestBuild_UnknownAttributeRendersNotProvided(t *testing.T) {
	profile := createTestProfile()
	profile.AnnualIncome = nil
	scheme := &models.Scheme{
		ID:       "s1",
		Criteria: models.Criteria{MaxIncome: fp(250000)},
	}
	unknown := outcome(models.KindRange, models.AttributeIncome, false)
	unknown.Status = models.StatusUnknown

	entries := Build(profile, scheme, []models.CriterionOutcome{unknown})

	assert.Len(t, entries, 1)
	assert.Equal(t, "not provided", entries[0].UserValue)
	assert.False(t, entries[0].Matched)
}

func TestBuild_SingleBoundAgeCriteria(t *testing.T) {
	profile := createTestProfile()

	minOnly := &models.Scheme{Criteria: models.Criteria{MinAge: ip(60)}}
	maxOnly := &models.Scheme{Criteria: models.Criteria{MaxAge: ip(18)}}
	ageOutcome := outcome(models.KindRange, models.AttributeAge, false)

	minEntries := Build(profile, minOnly, []models.CriterionOutcome{ageOutcome})
	maxEntries := Build(profile, maxOnly, []models.CriterionOutcome{ageOutcome})

	assert.Equal(t, "at least 60 years", minEntries[0].CriterionValue)
	assert.Equal(t, "at most 18 years", maxEntries[0].CriterionValue)
}

// ==========================
// Currency Formatting Tests
// ==========================

func TestFormatINR(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "₹0"},
		{999, "₹999"},
		{1000, "₹1,000"},
		{85000, "₹85,000"},
		{100000, "₹1,00,000"},
		{1234567, "₹12,34,567"},
		{10000000, "₹1,00,00,000"},
		{250000.75, "₹2,50,000"}, // paise dropped
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatINR(tt.in))
		})
	}
}
