// internal/workers/matching/suggest-improvements/handler_test.go
package suggestimprovements

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	stderrors "yojana-workers/internal/common/errors"
	"yojana-workers/internal/common/logger"
	"yojana-workers/internal/engine/criterion"
	"yojana-workers/internal/engine/orchestrator"
	"yojana-workers/internal/engine/qualifier"
	"yojana-workers/internal/engine/ranking"
	"yojana-workers/internal/engine/suggest"
	"yojana-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ip(v int) *int {
	return &v
}

func fp(v float64) *float64 {
	return &v
}

type fakeProfileStore struct {
	profiles map[string]*models.Profile
}

func (f *fakeProfileStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, stderrors.NewProfileNotFoundError(id)
	}
	return p, nil
}

type fakeCatalog struct {
	schemes []models.Scheme
}

func (f *fakeCatalog) ActiveSchemes(ctx context.Context) ([]models.Scheme, error) {
	return f.schemes, nil
}

func newTestSuggester(t *testing.T) Suggester {
	log := logger.NewTestLogger(t)
	q := qualifier.New(criterion.DefaultSpans, log)
	o := orchestrator.New(orchestrator.Config{}, q,
		ranking.NewScorer(models.ScoreWeights{}),
		suggest.New(5, criterion.DefaultSpans), nil, log)
	return o.WithClock(func() time.Time { return testNow })
}

func createTestProfile() *models.Profile {
	income := 300000.0
	return &models.Profile{
		ID:             "p-001",
		Age:            16,
		AnnualIncome:   &income,
		EducationLevel: models.EducationSecondary,
		State:          "bihar",
		SocialCategory: models.CategoryOBC,
	}
}

func gatedScheme(id string, crit models.Criteria) models.Scheme {
	return models.Scheme{
		ID: id, Name: "Scheme " + id, BenefitAmount: 10000,
		Deadline: testNow.AddDate(0, 3, 0), IsActive: true,
		Criteria: crit,
	}
}

func newTestHandler(t *testing.T, schemes []models.Scheme) *Handler {
	profiles := &fakeProfileStore{profiles: map[string]*models.Profile{"p-001": createTestProfile()}}
	return NewHandler(LoadConfig(), profiles, &fakeCatalog{schemes: schemes}, newTestSuggester(t), logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecute_SuggestsOverFullCatalog(t *testing.T) {
	h := newTestHandler(t, []models.Scheme{
		gatedScheme("s-18", models.Criteria{MinAge: ip(18)}),
		gatedScheme("s-21", models.Criteria{MinAge: ip(21)}),
		gatedScheme("s-income", models.Criteria{MaxIncome: fp(250000)}),
	})

	output, err := h.Execute(context.Background(), &Input{ProfileID: "p-001"})

	assert.NoError(t, err)
	if assert.NotEmpty(t, output.Suggestions) {
		top := output.Suggestions[0]
		assert.Equal(t, models.AttributeAge, top.Attribute)
		assert.Equal(t, []string{"s-18", "s-21"}, top.UnlocksSchemeIDs)
	}
}

func TestExecute_NothingActionableReturnsEmptyArray(t *testing.T) {
	// The only miss is a set criterion, which is not actionable.
	h := newTestHandler(t, []models.Scheme{
		gatedScheme("s-state", models.Criteria{States: []string{"kerala"}}),
	})

	output, err := h.Execute(context.Background(), &Input{ProfileID: "p-001"})

	assert.NoError(t, err)
	assert.NotNil(t, output.Suggestions)
	assert.Empty(t, output.Suggestions)
}

func TestExecute_InlineProfile(t *testing.T) {
	h := newTestHandler(t, []models.Scheme{
		gatedScheme("s-18", models.Criteria{MinAge: ip(18)}),
	})
	profile := createTestProfile()
	profile.ID = "inline"

	output, err := h.Execute(context.Background(), &Input{Profile: profile})

	assert.NoError(t, err)
	assert.NotEmpty(t, output.Suggestions)
}

// ==========================
// Error Handling Tests
// ==========================

func TestExecute_InputValidation(t *testing.T) {
	h := newTestHandler(t, nil)

	_, err := h.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilInput)

	_, err = h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrMissingProfile)
}

func TestExecute_ProfileNotFound(t *testing.T) {
	h := newTestHandler(t, nil)

	_, err := h.Execute(context.Background(), &Input{ProfileID: "missing"})

	assert.Equal(t, "PROFILE_NOT_FOUND", errorCode(err))
}
