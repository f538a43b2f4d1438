// internal/workers/matching/find-matches/handler_test.go
package findmatches

import (
	"context"
	"errors"
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
	"yojana-workers/internal/stores/schemestore"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ip(v int) *int {
	return &v
}

type fakeProfileStore struct {
	profiles map[string]*models.Profile
	err      error
}

func (f *fakeProfileStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, stderrors.NewProfileNotFoundError(id)
	}
	return p, nil
}

type fakeCatalog struct {
	schemes []models.Scheme
	err     error
}

func (f *fakeCatalog) ActiveSchemes(ctx context.Context) ([]models.Scheme, error) {
	return f.schemes, f.err
}

type fakePrefs struct {
	prefs map[string]*models.Preferences
	err   error
}

func (f *fakePrefs) GetPreferences(ctx context.Context, userID string) (*models.Preferences, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prefs[userID], nil
}

func newTestMatcher(t *testing.T) Matcher {
	log := logger.NewTestLogger(t)
	q := qualifier.New(criterion.DefaultSpans, log)
	o := orchestrator.New(orchestrator.Config{}, q,
		ranking.NewScorer(models.ScoreWeights{}),
		suggest.New(5, criterion.DefaultSpans), nil, log)
	return o.WithClock(func() time.Time { return testNow })
}

func createTestProfile() *models.Profile {
	income := 180000.0
	return &models.Profile{
		ID:             "p-001",
		Age:            22,
		AnnualIncome:   &income,
		EducationLevel: models.EducationSecondary,
		State:          "bihar",
		SocialCategory: models.CategoryOBC,
	}
}

func createTestCatalog() []models.Scheme {
	open := models.Scheme{
		ID: "s-open", Name: "Open Scheme", BenefitAmount: 10000,
		Deadline: testNow.AddDate(0, 3, 0), IsActive: true,
	}
	gated := models.Scheme{
		ID: "s-gated", Name: "Gated Scheme", BenefitAmount: 25000,
		Deadline: testNow.AddDate(0, 3, 0), IsActive: true,
		Criteria: models.Criteria{MinAge: ip(18)},
	}
	return []models.Scheme{open, gated}
}

type fakeSearch struct {
	ids []string
	err error
}

func (f *fakeSearch) SearchIDs(ctx context.Context, q schemestore.SearchQuery) ([]string, error) {
	return f.ids, f.err
}

func newTestHandler(t *testing.T, profiles ProfileFetcher, catalog CatalogProvider, prefs PreferenceProvider) *Handler {
	return NewHandler(LoadConfig(), profiles, catalog, prefs, nil, newTestMatcher(t), logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecute_FetchesProfileAndMatches(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]*models.Profile{"p-001": createTestProfile()}}
	catalog := &fakeCatalog{schemes: createTestCatalog()}
	h := newTestHandler(t, profiles, catalog, &fakePrefs{})

	output, err := h.Execute(context.Background(), &Input{ProfileID: "p-001"})

	assert.NoError(t, err)
	assert.NotEmpty(t, output.CallID)
	assert.Len(t, output.Results, 2)
	assert.Equal(t, 2, output.TotalCount)
	assert.False(t, output.Partial)
}

func TestExecute_InlineProfileSkipsStore(t *testing.T) {
	profiles := &fakeProfileStore{err: errors.New("store must not be called")}
	catalog := &fakeCatalog{schemes: createTestCatalog()}
	h := newTestHandler(t, profiles, catalog, &fakePrefs{})

	output, err := h.Execute(context.Background(), &Input{Profile: createTestProfile()})

	assert.NoError(t, err)
	assert.Len(t, output.Results, 2)
}

func TestExecute_StoredPreferencesApplied(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]*models.Profile{"p-001": createTestProfile()}}
	catalog := &fakeCatalog{schemes: createTestCatalog()}
	prefs := &fakePrefs{prefs: map[string]*models.Preferences{
		"p-001": {Weights: &models.ScoreWeights{Benefit: 1}},
	}}
	h := newTestHandler(t, profiles, catalog, prefs)

	output, err := h.Execute(context.Background(), &Input{ProfileID: "p-001"})

	assert.NoError(t, err)
	// All weight on benefit puts the richer scheme first.
	assert.Equal(t, "s-gated", output.Results[0].SchemeID)
}

func TestExecute_PreferenceStoreFailureDegradesToDefaults(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]*models.Profile{"p-001": createTestProfile()}}
	catalog := &fakeCatalog{schemes: createTestCatalog()}
	h := newTestHandler(t, profiles, catalog, &fakePrefs{err: errors.New("redis down")})

	output, err := h.Execute(context.Background(), &Input{ProfileID: "p-001"})

	assert.NoError(t, err, "preference failures must not fail the call")
	assert.Len(t, output.Results, 2)
}

func TestExecute_ZeroMatchesReturnsSuggestions(t *testing.T) {
	profile := createTestProfile()
	profile.Age = 16
	catalog := &fakeCatalog{schemes: []models.Scheme{{
		ID: "s-adult", Name: "Adults Only", BenefitAmount: 10000,
		Deadline: testNow.AddDate(0, 3, 0), IsActive: true,
		Criteria: models.Criteria{MinAge: ip(18)},
	}}}
	h := newTestHandler(t, &fakeProfileStore{}, catalog, &fakePrefs{})

	output, err := h.Execute(context.Background(), &Input{Profile: profile})

	assert.NoError(t, err)
	assert.Empty(t, output.Results)
	assert.NotEmpty(t, output.Suggestions)
}

// ==========================
// Search Pre-Filter Tests
// ==========================

func TestExecute_SearchFilterNarrowsCatalog(t *testing.T) {
	catalog := &fakeCatalog{schemes: createTestCatalog()}
	search := &fakeSearch{ids: []string{"s-gated"}}
	h := NewHandler(LoadConfig(), &fakeProfileStore{}, catalog, &fakePrefs{}, search, newTestMatcher(t), logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		Profile:  createTestProfile(),
		Keywords: "scholarship",
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, output.TotalCount)
	if assert.Len(t, output.Results, 1) {
		assert.Equal(t, "s-gated", output.Results[0].SchemeID)
	}
}

func TestExecute_SearchFailureDegradesToFullCatalog(t *testing.T) {
	catalog := &fakeCatalog{schemes: createTestCatalog()}
	search := &fakeSearch{err: errors.New("es down")}
	h := NewHandler(LoadConfig(), &fakeProfileStore{}, catalog, &fakePrefs{}, search, newTestMatcher(t), logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		Profile:  createTestProfile(),
		Keywords: "scholarship",
	})

	assert.NoError(t, err, "search is a pre-filter, never a verdict")
	assert.Len(t, output.Results, 2)
}

func TestExecute_NoFilterFieldsSkipsSearch(t *testing.T) {
	catalog := &fakeCatalog{schemes: createTestCatalog()}
	search := &fakeSearch{err: errors.New("must not be called")}
	h := NewHandler(LoadConfig(), &fakeProfileStore{}, catalog, &fakePrefs{}, search, newTestMatcher(t), logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{Profile: createTestProfile()})

	assert.NoError(t, err)
	assert.Len(t, output.Results, 2)
}

// ==========================
// Error Handling Tests
// ==========================

func TestExecute_InputValidation(t *testing.T) {
	h := newTestHandler(t, &fakeProfileStore{}, &fakeCatalog{}, &fakePrefs{})

	_, err := h.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilInput)

	_, err = h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrMissingProfile)
}

func TestExecute_ProfileNotFound(t *testing.T) {
	h := newTestHandler(t, &fakeProfileStore{}, &fakeCatalog{}, &fakePrefs{})

	_, err := h.Execute(context.Background(), &Input{ProfileID: "missing"})

	var stdErr *stderrors.StandardError
	if assert.ErrorAs(t, err, &stdErr) {
		assert.Equal(t, stderrors.ErrCodeProfileNotFound, stdErr.Code)
	}
	assert.Equal(t, "PROFILE_NOT_FOUND", errorCode(err))
}

func TestExecute_CatalogUnavailable(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]*models.Profile{"p-001": createTestProfile()}}
	catalog := &fakeCatalog{err: stderrors.NewSchemeStoreUnavailableError(errors.New("pg down"))}
	h := newTestHandler(t, profiles, catalog, &fakePrefs{})

	_, err := h.Execute(context.Background(), &Input{ProfileID: "p-001"})

	assert.Equal(t, "SCHEME_STORE_UNAVAILABLE", errorCode(err))
}

func TestExecute_EmptyCatalogCompletesWithNoResults(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]*models.Profile{"p-001": createTestProfile()}}
	h := newTestHandler(t, profiles, &fakeCatalog{}, &fakePrefs{})

	output, err := h.Execute(context.Background(), &Input{ProfileID: "p-001"})

	assert.NoError(t, err)
	assert.Empty(t, output.Results)
	assert.Zero(t, output.TotalCount)
}

func TestErrorCode_PlainErrorFallsBack(t *testing.T) {
	assert.Equal(t, "MATCHING_FAILED", errorCode(errors.New("boom")))
}
