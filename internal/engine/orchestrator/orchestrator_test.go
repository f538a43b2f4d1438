// internal/engine/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"yojana-workers/internal/common/logger"
	"yojana-workers/internal/engine/criterion"
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

type fakeFlagger struct {
	mu      sync.Mutex
	flagged map[string]string
}

func newFakeFlagger() *fakeFlagger {
	return &fakeFlagger{flagged: map[string]string{}}
}

func (f *fakeFlagger) FlagInvalid(ctx context.Context, schemeID, details string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flagged[schemeID] = details
}

func newTestOrchestrator(t *testing.T, cfg Config, flagger SchemeFlagger) *Orchestrator {
	log := logger.NewTestLogger(t)
	q := qualifier.New(criterion.DefaultSpans, log)
	s := ranking.NewScorer(models.ScoreWeights{})
	sg := suggest.New(cfg.SuggestionTopK, criterion.DefaultSpans)
	o := New(cfg, q, s, sg, flagger, log)
	return o.WithClock(func() time.Time { return testNow })
}

func createTestProfile() *models.Profile {
	income := 180000.0
	return &models.Profile{
		ID:             "profile-001",
		Age:            22,
		AnnualIncome:   &income,
		EducationLevel: models.EducationSecondary,
		State:          "bihar",
		District:       "patna",
		SocialCategory: models.CategoryOBC,
	}
}

func activeScheme(id string, benefit float64) models.Scheme {
	return models.Scheme{
		ID:            id,
		Name:          "Scheme " + id,
		Category:      "education",
		BenefitAmount: benefit,
		Deadline:      testNow.AddDate(0, 3, 0),
		IsActive:      true,
	}
}

func createTestCatalog() []models.Scheme {
	qualifying := activeScheme("s-open", 10000)

	matched := activeScheme("s-matched", 25000)
	matched.Criteria = models.Criteria{
		MinAge:    ip(18),
		MaxIncome: fp(250000),
		States:    []string{"bihar"},
	}

	rejected := activeScheme("s-too-young", 50000)
	rejected.Criteria = models.Criteria{MinAge: ip(60)}

	inactive := activeScheme("s-inactive", 90000)
	inactive.IsActive = false

	expired := activeScheme("s-expired", 90000)
	expired.Deadline = testNow.Add(-time.Hour)

	return []models.Scheme{qualifying, matched, rejected, inactive, expired}
}

// ==========================
// Find Matches Tests
// ==========================

func TestFindMatches_RanksQualifyingSchemesOnly(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)
	catalog := createTestCatalog()

	resp, err := o.FindMatches(context.Background(), createTestProfile(), catalog, nil)

	assert.NoError(t, err)
	assert.NotEmpty(t, resp.CallID)
	assert.False(t, resp.Partial)
	assert.Equal(t, len(catalog), resp.TotalCount)
	assert.Equal(t, len(catalog), resp.EvaluatedCount)

	if assert.Len(t, resp.Results, 2) {
		for _, r := range resp.Results {
			assert.True(t, r.Qualifies)
			assert.NotContains(t, []string{"s-too-young", "s-inactive", "s-expired"}, r.SchemeID)
		}
	}
	assert.Empty(t, resp.Suggestions, "suggestions only appear on zero matches")
}

func TestFindMatches_ResultsCarryExplanations(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)

	resp, err := o.FindMatches(context.Background(), createTestProfile(), createTestCatalog(), nil)

	assert.NoError(t, err)
	for _, r := range resp.Results {
		if r.SchemeID == "s-matched" {
			assert.Len(t, r.Explanation, 3, "one entry per defined criterion")
			for _, e := range r.Explanation {
				assert.True(t, e.Matched)
				assert.NotEmpty(t, e.UserValue)
				assert.NotEmpty(t, e.CriterionValue)
			}
		}
	}
}

func TestFindMatches_IsIdempotent(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)
	catalog := createTestCatalog()
	profile := createTestProfile()

	first, err1 := o.FindMatches(context.Background(), profile, catalog, nil)
	second, err2 := o.FindMatches(context.Background(), profile, catalog, nil)

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.NotEqual(t, first.CallID, second.CallID)
	if assert.Equal(t, len(first.Results), len(second.Results)) {
		for i := range first.Results {
			assert.Equal(t, first.Results[i].SchemeID, second.Results[i].SchemeID)
			assert.Equal(t, first.Results[i].Score, second.Results[i].Score)
		}
	}
}

func TestFindMatches_SnapshotIsolation(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)
	catalog := createTestCatalog()
	profile := createTestProfile()

	resp, err := o.FindMatches(context.Background(), profile, catalog, nil)

	assert.NoError(t, err)
	// The caller's records are untouched by the call.
	assert.Equal(t, 22, profile.Age)
	assert.True(t, catalog[0].IsActive)
	assert.NotEmpty(t, resp.Results)
}

func TestFindMatches_PageSizeTruncation(t *testing.T) {
	o := newTestOrchestrator(t, Config{PageSize: 2}, nil)

	catalog := make([]models.Scheme, 0, 6)
	for i := 0; i < 6; i++ {
		catalog = append(catalog, activeScheme(fmt.Sprintf("s-%d", i), float64(1000*(i+1))))
	}

	resp, err := o.FindMatches(context.Background(), createTestProfile(), catalog, nil)

	assert.NoError(t, err)
	assert.Len(t, resp.Results, 2)
	// Highest benefit wins under default weights when all else is equal.
	assert.Equal(t, "s-5", resp.Results[0].SchemeID)
	assert.Equal(t, "s-4", resp.Results[1].SchemeID)
	assert.Equal(t, 6, resp.EvaluatedCount)
}

func TestFindMatches_EmptyCatalog(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)

	resp, err := o.FindMatches(context.Background(), createTestProfile(), nil, nil)

	assert.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.Suggestions)
	assert.Zero(t, resp.TotalCount)
	assert.False(t, resp.Partial)
}

// ==========================
// Zero-Match Fallback Tests
// ==========================

func TestFindMatches_ZeroMatchesProducesSuggestions(t *testing.T) {
	o := newTestOrchestrator(t, Config{SuggestionTopK: 5}, nil)
	profile := createTestProfile()
	profile.Age = 16

	young := activeScheme("s-18", 10000)
	young.Criteria = models.Criteria{MinAge: ip(18)}
	older := activeScheme("s-21", 20000)
	older.Criteria = models.Criteria{MinAge: ip(21)}

	resp, err := o.FindMatches(context.Background(), profile, []models.Scheme{young, older}, nil)

	assert.NoError(t, err)
	assert.Empty(t, resp.Results)
	if assert.NotEmpty(t, resp.Suggestions) {
		top := resp.Suggestions[0]
		assert.Equal(t, models.AttributeAge, top.Attribute)
		assert.Equal(t, []string{"s-18", "s-21"}, top.UnlocksSchemeIDs)
	}
}

// ==========================
// Invalid Scheme Flagging Tests
// ==========================

func TestFindMatches_FlagsMalformedSchemes(t *testing.T) {
	flagger := newFakeFlagger()
	o := newTestOrchestrator(t, Config{}, flagger)

	bad := activeScheme("s-bad", 10000)
	bad.Criteria = models.Criteria{MinAge: ip(50), MaxAge: ip(20)}
	good := activeScheme("s-good", 5000)

	resp, err := o.FindMatches(context.Background(), createTestProfile(), []models.Scheme{bad, good}, nil)

	assert.NoError(t, err)
	if assert.Len(t, resp.Results, 1) {
		assert.Equal(t, "s-good", resp.Results[0].SchemeID)
	}
	assert.Contains(t, flagger.flagged, "s-bad")
}

// ==========================
// Deadline Tests
// ==========================

func TestFindMatches_CancelledContextReturnsPartial(t *testing.T) {
	o := newTestOrchestrator(t, Config{Parallelism: 1}, nil)

	catalog := make([]models.Scheme, 0, 200)
	for i := 0; i < 200; i++ {
		catalog = append(catalog, activeScheme(fmt.Sprintf("s-%03d", i), 1000))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := o.FindMatches(ctx, createTestProfile(), catalog, nil)

	assert.NoError(t, err, "a deadline abort is a degraded answer, not an error")
	assert.True(t, resp.Partial)
	assert.Less(t, resp.EvaluatedCount, resp.TotalCount)
}

func TestFindMatches_SoftDeadlineSetsTookLong(t *testing.T) {
	o := newTestOrchestrator(t, Config{SoftDeadline: 5 * time.Second}, nil)

	// A clock that jumps 6 seconds on every reading after the first.
	calls := 0
	o.WithClock(func() time.Time {
		calls++
		if calls == 1 {
			return testNow
		}
		return testNow.Add(6 * time.Second)
	})

	resp, err := o.FindMatches(context.Background(), createTestProfile(), createTestCatalog(), nil)

	assert.NoError(t, err)
	assert.True(t, resp.TookLong)
	assert.False(t, resp.Partial, "soft deadline never aborts evaluation")
	assert.NotEmpty(t, resp.Results)
}

// ==========================
// Explain Match Tests
// ==========================

func TestExplainMatch_QualifyingScheme(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)
	scheme := activeScheme("s-matched", 25000)
	scheme.Criteria = models.Criteria{MinAge: ip(18), States: []string{"bihar"}}

	qual, entries, err := o.ExplainMatch(context.Background(), createTestProfile(), &scheme)

	assert.NoError(t, err)
	assert.True(t, qual.Qualifies)
	assert.Len(t, entries, 2)
}

func TestExplainMatch_ExcludedSchemeReturnsReasonCode(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)
	scheme := activeScheme("s-expired", 25000)
	scheme.Deadline = testNow.Add(-time.Hour)

	qual, entries, err := o.ExplainMatch(context.Background(), createTestProfile(), &scheme)

	assert.NoError(t, err)
	assert.Equal(t, models.ReasonExpired, qual.Excluded)
	assert.Empty(t, entries, "excluded schemes carry a reason code, not criterion entries")
}

func TestExplainMatch_MalformedSchemeFlagsAndErrors(t *testing.T) {
	flagger := newFakeFlagger()
	o := newTestOrchestrator(t, Config{}, flagger)
	scheme := activeScheme("s-bad", 25000)
	scheme.Criteria = models.Criteria{MaxIncome: fp(-1)}

	qual, entries, err := o.ExplainMatch(context.Background(), createTestProfile(), &scheme)

	assert.Error(t, err)
	assert.Equal(t, models.ReasonInvalid, qual.Excluded)
	assert.Empty(t, entries)
	assert.Contains(t, flagger.flagged, "s-bad")
}

// ==========================
// Suggest Improvements Tests
// ==========================

func TestSuggestImprovements_OverFullCatalog(t *testing.T) {
	o := newTestOrchestrator(t, Config{SuggestionTopK: 5}, nil)
	profile := createTestProfile()
	profile.Age = 16

	// The open scheme qualifies, so the zero-match fallback would never
	// fire; the explicit query still surfaces the near-miss.
	catalog := createTestCatalog()
	blocked := activeScheme("s-20", 15000)
	blocked.Criteria = models.Criteria{MinAge: ip(20)}
	catalog = append(catalog, blocked)

	got, err := o.SuggestImprovements(context.Background(), profile, catalog)

	assert.NoError(t, err)
	if assert.NotEmpty(t, got) {
		assert.Equal(t, models.AttributeAge, got[0].Attribute)
		assert.Contains(t, got[0].UnlocksSchemeIDs, "s-20")
	}
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkFindMatches_500Schemes(b *testing.B) {
	log := logger.NewNoOpLogger()
	q := qualifier.New(criterion.DefaultSpans, log)
	s := ranking.NewScorer(models.ScoreWeights{})
	sg := suggest.New(5, criterion.DefaultSpans)
	o := New(Config{}, q, s, sg, nil, log)

	catalog := make([]models.Scheme, 0, 500)
	for i := 0; i < 500; i++ {
		sc := activeScheme(fmt.Sprintf("s-%03d", i), float64(1000+i))
		sc.Criteria = models.Criteria{
			MinAge:    ip(18 + i%20),
			MaxIncome: fp(float64(150000 + 1000*i)),
		}
		catalog = append(catalog, sc)
	}
	profile := createTestProfile()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := o.FindMatches(context.Background(), profile, catalog, nil); err != nil {
			b.Fatal(err)
		}
	}
}
