// internal/engine/orchestrator/orchestrator.go
// Package orchestrator is the top-level entry point of the matching engine:
// it snapshots its inputs, drives qualification across the catalog in
// parallel, ranks and explains the qualifying set, falls back to suggestions
// on zero matches, and enforces the soft/hard deadline contract.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	stderrors "yojana-workers/internal/common/errors"
	"yojana-workers/internal/common/logger"
	"yojana-workers/internal/common/metrics"
	"yojana-workers/internal/engine/explain"
	"yojana-workers/internal/engine/qualifier"
	"yojana-workers/internal/engine/ranking"
	"yojana-workers/internal/engine/suggest"
	"yojana-workers/internal/models"
)

// SchemeFlagger reports malformed schemes to the scheme-management service.
// Flagging is best effort and never affects the matching call.
type SchemeFlagger interface {
	FlagInvalid(ctx context.Context, schemeID, details string)
}

type Config struct {
	Parallelism    int
	PageSize       int
	SuggestionTopK int

	// SoftDeadline marks the response as "taking longer" without aborting.
	// HardDeadline aborts still-pending evaluations and returns what
	// accumulated, with Partial set.
	SoftDeadline time.Duration
	HardDeadline time.Duration
}

func (c *Config) applyDefaults() {
	if c.Parallelism <= 0 {
		c.Parallelism = 8
	}
	if c.PageSize <= 0 {
		c.PageSize = 20
	}
	if c.SuggestionTopK <= 0 {
		c.SuggestionTopK = 5
	}
	if c.SoftDeadline <= 0 {
		c.SoftDeadline = 5 * time.Second
	}
	if c.HardDeadline <= 0 {
		c.HardDeadline = 10 * time.Second
	}
}

type Orchestrator struct {
	cfg       Config
	qualifier *qualifier.Qualifier
	scorer    *ranking.Scorer
	suggester *suggest.Engine
	flagger   SchemeFlagger
	logger    logger.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

func New(cfg Config, q *qualifier.Qualifier, s *ranking.Scorer, sg *suggest.Engine, flagger SchemeFlagger, log logger.Logger) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		cfg:       cfg,
		qualifier: q,
		scorer:    s,
		suggester: sg,
		flagger:   flagger,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock overrides the evaluation clock; tests use it to pin deadlines.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// evalResult is one scheme's verdict coming off the worker pool.
type evalResult struct {
	idx  int
	qual *models.Qualification
	err  *stderrors.StandardError
}

// FindMatches runs the full matching pipeline for one profile against one
// catalog snapshot. It is a stateless, idempotent transformation: identical
// inputs yield identical ordered results and scores.
func (o *Orchestrator) FindMatches(ctx context.Context, profile *models.Profile, catalog []models.Scheme, prefs *models.Preferences) (*models.MatchResponse, error) {
	start := o.now()
	callID := uuid.NewString()
	log := o.logger.WithFields(map[string]interface{}{
		"callId":    callID,
		"profileId": profile.ID,
		"schemes":   len(catalog),
	})

	// Snapshot at call start: workers read only these copies, so concurrent
	// mutation of the caller's records cannot produce inconsistent verdicts.
	snapshot := models.CloneSchemes(catalog)
	prof := profile.Clone()
	evalTime := start

	resp := &models.MatchResponse{
		CallID:     callID,
		TotalCount: len(snapshot),
	}

	quals, evaluated, partial := o.runQualification(ctx, log, prof, snapshot, evalTime)
	resp.EvaluatedCount = evaluated
	resp.Partial = partial
	resp.TookLong = o.now().Sub(start) > o.cfg.SoftDeadline

	stats := ranking.ComputeCatalogStats(snapshot)
	var nonQualifying []suggest.Candidate
	results := make([]models.MatchResult, 0, len(quals))

	for idx, qual := range quals {
		if qual == nil {
			continue // aborted by the hard deadline
		}
		scheme := &snapshot[idx]
		if qual.Excluded != "" {
			continue // inactive, expired or invalid: never shown, never explained
		}
		if !qual.Qualifies {
			nonQualifying = append(nonQualifying, suggest.Candidate{
				Scheme:        *scheme,
				Qualification: *qual,
			})
			continue
		}

		score, factors := o.scorer.Score(scheme, qual, prefs, stats, evalTime)
		result := models.MatchResult{
			SchemeID:       scheme.ID,
			SchemeName:     scheme.Name,
			Qualifies:      true,
			Outcomes:       qual.Outcomes,
			Score:          score,
			RankingFactors: factors,
			Explanation:    explain.Build(prof, scheme, qual.Outcomes),
			BenefitAmount:  scheme.BenefitAmount,
		}
		result.SetEligibilityMargin(qual.EligibilityMargin)
		results = append(results, result)
	}

	ranking.Sort(results)
	if len(results) > o.cfg.PageSize {
		results = results[:o.cfg.PageSize]
	}
	resp.Results = results

	if len(results) == 0 {
		resp.Suggestions = o.suggester.Suggest(prof, nonQualifying)
		metrics.SuggestionsGenerated.Add(float64(len(resp.Suggestions)))
	}

	elapsed := o.now().Sub(start)
	metrics.MatchingDuration.Observe(elapsed.Seconds())
	switch {
	case resp.Partial:
		metrics.MatchingCalls.WithLabelValues("partial").Inc()
	case len(results) > 0:
		metrics.MatchingCalls.WithLabelValues("matched").Inc()
	default:
		metrics.MatchingCalls.WithLabelValues("no_match").Inc()
	}

	log.Info("matching completed", map[string]interface{}{
		"qualified":   len(results),
		"evaluated":   resp.EvaluatedCount,
		"partial":     resp.Partial,
		"tookLong":    resp.TookLong,
		"suggestions": len(resp.Suggestions),
		"durationMs":  elapsed.Milliseconds(),
	})
	return resp, nil
}

// runQualification fans scheme evaluation out over a bounded worker pool.
// Workers share no mutable state: each reads the immutable snapshot and
// writes its own slot. Cancellation discards in-flight verdicts, which is
// always safe since evaluation has no side effects.
func (o *Orchestrator) runQualification(ctx context.Context, log logger.Logger, prof *models.Profile, snapshot []models.Scheme, evalTime time.Time) ([]*models.Qualification, int, bool) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.HardDeadline)
	defer cancel()

	jobs := make(chan int)
	out := make(chan evalResult, len(snapshot))

	workers := o.cfg.Parallelism
	if workers > len(snapshot) {
		workers = len(snapshot)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				qual, err := o.qualifier.Qualify(prof, &snapshot[idx], evalTime)
				select {
				case out <- evalResult{idx: idx, qual: qual, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range snapshot {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	quals := make([]*models.Qualification, len(snapshot))
	evaluated := 0
	partial := false

collect:
	for evaluated < len(snapshot) {
		select {
		case r, ok := <-out:
			if !ok {
				// Workers exited early on cancellation.
				partial = evaluated < len(snapshot)
				break collect
			}
			quals[r.idx] = r.qual
			evaluated++
			if r.err != nil {
				o.flagInvalid(ctx, log, r.qual.SchemeID, r.err)
			}
		case <-ctx.Done():
			partial = true
			log.Warn("hard deadline reached, returning partial results", map[string]interface{}{
				"evaluated": evaluated,
				"total":     len(snapshot),
			})
			break collect
		}
	}

	return quals, evaluated, partial
}

func (o *Orchestrator) flagInvalid(ctx context.Context, log logger.Logger, schemeID string, err *stderrors.StandardError) {
	log.Warn("scheme excluded for malformed criteria", map[string]interface{}{
		"schemeId": schemeID,
		"details":  err.Details,
	})
	if o.flagger != nil {
		o.flagger.FlagInvalid(ctx, schemeID, err.Details)
	}
}

// ExplainMatch re-evaluates a single scheme and returns its qualification
// plus the rendered explanation. Only criteria the scheme defines appear; an
// excluded scheme comes back with its reason code and no outcomes.
func (o *Orchestrator) ExplainMatch(ctx context.Context, profile *models.Profile, scheme *models.Scheme) (*models.Qualification, []models.ExplanationEntry, error) {
	prof := profile.Clone()
	snap := scheme.Clone()

	qual, stdErr := o.qualifier.Qualify(prof, &snap, o.now())
	if stdErr != nil {
		o.flagInvalid(ctx, o.logger, snap.ID, stdErr)
		return qual, nil, stdErr
	}
	if qual.Excluded != "" {
		// Exclusions are reported as reason codes, not criterion failures.
		return qual, nil, nil
	}
	return qual, explain.Build(prof, &snap, qual.Outcomes), nil
}

// SuggestImprovements answers the explicit "how could I qualify" query over
// the full catalog, independent of the zero-match fallback.
func (o *Orchestrator) SuggestImprovements(ctx context.Context, profile *models.Profile, catalog []models.Scheme) ([]models.Suggestion, error) {
	prof := profile.Clone()
	snapshot := models.CloneSchemes(catalog)
	evalTime := o.now()

	quals, _, _ := o.runQualification(ctx, o.logger, prof, snapshot, evalTime)

	var candidates []suggest.Candidate
	for idx, qual := range quals {
		if qual == nil || qual.Excluded != "" || qual.Qualifies {
			continue
		}
		candidates = append(candidates, suggest.Candidate{
			Scheme:        snapshot[idx],
			Qualification: *qual,
		})
	}

	suggestions := o.suggester.Suggest(prof, candidates)
	metrics.SuggestionsGenerated.Add(float64(len(suggestions)))
	return suggestions, nil
}
