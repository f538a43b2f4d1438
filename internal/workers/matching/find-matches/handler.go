// internal/workers/matching/find-matches/handler.go
package findmatches

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yojana-workers/internal/common/logger"
	"yojana-workers/internal/common/metrics"
	"yojana-workers/internal/models"
	"yojana-workers/internal/stores/schemestore"

	stderrors "yojana-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "find-matches"
)

var (
	ErrNilInput       = errors.New("input cannot be nil")
	ErrMissingProfile = errors.New("profileId or inline profile is required")
)

// ProfileFetcher resolves a profile id to the stored profile.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, profileID string) (*models.Profile, error)
}

// CatalogProvider supplies the active scheme snapshot.
type CatalogProvider interface {
	ActiveSchemes(ctx context.Context) ([]models.Scheme, error)
}

// PreferenceProvider returns stored ranking preferences, nil when absent.
type PreferenceProvider interface {
	GetPreferences(ctx context.Context, userID string) (*models.Preferences, error)
}

// Matcher is the engine entry point this worker drives.
type Matcher interface {
	FindMatches(ctx context.Context, profile *models.Profile, catalog []models.Scheme, prefs *models.Preferences) (*models.MatchResponse, error)
}

// SearchFilter narrows the catalog by keyword/region before evaluation.
// Optional: a nil filter means the full snapshot is evaluated.
type SearchFilter interface {
	SearchIDs(ctx context.Context, q schemestore.SearchQuery) ([]string, error)
}

type Handler struct {
	config   *Config
	profiles ProfileFetcher
	catalog  CatalogProvider
	prefs    PreferenceProvider
	search   SearchFilter
	matcher  Matcher
	logger   logger.Logger
}

func NewHandler(config *Config, profiles ProfileFetcher, catalog CatalogProvider, prefs PreferenceProvider, search SearchFilter, matcher Matcher, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		profiles: profiles,
		catalog:  catalog,
		prefs:    prefs,
		search:   search,
		matcher:  matcher,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, errorCode(err), err.Error())
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	profile := input.Profile
	if profile == nil {
		if input.ProfileID == "" {
			return nil, ErrMissingProfile
		}
		p, err := h.profiles.GetProfile(ctx, input.ProfileID)
		if err != nil {
			return nil, err
		}
		profile = p
	}

	catalog, err := h.catalog.ActiveSchemes(ctx)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		h.logger.Warn("catalog snapshot is empty", map[string]interface{}{
			"profileId": profile.ID,
		})
	}
	catalog = h.applySearchFilter(ctx, input, catalog)

	prefs := input.Preferences
	if prefs == nil && h.prefs != nil {
		userID := input.UserID
		if userID == "" {
			userID = profile.ID
		}
		stored, err := h.prefs.GetPreferences(ctx, userID)
		if err != nil {
			// Preferences are an enhancement; rank with defaults when the
			// store misbehaves.
			h.logger.Warn("preference lookup failed, using defaults", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		} else {
			prefs = stored
		}
	}

	resp, err := h.matcher.FindMatches(ctx, profile, catalog, prefs)
	if err != nil {
		return nil, err
	}

	return &Output{
		CallID:         resp.CallID,
		Results:        resp.Results,
		Suggestions:    resp.Suggestions,
		Partial:        resp.Partial,
		TookLong:       resp.TookLong,
		EvaluatedCount: resp.EvaluatedCount,
		TotalCount:     resp.TotalCount,
	}, nil
}

// applySearchFilter narrows the snapshot to schemes the search index
// considers relevant. The engine re-evaluates everything that survives, so a
// search failure degrades to the unfiltered catalog.
func (h *Handler) applySearchFilter(ctx context.Context, input *Input, catalog []models.Scheme) []models.Scheme {
	if h.search == nil || (input.Keywords == "" && input.State == "" && input.Category == "") {
		return catalog
	}

	ids, err := h.search.SearchIDs(ctx, schemestore.SearchQuery{
		Keywords: input.Keywords,
		State:    input.State,
		Category: input.Category,
		Size:     len(catalog),
	})
	if err != nil {
		h.logger.Warn("search pre-filter failed, evaluating full catalog", map[string]interface{}{
			"error": err.Error(),
		})
		return catalog
	}

	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	filtered := catalog[:0:0]
	for i := range catalog {
		if keep[catalog[i].ID] {
			filtered = append(filtered, catalog[i])
		}
	}
	return filtered
}

// Execute exposes the pure job logic for callers that are not job transports.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func errorCode(err error) string {
	var stdErr *stderrors.StandardError
	if errors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return "MATCHING_FAILED"
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}
