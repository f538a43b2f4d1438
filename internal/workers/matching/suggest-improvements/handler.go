// internal/workers/matching/suggest-improvements/handler.go
package suggestimprovements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yojana-workers/internal/common/logger"
	"yojana-workers/internal/common/metrics"
	"yojana-workers/internal/models"

	stderrors "yojana-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "suggest-improvements"
)

var (
	ErrNilInput       = errors.New("input cannot be nil")
	ErrMissingProfile = errors.New("profileId or inline profile is required")
)

type ProfileFetcher interface {
	GetProfile(ctx context.Context, profileID string) (*models.Profile, error)
}

type CatalogProvider interface {
	ActiveSchemes(ctx context.Context) ([]models.Scheme, error)
}

// Suggester runs the near-miss analysis over the full catalog.
type Suggester interface {
	SuggestImprovements(ctx context.Context, profile *models.Profile, catalog []models.Scheme) ([]models.Suggestion, error)
}

type Handler struct {
	config    *Config
	profiles  ProfileFetcher
	catalog   CatalogProvider
	suggester Suggester
	logger    logger.Logger
}

func NewHandler(config *Config, profiles ProfileFetcher, catalog CatalogProvider, suggester Suggester, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		profiles:  profiles,
		catalog:   catalog,
		suggester: suggester,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

	suggestions, err := h.suggester.SuggestImprovements(ctx, profile, catalog)
	if err != nil {
		return nil, err
	}

	// Never null in process variables; an empty array reads as "nothing
	// actionable" downstream.
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}
	return &Output{Suggestions: suggestions}, nil
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
	return "SUGGESTION_FAILED"
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
