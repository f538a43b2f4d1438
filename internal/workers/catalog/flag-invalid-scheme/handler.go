// internal/workers/catalog/flag-invalid-scheme/handler.go
package flaginvalidscheme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yojana-workers/internal/common/logger"
	"yojana-workers/internal/common/metrics"

	stderrors "yojana-workers/internal/common/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "flag-invalid-scheme"
)

var (
	ErrNilInput       = errors.New("input cannot be nil")
	ErrMissingScheme  = errors.New("schemeId is required")
	ErrMissingDetails = errors.New("details is required")
)

// SNSService is the publish surface, narrowed for mocking.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	snsClient SNSService
	logger    logger.Logger
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewHandlerWithClient(config, sns.NewFromConfig(awsCfg), log), nil
}

// NewHandlerWithClient injects the publish client; tests use it.
func NewHandlerWithClient(config *Config, client SNSService, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		snsClient: client,
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
	if input.SchemeID == "" {
		return nil, ErrMissingScheme
	}
	if input.Details == "" {
		return nil, ErrMissingDetails
	}

	flaggedAt := time.Now().UTC().Format(time.RFC3339)
	payload, err := json.Marshal(flagMessage{
		SchemeID:  input.SchemeID,
		Details:   input.Details,
		Source:    input.Source,
		FlaggedAt: flaggedAt,
	})
	if err != nil {
		return nil, err
	}

	result, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(h.config.TopicARN),
		Subject:  aws.String("Invalid scheme criteria: " + input.SchemeID),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		return nil, stderrors.NewFlagPublishFailedError(input.SchemeID, err)
	}

	h.logger.Info("scheme flagged", map[string]interface{}{
		"schemeId":  input.SchemeID,
		"messageId": aws.ToString(result.MessageId),
	})
	return &Output{
		MessageID: aws.ToString(result.MessageId),
		FlaggedAt: flaggedAt,
	}, nil
}

// Execute exposes the pure job logic for callers that are not job transports.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// Flagger adapts the handler for in-process use by the matching engine: when
// the orchestrator detects a malformed scheme it flags directly instead of
// spawning a workflow job. Publishing stays best effort there.
type Flagger struct {
	handler *Handler
}

func NewFlagger(handler *Handler) *Flagger {
	return &Flagger{handler: handler}
}

func (f *Flagger) FlagInvalid(ctx context.Context, schemeID, details string) {
	_, err := f.handler.execute(ctx, &Input{
		SchemeID: schemeID,
		Details:  details,
		Source:   "matching-engine",
	})
	if err != nil {
		f.handler.logger.Warn("best-effort scheme flag failed", map[string]interface{}{
			"schemeId": schemeID,
			"error":    err.Error(),
		})
	}
}

func errorCode(err error) string {
	var stdErr *stderrors.StandardError
	if errors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return "FLAG_FAILED"
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
