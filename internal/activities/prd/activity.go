// Package prd holds the Temporal activities of asynchronous PRD extraction.
package prd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/internal/observability"
	prdsvc "github.com/zenit-qa/zenit/internal/services/prd"
	"github.com/zenit-qa/zenit/internal/workflows"
)

// Extractor extracts and saves cases from a stored document
type Extractor interface {
	Extract(ctx context.Context, req prdsvc.ExtractRequest) (*prdsvc.ExtractResult, error)
}

// Activity runs extraction steps for the PRD workflow
type Activity struct {
	extractor Extractor
	cases     domain.TestCaseRepository
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewActivity creates the PRD activities
func NewActivity(extractor Extractor, cases domain.TestCaseRepository, metrics *observability.Metrics, logger *zap.Logger) *Activity {
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}
	return &Activity{
		extractor: extractor,
		cases:     cases,
		metrics:   metrics,
		logger:    logger,
	}
}

// ExtractCases reads the stored document and saves its cases
func (a *Activity) ExtractCases(ctx context.Context, input workflows.ExtractCasesInput) (*workflows.ExtractCasesOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Extracting cases", "storage_path", input.StoragePath, "phase", input.Phase)

	res, err := a.extractor.Extract(ctx, prdsvc.ExtractRequest{
		StoragePath: input.StoragePath,
		Phase:       input.Phase,
		Module:      input.Module,
		Actor:       input.Actor,
	})
	if err != nil {
		a.metrics.RecordActivityExecution(workflows.ExtractCasesActivityName, "failed")
		return nil, activityError(err)
	}
	a.metrics.RecordActivityExecution(workflows.ExtractCasesActivityName, "completed")

	out := &workflows.ExtractCasesOutput{
		NeedsPhase: res.NeedsPhase,
		Phases:     res.Phases,
		Phase:      res.Phase,
		Source:     res.Source,
		CaseIDs:    make([]string, len(res.Saved)),
	}
	for i, tc := range res.Saved {
		out.CaseIDs[i] = tc.ID.String()
	}
	return out, nil
}

// TagCases stores automation tags for the given cases
func (a *Activity) TagCases(ctx context.Context, input workflows.TagCasesInput) (*workflows.TagCasesOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Tagging cases", "count", len(input.CaseIDs))

	ids := make([]uuid.UUID, 0, len(input.CaseIDs))
	for _, s := range input.CaseIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("invalid case ID %q", s), domain.ErrCodeValidation, err)
		}
		ids = append(ids, id)
	}

	cases, err := a.cases.ListByIDs(ctx, ids)
	if err != nil {
		a.metrics.RecordActivityExecution(workflows.TagCasesActivityName, "failed")
		return nil, fmt.Errorf("loading cases: %w", err)
	}
	tags := domain.AutomationTags(cases)
	if err := a.cases.UpdateAutomationTags(ctx, tags); err != nil {
		a.metrics.RecordActivityExecution(workflows.TagCasesActivityName, "failed")
		return nil, fmt.Errorf("saving tags: %w", err)
	}

	a.metrics.RecordActivityExecution(workflows.TagCasesActivityName, "completed")
	return &workflows.TagCasesOutput{Tagged: len(tags)}, nil
}

// RecordOutcome publishes workflow completion metrics
func (a *Activity) RecordOutcome(ctx context.Context, input workflows.RecordOutcomeInput) error {
	a.metrics.RecordWorkflowComplete(input.Workflow, input.Status, input.Duration)
	a.logger.Debug("workflow outcome recorded",
		zap.String("workflow", input.Workflow),
		zap.String("status", input.Status),
	)
	return nil
}

// activityError marks client errors as non-retryable
func activityError(err error) error {
	code := domain.GetErrorCode(err)
	switch code {
	case domain.ErrCodeValidation, domain.ErrCodeNotFound, domain.ErrCodeExtractionFailed:
		return temporal.NewNonRetryableApplicationError(err.Error(), code, err)
	}
	return err
}
