package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// PRDExtractionWorkflow extracts test cases from a stored document and
// optionally tags them for automation. Failures are reported in the output
// rather than failing the workflow.
func PRDExtractionWorkflow(ctx workflow.Context, input PRDExtractionInput) (*PRDExtractionOutput, error) {
	logger := workflow.GetLogger(ctx)
	startTime := workflow.Now(ctx)

	logger.Info("Starting PRD extraction workflow",
		"storage_path", input.StoragePath,
		"phase", input.Phase,
	)

	output := &PRDExtractionOutput{
		StoragePath: input.StoragePath,
	}

	extracted, err := executeExtraction(ctx, input)
	if err != nil {
		output.Status = StatusFailed
		output.Error = fmt.Sprintf("extraction failed: %v", err)
		return finish(ctx, output, startTime), nil
	}

	if extracted.NeedsPhase {
		logger.Info("Document has several phases; waiting for a choice", "phases", len(extracted.Phases))
		output.Status = StatusNeedsPhase
		output.Phases = extracted.Phases
		return finish(ctx, output, startTime), nil
	}

	output.Phase = extracted.Phase
	output.Source = extracted.Source
	output.CaseIDs = extracted.CaseIDs
	logger.Info("Cases extracted", "count", len(extracted.CaseIDs), "source", extracted.Source)

	if input.TagCases && len(extracted.CaseIDs) > 0 {
		tagged, err := executeTagging(ctx, extracted.CaseIDs)
		if err != nil {
			logger.Warn("Tagging failed, cases are saved untagged", "error", err)
		} else {
			output.Tagged = tagged.Tagged
		}
	}

	output.Status = StatusCompleted
	return finish(ctx, output, startTime), nil
}

func finish(ctx workflow.Context, output *PRDExtractionOutput, startTime time.Time) *PRDExtractionOutput {
	output.CompletedAt = workflow.Now(ctx)
	output.TotalDuration = output.CompletedAt.Sub(startTime)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	err := workflow.ExecuteActivity(ctx, RecordOutcomeActivityName, RecordOutcomeInput{
		Workflow: PRDExtractionWorkflowName,
		Status:   output.Status,
		Duration: output.TotalDuration,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Warn("Recording workflow outcome failed", "error", err)
	}

	workflow.GetLogger(ctx).Info("PRD extraction workflow finished",
		"status", output.Status,
		"duration", output.TotalDuration,
	)
	return output
}

// executeExtraction runs the extraction activity
func executeExtraction(ctx workflow.Context, input PRDExtractionInput) (*ExtractCasesOutput, error) {
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var output ExtractCasesOutput
	err := workflow.ExecuteActivity(ctx, ExtractCasesActivityName, ExtractCasesInput{
		StoragePath: input.StoragePath,
		Phase:       input.Phase,
		Module:      input.Module,
		Actor:       input.Actor,
	}).Get(ctx, &output)
	return &output, err
}

// executeTagging runs the automation tag activity
func executeTagging(ctx workflow.Context, caseIDs []string) (*TagCasesOutput, error) {
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var output TagCasesOutput
	err := workflow.ExecuteActivity(ctx, TagCasesActivityName, TagCasesInput{CaseIDs: caseIDs}).Get(ctx, &output)
	return &output, err
}

func workflowOptions() workflow.RegisterOptions {
	return workflow.RegisterOptions{Name: PRDExtractionWorkflowName}
}

// Register adds the workflows of this package to a worker
func Register(w worker.WorkflowRegistry) {
	w.RegisterWorkflowWithOptions(PRDExtractionWorkflow, workflowOptions())
}
