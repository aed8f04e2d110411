package prd

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"

	"github.com/zenit-qa/zenit/internal/workflows"
)

// RegisterActivities registers the PRD activities with the Temporal worker
func RegisterActivities(w worker.ActivityRegistry, a *Activity) {
	w.RegisterActivityWithOptions(a.ExtractCases, activity.RegisterOptions{
		Name: workflows.ExtractCasesActivityName,
	})

	w.RegisterActivityWithOptions(a.TagCases, activity.RegisterOptions{
		Name: workflows.TagCasesActivityName,
	})

	w.RegisterActivityWithOptions(a.RecordOutcome, activity.RegisterOptions{
		Name: workflows.RecordOutcomeActivityName,
	})
}
