package workflows

import (
	"time"

	"github.com/zenit-qa/zenit/internal/domain"
)

// PRDExtractionWorkflowName is the registered workflow type
const PRDExtractionWorkflowName = "PRDExtractionWorkflow"

// Activity names - must match registered activity names
const (
	ExtractCasesActivityName  = "ExtractCasesActivity"
	TagCasesActivityName      = "TagCasesActivity"
	RecordOutcomeActivityName = "RecordOutcomeActivity"
)

// Workflow outcome values
const (
	StatusCompleted  = "completed"
	StatusNeedsPhase = "needs_phase"
	StatusFailed     = "failed"
)

// PRDExtractionInput starts an extraction of an uploaded document
type PRDExtractionInput struct {
	StoragePath string       `json:"storage_path"`
	Phase       string       `json:"phase,omitempty"`
	Module      string       `json:"module,omitempty"`
	Actor       domain.Actor `json:"actor"`
	TagCases    bool         `json:"tag_cases"`
}

// PRDExtractionOutput is the result of the workflow
type PRDExtractionOutput struct {
	StoragePath   string                `json:"storage_path"`
	Status        string                `json:"status"`
	Phases        []string              `json:"phases,omitempty"`
	Phase         string                `json:"phase,omitempty"`
	Source        domain.TestCaseSource `json:"source,omitempty"`
	CaseIDs       []string              `json:"case_ids,omitempty"`
	Tagged        int                   `json:"tagged"`
	Error         string                `json:"error,omitempty"`
	CompletedAt   time.Time             `json:"completed_at"`
	TotalDuration time.Duration         `json:"total_duration"`
}

// ExtractCasesInput is the input of the extraction activity
type ExtractCasesInput struct {
	StoragePath string       `json:"storage_path"`
	Phase       string       `json:"phase,omitempty"`
	Module      string       `json:"module,omitempty"`
	Actor       domain.Actor `json:"actor"`
}

// ExtractCasesOutput is the output of the extraction activity
type ExtractCasesOutput struct {
	NeedsPhase bool                  `json:"need_phase"`
	Phases     []string              `json:"phases,omitempty"`
	Phase      string                `json:"phase,omitempty"`
	Source     domain.TestCaseSource `json:"source,omitempty"`
	CaseIDs    []string              `json:"case_ids"`
}

// TagCasesInput names the cases to tag
type TagCasesInput struct {
	CaseIDs []string `json:"case_ids"`
}

// TagCasesOutput reports how many cases were tagged
type TagCasesOutput struct {
	Tagged int `json:"tagged"`
}

// RecordOutcomeInput reports a finished workflow for metrics
type RecordOutcomeInput struct {
	Workflow string        `json:"workflow"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`
}
