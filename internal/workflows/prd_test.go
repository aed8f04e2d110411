package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/zenit-qa/zenit/internal/domain"
)

func newTestEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	env.RegisterWorkflowWithOptions(PRDExtractionWorkflow, workflowOptions())
	env.RegisterActivityWithOptions(func(context.Context, ExtractCasesInput) (*ExtractCasesOutput, error) {
		return nil, errors.New("not mocked")
	}, activity.RegisterOptions{Name: ExtractCasesActivityName})
	env.RegisterActivityWithOptions(func(context.Context, TagCasesInput) (*TagCasesOutput, error) {
		return nil, errors.New("not mocked")
	}, activity.RegisterOptions{Name: TagCasesActivityName})
	env.RegisterActivityWithOptions(func(context.Context, RecordOutcomeInput) error {
		return nil
	}, activity.RegisterOptions{Name: RecordOutcomeActivityName})
	return env
}

func runWorkflow(t *testing.T, env *testsuite.TestWorkflowEnvironment, input PRDExtractionInput) *PRDExtractionOutput {
	t.Helper()
	env.ExecuteWorkflow(PRDExtractionWorkflowName, input)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out PRDExtractionOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	return &out
}

func TestPRDExtractionWorkflow_ExtractsAndTags(t *testing.T) {
	env := newTestEnv(t)
	ids := []string{"a", "b"}

	env.OnActivity(ExtractCasesActivityName, mock.Anything, ExtractCasesInput{
		StoragePath: "prd-uploads/1/prd.md",
		Phase:       "Phase 1",
		Actor:       domain.Actor{ID: "u1", Name: "Dana"},
	}).Return(&ExtractCasesOutput{Phase: "Phase 1", Source: domain.SourceRules, CaseIDs: ids}, nil).Once()
	env.OnActivity(TagCasesActivityName, mock.Anything, TagCasesInput{CaseIDs: ids}).
		Return(&TagCasesOutput{Tagged: 2}, nil).Once()
	env.OnActivity(RecordOutcomeActivityName, mock.Anything, mock.MatchedBy(func(in RecordOutcomeInput) bool {
		return in.Status == StatusCompleted
	})).Return(nil).Once()

	out := runWorkflow(t, env, PRDExtractionInput{
		StoragePath: "prd-uploads/1/prd.md",
		Phase:       "Phase 1",
		Actor:       domain.Actor{ID: "u1", Name: "Dana"},
		TagCases:    true,
	})

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, ids, out.CaseIDs)
	assert.Equal(t, 2, out.Tagged)
	assert.Equal(t, domain.SourceRules, out.Source)
	env.AssertExpectations(t)
}

func TestPRDExtractionWorkflow_NeedsPhase(t *testing.T) {
	env := newTestEnv(t)
	env.OnActivity(ExtractCasesActivityName, mock.Anything, mock.Anything).
		Return(&ExtractCasesOutput{NeedsPhase: true, Phases: []string{"Initial", "Phase 1"}}, nil)

	out := runWorkflow(t, env, PRDExtractionInput{StoragePath: "p.md", TagCases: true})

	assert.Equal(t, StatusNeedsPhase, out.Status)
	assert.Equal(t, []string{"Initial", "Phase 1"}, out.Phases)
	assert.Empty(t, out.CaseIDs)
	env.AssertNotCalled(t, TagCasesActivityName, mock.Anything, mock.Anything)
}

func TestPRDExtractionWorkflow_ExtractionFailure(t *testing.T) {
	env := newTestEnv(t)
	env.OnActivity(ExtractCasesActivityName, mock.Anything, mock.Anything).
		Return(nil, temporal.NewNonRetryableApplicationError("document not found", "NOT_FOUND", nil))

	out := runWorkflow(t, env, PRDExtractionInput{StoragePath: "missing.md"})

	assert.Equal(t, StatusFailed, out.Status)
	assert.Contains(t, out.Error, "document not found")
}

func TestPRDExtractionWorkflow_TaggingFailureKeepsCases(t *testing.T) {
	env := newTestEnv(t)
	env.OnActivity(ExtractCasesActivityName, mock.Anything, mock.Anything).
		Return(&ExtractCasesOutput{CaseIDs: []string{"a"}}, nil)
	env.OnActivity(TagCasesActivityName, mock.Anything, mock.Anything).
		Return(nil, temporal.NewNonRetryableApplicationError("db down", "DATABASE_ERROR", nil))

	out := runWorkflow(t, env, PRDExtractionInput{StoragePath: "p.md", TagCases: true})

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, []string{"a"}, out.CaseIDs)
	assert.Zero(t, out.Tagged)
}
