package temporal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/config"
	"github.com/zenit-qa/zenit/internal/workflows"
)

// Client wraps the Temporal SDK client with additional functionality
type Client struct {
	client.Client
	logger    *zap.Logger
	namespace string
	taskQueue string
}

// NewClient creates a new Temporal client
func NewClient(cfg config.TemporalConfig, logger *zap.Logger) (*Client, error) {
	options := client.Options{
		HostPort:  cfg.Addr(),
		Namespace: cfg.Namespace,
		Logger:    NewZapAdapter(logger),
	}

	c, err := client.Dial(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	return &Client{
		Client:    c,
		logger:    logger,
		namespace: cfg.Namespace,
		taskQueue: cfg.TaskQueue,
	}, nil
}

// TaskQueue returns the configured task queue name
func (c *Client) TaskQueue() string {
	return c.taskQueue
}

// Namespace returns the configured namespace
func (c *Client) Namespace() string {
	return c.namespace
}

// Health checks connectivity to the Temporal frontend
func (c *Client) Health(ctx context.Context) error {
	_, err := c.CheckHealth(ctx, &client.CheckHealthRequest{})
	return err
}

// PRDWorkflowID is the workflow id of an extraction of the given document.
// Re-submitting the same document and phase reuses the id.
func PRDWorkflowID(storagePath, phase string) string {
	sum := sha256.Sum256([]byte(storagePath + "\x00" + phase))
	return "prd-extract-" + hex.EncodeToString(sum[:8])
}

// StartPRDExtraction starts the asynchronous extraction workflow
func (c *Client) StartPRDExtraction(ctx context.Context, input workflows.PRDExtractionInput) (*WorkflowStatus, error) {
	options := client.StartWorkflowOptions{
		ID:                       PRDWorkflowID(input.StoragePath, input.Phase),
		TaskQueue:                c.taskQueue,
		WorkflowExecutionTimeout: 15 * time.Minute,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}

	run, err := c.ExecuteWorkflow(ctx, options, workflows.PRDExtractionWorkflowName, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}
	c.logger.Info("PRD extraction started",
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()),
		zap.String("storage_path", input.StoragePath),
	)

	return &WorkflowStatus{
		WorkflowID: run.GetID(),
		RunID:      run.GetRunID(),
		Status:     "Running",
		StartTime:  time.Now().UTC(),
	}, nil
}

// PRDExtractionResult returns the workflow status and, once it completed,
// its output
func (c *Client) PRDExtractionResult(ctx context.Context, workflowID string) (*WorkflowStatus, *workflows.PRDExtractionOutput, error) {
	status, err := c.GetWorkflowStatus(ctx, workflowID, "")
	if err != nil {
		return nil, nil, err
	}
	if !status.IsCompleted() {
		return status, nil, nil
	}

	var out workflows.PRDExtractionOutput
	if err := c.GetWorkflow(ctx, workflowID, status.RunID).Get(ctx, &out); err != nil {
		return status, nil, fmt.Errorf("failed to read workflow result: %w", err)
	}
	return status, &out, nil
}

// WorkflowStatus represents the status of a workflow execution
type WorkflowStatus struct {
	WorkflowID string     `json:"workflow_id"`
	RunID      string     `json:"run_id"`
	Status     string     `json:"status"`
	StartTime  time.Time  `json:"start_time"`
	CloseTime  *time.Time `json:"close_time,omitempty"`
}

// IsRunning returns true if the workflow is still running
func (s *WorkflowStatus) IsRunning() bool {
	return s.Status == "Running" || s.Status == "WORKFLOW_EXECUTION_STATUS_RUNNING"
}

// IsCompleted returns true if the workflow completed successfully
func (s *WorkflowStatus) IsCompleted() bool {
	return s.Status == "Completed" || s.Status == "WORKFLOW_EXECUTION_STATUS_COMPLETED"
}

// IsFailed returns true if the workflow failed
func (s *WorkflowStatus) IsFailed() bool {
	return s.Status == "Failed" || s.Status == "WORKFLOW_EXECUTION_STATUS_FAILED"
}

// IsCanceled returns true if the workflow was canceled
func (s *WorkflowStatus) IsCanceled() bool {
	return s.Status == "Canceled" || s.Status == "WORKFLOW_EXECUTION_STATUS_CANCELED"
}

// ZapAdapter adapts zap.Logger to Temporal's log interface
type ZapAdapter struct {
	logger *zap.Logger
}

// NewZapAdapter creates a new Temporal logger adapter
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{logger: logger.Named("temporal")}
}

func (z *ZapAdapter) Debug(msg string, keyvals ...interface{}) {
	z.logger.Debug(msg, toZapFields(keyvals)...)
}

func (z *ZapAdapter) Info(msg string, keyvals ...interface{}) {
	z.logger.Info(msg, toZapFields(keyvals)...)
}

func (z *ZapAdapter) Warn(msg string, keyvals ...interface{}) {
	z.logger.Warn(msg, toZapFields(keyvals)...)
}

func (z *ZapAdapter) Error(msg string, keyvals ...interface{}) {
	z.logger.Error(msg, toZapFields(keyvals)...)
}

func toZapFields(keyvals []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals)-1; i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}
	return fields
}
