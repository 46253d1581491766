package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/rhythm-workflows/rhythm-go/internal/domain"
	"github.com/rhythm-workflows/rhythm-go/internal/observability"
	"github.com/rhythm-workflows/rhythm-go/internal/temporal/versioning"
)

// TemporalDispatcher starts and signals step sequences with a Temporal
// client. The Temporal workflow ID is the catalog workflow ID.
type TemporalDispatcher struct {
	client    client.Client
	taskQueue string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a TemporalDispatcher. An empty taskQueue selects
// versioning.QueueSteps.
func New(c client.Client, taskQueue string, logger *slog.Logger, metrics *observability.Metrics) *TemporalDispatcher {
	if taskQueue == "" {
		taskQueue = versioning.QueueSteps
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TemporalDispatcher{client: c, taskQueue: taskQueue, logger: logger, metrics: metrics}
}

// Dispatch starts the step sequence for wf.
func (d *TemporalDispatcher) Dispatch(ctx context.Context, wf *domain.WorkflowRecord, args []any) error {
	opts := client.StartWorkflowOptions{
		ID:        wf.ID,
		TaskQueue: d.taskQueue,
	}
	input := StartInput{
		WorkflowID: wf.ID,
		AppID:      wf.AppID,
		Steps:      wf.Steps,
		Args:       args,
	}

	run, err := d.client.ExecuteWorkflow(ctx, opts, versioning.WorkflowStepSequence, input)
	d.metrics.RecordDispatch(ctx, "start", err)
	if err != nil {
		return classify("start workflow", wf.ID, err)
	}
	d.logger.Info("workflow dispatched",
		"workflow_id", wf.ID,
		"run_id", run.GetRunID(),
		"task_queue", d.taskQueue,
	)
	return nil
}

// Signal delivers a named signal to the running step sequence.
func (d *TemporalDispatcher) Signal(ctx context.Context, workflowID, signal string, payload any) error {
	err := d.client.SignalWorkflow(ctx, workflowID, "", signal, payload)
	d.metrics.RecordDispatch(ctx, signal, err)
	if err != nil {
		return classify("signal "+signal, workflowID, err)
	}
	d.logger.Info("workflow signalled", "workflow_id", workflowID, "signal", signal)
	return nil
}

func classify(op, workflowID string, err error) error {
	var (
		notFound    *serviceerror.NotFound
		unavailable *serviceerror.Unavailable
		deadline    *serviceerror.DeadlineExceeded
	)
	switch {
	case errors.As(err, &notFound):
		return fmt.Errorf("%s %s: %w", op, workflowID, domain.ErrNotRunning)
	case errors.As(err, &unavailable),
		errors.As(err, &deadline),
		errors.Is(err, context.DeadlineExceeded):
		return domain.Unavailable(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
