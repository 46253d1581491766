package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/rhythm-workflows/rhythm-go/internal/catalog"
	"github.com/rhythm-workflows/rhythm-go/internal/domain"
	"github.com/rhythm-workflows/rhythm-go/internal/temporal/dispatcher"
	"github.com/rhythm-workflows/rhythm-go/internal/temporal/versioning"
)

var (
	_ Controller     = (*Rhythm)(nil)
	_ catalog.Viewer = (*Rhythm)(nil)
)

// Rhythm implements Controller and catalog.Viewer.
type Rhythm struct {
	records    RecordStore
	dispatcher Dispatcher
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// New creates a Rhythm engine.
func New(records RecordStore, d Dispatcher, logger *slog.Logger) *Rhythm {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rhythm{
		records:    records,
		dispatcher: d,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// Start validates req, records a PENDING workflow and dispatches it. If the
// dispatch fails the record is removed again so the catalog never lists a
// workflow the execution layer does not know.
func (r *Rhythm) Start(ctx context.Context, req domain.CreateRequest) (string, error) {
	if err := domain.ValidateCreateRequest(req); err != nil {
		return "", err
	}

	now := r.now()
	wf := &domain.WorkflowRecord{
		ID:          r.newID(),
		AppID:       req.AppID,
		Name:        req.Name,
		Description: req.Description,
		Steps:       slices.Clone(req.Steps),
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      domain.StatusPending,
	}
	for i := range wf.Steps {
		wf.Steps[i].TaskRuns = nil
	}

	if err := r.records.InsertWorkflow(ctx, wf); err != nil {
		return "", fmt.Errorf("create workflow: %w", err)
	}
	if err := r.dispatcher.Dispatch(ctx, wf, req.Args); err != nil {
		if _, derr := r.records.DeleteWorkflow(context.WithoutCancel(ctx), wf.ID); derr != nil {
			r.logger.Error("failed to remove undispatched workflow", "workflow_id", wf.ID, "error", derr)
		}
		return "", fmt.Errorf("create workflow: %w", err)
	}

	r.logger.Info("workflow created", "workflow_id", wf.ID, "app_id", wf.AppID, "steps", len(wf.Steps))
	return wf.ID, nil
}

// Pause asks the execution layer to stop before the next step.
func (r *Rhythm) Pause(ctx context.Context, workflowID string) (*domain.ControlStatus, error) {
	wf, err := r.records.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("pause workflow: %w", err)
	}
	delivered, err := r.signal(ctx, workflowID, versioning.SignalPause, nil)
	if err != nil {
		return nil, fmt.Errorf("pause workflow: %w", err)
	}
	return &domain.ControlStatus{
		WorkflowID: workflowID,
		Action:     versioning.SignalPause,
		Status:     wf.Status,
		Delivered:  delivered,
	}, nil
}

// Resume asks the execution layer to continue with the next step. Without
// force the execution layer only resubmits a step that failed or was
// revoked.
func (r *Rhythm) Resume(ctx context.Context, workflowID string, req domain.ResumeRequest) (*domain.ControlStatus, error) {
	wf, err := r.records.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("resume workflow: %w", err)
	}
	payload := dispatcher.ResumeSignal{Force: req.Force, Args: req.Args}
	delivered, err := r.signal(ctx, workflowID, versioning.SignalResume, payload)
	if err != nil {
		return nil, fmt.Errorf("resume workflow: %w", err)
	}
	return &domain.ControlStatus{
		WorkflowID: workflowID,
		Action:     versioning.SignalResume,
		Status:     wf.Status,
		Force:      req.Force,
		Delivered:  delivered,
	}, nil
}

// signal relays a control signal. A record whose execution has already
// ended is not an error: the caller gets the stored status back.
func (r *Rhythm) signal(ctx context.Context, workflowID, name string, payload any) (bool, error) {
	err := r.dispatcher.Signal(ctx, workflowID, name, payload)
	switch {
	case err == nil:
		return true, nil
	case domain.IsNotRunning(err):
		r.logger.Info("signal not delivered, execution not running", "workflow_id", workflowID, "signal", name)
		return false, nil
	}
	return false, err
}

// Embellish loads one workflow and the task documents of its steps.
func (r *Rhythm) Embellish(ctx context.Context, workflowID string, detail domain.Detail) (*domain.WorkflowView, error) {
	wf, err := r.records.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	var tasks map[string]domain.TaskExecutionRecord
	if ids := wf.TaskIDs(); len(ids) > 0 {
		tasks, err = r.records.FindTasks(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load task runs of %s: %w", workflowID, err)
		}
	}
	return BuildView(wf, tasks, detail), nil
}
