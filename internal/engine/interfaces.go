// Package engine is the catalog's view of the execution service: it creates
// workflow records, hands them to the execution layer, relays pause and
// resume, and builds embellished views from records and task documents.
package engine

import (
	"context"

	"github.com/rhythm-workflows/rhythm-go/internal/domain"
)

// Controller starts and steers workflows.
type Controller interface {
	Start(ctx context.Context, req domain.CreateRequest) (string, error)
	Pause(ctx context.Context, workflowID string) (*domain.ControlStatus, error)
	Resume(ctx context.Context, workflowID string, req domain.ResumeRequest) (*domain.ControlStatus, error)
}

// RecordStore persists workflow metadata and reads task documents.
type RecordStore interface {
	InsertWorkflow(ctx context.Context, wf *domain.WorkflowRecord) error
	// GetWorkflow returns a domain.NotFoundError for unknown IDs.
	GetWorkflow(ctx context.Context, workflowID string) (*domain.WorkflowRecord, error)
	FindTasks(ctx context.Context, taskIDs []string) (map[string]domain.TaskExecutionRecord, error)
	DeleteWorkflow(ctx context.Context, workflowID string) (int64, error)
}

// Dispatcher is the transport to the execution layer.
type Dispatcher interface {
	Dispatch(ctx context.Context, wf *domain.WorkflowRecord, args []any) error
	Signal(ctx context.Context, workflowID, signal string, payload any) error
}
