package catalog

import (
	"context"

	"github.com/rhythm-workflows/rhythm-go/internal/domain"
)

// Catalog answers workflow listing, lookup, counting and deletion. Used by
// the HTTP API, the MCP server and the CLI.
type Catalog interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, workflowID string, detail domain.Detail) (*domain.WorkflowView, error)
	CountsByStatus(ctx context.Context, appID string) (domain.StatusCounts, error)
	Delete(ctx context.Context, workflowID string) (int64, error)
	UniqueSteps(ctx context.Context, appID string) ([]string, error)
}

// Store is the document-store surface the catalog reads from. An empty
// appID means no tenant filter.
type Store interface {
	// FindPendingWorkflowIDs returns workflows none of whose steps has an
	// execution record.
	FindPendingWorkflowIDs(ctx context.Context, appID string) ([]string, error)
	// DistinctActiveTaskWorkflowIDs returns the distinct workflow
	// back-references of task records in a non-terminal state. Task records
	// carry no reliable tenant, so there is no appID parameter.
	DistinctActiveTaskWorkflowIDs(ctx context.Context) ([]string, error)
	// AggregateWorkflowIDs evaluates q once and returns the total match
	// count together with the requested page.
	AggregateWorkflowIDs(ctx context.Context, q Query) (Page, error)
	// AggregateStatusCounts groups workflows by stored status. Keys may
	// include values outside the primitive set.
	AggregateStatusCounts(ctx context.Context, appID string) (map[domain.Status]int64, error)
	// DeleteWorkflow hard-deletes one metadata record and reports how many
	// were removed (0 or 1).
	DeleteWorkflow(ctx context.Context, workflowID string) (int64, error)
	// DistinctTaskSteps returns the distinct step labels of task records.
	DistinctTaskSteps(ctx context.Context, appID string) ([]string, error)
}

// Viewer materializes the embellished view of one workflow. It returns a
// domain.NotFoundError when the ID no longer exists.
type Viewer interface {
	Embellish(ctx context.Context, workflowID string, detail domain.Detail) (*domain.WorkflowView, error)
}
