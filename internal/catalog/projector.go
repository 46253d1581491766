package catalog

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rhythm-workflows/rhythm-go/internal/domain"
	"github.com/rhythm-workflows/rhythm-go/internal/observability"
)

const (
	DefaultProjectionConcurrency = 4
	DefaultProjectionTimeout     = 10 * time.Second
)

// Projection is the outcome of projecting one page of IDs.
type Projection struct {
	Views []domain.WorkflowView
	// Omitted counts IDs whose view failed for a reason other than the
	// workflow having been deleted.
	Omitted int
}

// Projector turns a page of workflow IDs into embellished views. Items are
// built concurrently under a bounded worker count; the result keeps the
// input order.
type Projector struct {
	viewer      Viewer
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewProjector creates a Projector. Non-positive concurrency or timeout fall
// back to the package defaults.
func NewProjector(viewer Viewer, concurrency int, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Projector {
	if concurrency <= 0 {
		concurrency = DefaultProjectionConcurrency
	}
	if timeout <= 0 {
		timeout = DefaultProjectionTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{
		viewer:      viewer,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      logger,
		metrics:     metrics,
	}
}

// Project embellishes ids in order. A workflow deleted between paging and
// projection is skipped. Any other per-item failure is logged and counted
// in Omitted so one bad record cannot fail the page. Cancellation of ctx
// fails the whole call; no partial page is returned.
func (p *Projector) Project(ctx context.Context, ids []string, detail domain.Detail) (Projection, error) {
	views := make([]*domain.WorkflowView, len(ids))
	errs := make([]error, len(ids))

	// Plain Group: one item's failure must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			itemCtx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()
			views[i], errs[i] = p.viewer.Embellish(itemCtx, id, detail)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Projection{}, err
	}

	out := Projection{Views: make([]domain.WorkflowView, 0, len(ids))}
	for i, id := range ids {
		switch err := errs[i]; {
		case err == nil && views[i] != nil:
			out.Views = append(out.Views, *views[i])
		case err == nil:
		case domain.IsNotFound(err):
			p.logger.Debug("workflow vanished before projection", "workflow_id", id)
		default:
			out.Omitted++
			p.logger.Warn("workflow projection failed", "workflow_id", id, "error", err)
		}
	}
	p.metrics.RecordOmitted(ctx, out.Omitted)
	return out, nil
}
