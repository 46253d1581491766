// Package catalog answers read queries over the workflow catalog: filtered,
// sorted, paginated listings, status counts and single lookups.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rhythm-workflows/rhythm-go/internal/domain"
	"github.com/rhythm-workflows/rhythm-go/internal/observability"
)

// ListMetadata describes one page of a listing.
type ListMetadata struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Skip    int   `json:"skip"`
	Omitted int   `json:"omitted,omitempty"`
}

// ListResult is a page of embellished workflows. Results is never nil.
type ListResult struct {
	Metadata ListMetadata          `json:"metadata"`
	Results  []domain.WorkflowView `json:"results"`
}

// Options configures a Service.
type Options struct {
	MaxPageSize           int
	ProjectionConcurrency int
	ProjectionTimeout     time.Duration
	Logger                *slog.Logger
	Metrics               *observability.Metrics
}

// Service implements Catalog over a Store and a Viewer.
type Service struct {
	store       Store
	viewer      Viewer
	activity    *ActivityResolver
	projector   *Projector
	maxPageSize int
	logger      *slog.Logger
	metrics     *observability.Metrics
	tracer      trace.Tracer
}

// NewService creates a catalog Service.
func NewService(store Store, viewer Viewer, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxPage := opts.MaxPageSize
	if maxPage <= 0 {
		maxPage = DefaultMaxPageSize
	}
	return &Service{
		store:       store,
		viewer:      viewer,
		activity:    NewActivityResolver(store),
		projector:   NewProjector(viewer, opts.ProjectionConcurrency, opts.ProjectionTimeout, logger, opts.Metrics),
		maxPageSize: maxPage,
		logger:      logger,
		metrics:     opts.Metrics,
		tracer:      otel.Tracer("rhythm/catalog"),
	}
}

// List runs one listing query: validate, narrow by activity when asked,
// evaluate the query once for count and page, then project the page.
func (s *Service) List(ctx context.Context, params ListParams) (res *ListResult, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.List", trace.WithAttributes(
		attribute.String("app_id", params.AppID),
		attribute.Bool("only_active", params.OnlyActive),
	))
	defer func(start time.Time) { s.finish(ctx, span, "list", start, err) }(time.Now())

	q, err := BuildQuery(params, s.maxPageSize)
	if err != nil {
		return nil, err
	}

	if params.OnlyActive && !q.MatchesNothing() {
		active, err := s.activity.Resolve(ctx, params.AppID)
		if err != nil {
			return nil, fmt.Errorf("list workflows: %w", err)
		}
		q = q.WithActive(active)
	}

	page := Page{IDs: []string{}}
	if !q.MatchesNothing() {
		page, err = s.store.AggregateWorkflowIDs(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("list workflows: %w", err)
		}
	}

	proj, err := s.projector.Project(ctx, page.IDs, params.Detail)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}

	span.SetAttributes(attribute.Int64("total", page.Total), attribute.Int("returned", len(proj.Views)))
	return &ListResult{
		Metadata: ListMetadata{
			Total:   page.Total,
			Limit:   q.Limit,
			Skip:    q.Skip,
			Omitted: proj.Omitted,
		},
		Results: proj.Views,
	}, nil
}

// Get returns one embellished workflow.
func (s *Service) Get(ctx context.Context, workflowID string, detail domain.Detail) (view *domain.WorkflowView, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Get", trace.WithAttributes(attribute.String("workflow_id", workflowID)))
	defer func(start time.Time) { s.finish(ctx, span, "get", start, err) }(time.Now())

	view, err = s.viewer.Embellish(ctx, workflowID, detail)
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	return view, nil
}

// CountsByStatus returns a count for every primitive status, zero-filled.
// Stored statuses outside the primitive set are dropped.
func (s *Service) CountsByStatus(ctx context.Context, appID string) (counts domain.StatusCounts, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.CountsByStatus", trace.WithAttributes(attribute.String("app_id", appID)))
	defer func(start time.Time) { s.finish(ctx, span, "counts_by_status", start, err) }(time.Now())

	raw, err := s.store.AggregateStatusCounts(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("count workflows by status: %w", err)
	}
	counts = domain.NewStatusCounts()
	for status, n := range raw {
		if !counts.Add(status, n) {
			s.logger.Debug("ignoring unknown workflow status", "status", string(status), "count", n)
		}
	}
	return counts, nil
}

// Delete hard-deletes one workflow's metadata. Task records are kept.
func (s *Service) Delete(ctx context.Context, workflowID string) (n int64, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Delete", trace.WithAttributes(attribute.String("workflow_id", workflowID)))
	defer func(start time.Time) { s.finish(ctx, span, "delete", start, err) }(time.Now())

	n, err = s.store.DeleteWorkflow(ctx, workflowID)
	if err != nil {
		return 0, fmt.Errorf("delete workflow: %w", err)
	}
	s.logger.Info("workflow deleted", "workflow_id", workflowID, "deleted_count", n)
	return n, nil
}

// UniqueSteps returns the sorted distinct step labels seen in task records.
func (s *Service) UniqueSteps(ctx context.Context, appID string) (steps []string, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.UniqueSteps", trace.WithAttributes(attribute.String("app_id", appID)))
	defer func(start time.Time) { s.finish(ctx, span, "unique_steps", start, err) }(time.Now())

	steps, err = s.store.DistinctTaskSteps(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("list unique steps: %w", err)
	}
	if steps == nil {
		steps = []string{}
	}
	slices.Sort(steps)
	return steps, nil
}

func (s *Service) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	s.metrics.RecordQuery(ctx, op, time.Since(start), err)
}

var _ Catalog = (*Service)(nil)
