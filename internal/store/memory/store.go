// Package memory is a goroutine-safe in-memory workflow store. It backs the
// tests and RHYTHM_STORE=memory local runs.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/rhythm-workflows/rhythm-go/internal/catalog"
	"github.com/rhythm-workflows/rhythm-go/internal/domain"
	"github.com/rhythm-workflows/rhythm-go/internal/engine"
)

// Store holds workflow metadata and task execution records in maps.
type Store struct {
	mu        sync.RWMutex
	workflows map[string]domain.WorkflowRecord
	tasks     map[string]domain.TaskExecutionRecord
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		workflows: make(map[string]domain.WorkflowRecord),
		tasks:     make(map[string]domain.TaskExecutionRecord),
	}
}

var (
	_ catalog.Store      = (*Store)(nil)
	_ engine.RecordStore = (*Store)(nil)
)

// PutWorkflow inserts or replaces a workflow record.
func (s *Store) PutWorkflow(wf domain.WorkflowRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.ID] = cloneWorkflow(wf)
}

// PutTask inserts or replaces a task execution record.
func (s *Store) PutTask(task domain.TaskExecutionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
}

// AppendTaskRun records that step of workflowID was executed by run.
func (s *Store) AppendTaskRun(workflowID, step string, run domain.TaskRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wf, ok := s.workflows[workflowID]
	if !ok {
		return domain.WorkflowNotFound(workflowID)
	}
	for i := range wf.Steps {
		if wf.Steps[i].Name == step {
			wf.Steps[i].TaskRuns = append(wf.Steps[i].TaskRuns, run)
			wf.UpdatedAt = run.DateStart
			s.workflows[workflowID] = wf
			return nil
		}
	}
	return fmt.Errorf("workflow %s has no step %q", workflowID, step)
}

// SetWorkflowStatus overwrites the stored status of a workflow.
func (s *Store) SetWorkflowStatus(workflowID string, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wf, ok := s.workflows[workflowID]
	if !ok {
		return domain.WorkflowNotFound(workflowID)
	}
	wf.Status = status
	wf.UpdatedAt = time.Now().UTC()
	s.workflows[workflowID] = wf
	return nil
}

// FindPendingWorkflowIDs returns workflows with no step execution.
func (s *Store) FindPendingWorkflowIDs(ctx context.Context, appID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []string{}
	for _, wf := range s.workflows {
		if appID != "" && wf.AppID != appID {
			continue
		}
		if wf.Pending() {
			ids = append(ids, wf.ID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// DistinctActiveTaskWorkflowIDs returns back-references of non-terminal
// task records.
func (s *Store) DistinctActiveTaskWorkflowIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, t := range s.tasks {
		if t.Status.Terminal() || t.Kwargs.WorkflowID == "" {
			continue
		}
		seen[t.Kwargs.WorkflowID] = true
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// AggregateWorkflowIDs evaluates q under one read lock, so the count and
// the page describe the same snapshot.
func (s *Store) AggregateWorkflowIDs(ctx context.Context, q catalog.Query) (catalog.Page, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Page{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.WorkflowRecord
	for _, wf := range s.workflows {
		if matches(wf, q) {
			matched = append(matched, wf)
		}
	}
	slices.SortFunc(matched, func(a, b domain.WorkflowRecord) int {
		c := compareField(a, b, q.Sort.Field)
		if !q.Sort.Asc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	page := catalog.Page{Total: int64(len(matched)), IDs: []string{}}
	if q.Skip >= len(matched) {
		return page, nil
	}
	window := matched[q.Skip:]
	if len(window) > q.Limit {
		window = window[:q.Limit]
	}
	for _, wf := range window {
		page.IDs = append(page.IDs, wf.ID)
	}
	return page, nil
}

// AggregateStatusCounts groups workflows by stored status.
func (s *Store) AggregateStatusCounts(ctx context.Context, appID string) (map[domain.Status]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.Status]int64)
	for _, wf := range s.workflows {
		if appID != "" && wf.AppID != appID {
			continue
		}
		if wf.Status == "" {
			continue
		}
		counts[wf.Status]++
	}
	return counts, nil
}

// DeleteWorkflow removes one metadata record. Task records are kept.
func (s *Store) DeleteWorkflow(ctx context.Context, workflowID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workflows[workflowID]; !ok {
		return 0, nil
	}
	delete(s.workflows, workflowID)
	return 1, nil
}

// DistinctTaskSteps returns the distinct step labels of task records.
func (s *Store) DistinctTaskSteps(ctx context.Context, appID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, t := range s.tasks {
		if t.Kwargs.Step == "" {
			continue
		}
		if appID != "" && t.Kwargs.AppID != appID {
			continue
		}
		seen[t.Kwargs.Step] = true
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// InsertWorkflow stores a new workflow record. It fails if the ID exists.
func (s *Store) InsertWorkflow(ctx context.Context, wf *domain.WorkflowRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workflows[wf.ID]; ok {
		return fmt.Errorf("workflow %s already exists", wf.ID)
	}
	s.workflows[wf.ID] = cloneWorkflow(*wf)
	return nil
}

// GetWorkflow returns a copy of one workflow record.
func (s *Store) GetWorkflow(ctx context.Context, workflowID string) (*domain.WorkflowRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	wf, ok := s.workflows[workflowID]
	if !ok {
		return nil, domain.WorkflowNotFound(workflowID)
	}
	out := cloneWorkflow(wf)
	return &out, nil
}

// FindTasks returns the task records with the given IDs, keyed by ID.
// Unknown IDs are absent from the result.
func (s *Store) FindTasks(ctx context.Context, taskIDs []string) (map[string]domain.TaskExecutionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.TaskExecutionRecord, len(taskIDs))
	for _, id := range taskIDs {
		if t, ok := s.tasks[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func matches(wf domain.WorkflowRecord, q catalog.Query) bool {
	if q.AppID != "" && wf.AppID != q.AppID {
		return false
	}
	if !q.IDs.Contains(wf.ID) {
		return false
	}
	if q.Statuses != nil && !slices.Contains(q.Statuses, wf.Status) {
		return false
	}
	return true
}

func compareField(a, b domain.WorkflowRecord, field catalog.SortField) int {
	switch field {
	case catalog.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case catalog.SortName:
		return cmp.Compare(a.Name, b.Name)
	case catalog.SortAppID:
		return cmp.Compare(a.AppID, b.AppID)
	case catalog.SortStatus:
		return cmp.Compare(a.Status, b.Status)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func cloneWorkflow(wf domain.WorkflowRecord) domain.WorkflowRecord {
	steps := make([]domain.Step, len(wf.Steps))
	for i, st := range wf.Steps {
		st.Kwargs = maps.Clone(st.Kwargs)
		st.TaskRuns = slices.Clone(st.TaskRuns)
		steps[i] = st
	}
	wf.Steps = steps
	return wf
}
