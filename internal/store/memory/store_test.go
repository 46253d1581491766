package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhythm-workflows/rhythm-go/internal/catalog"
	"github.com/rhythm-workflows/rhythm-go/internal/domain"
	"github.com/rhythm-workflows/rhythm-go/internal/testutil"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	for _, wf := range testutil.Workflows("app-a", 5, domain.StatusPending, domain.StatusSuccess) {
		s.PutWorkflow(wf)
	}
	for _, wf := range testutil.Workflows("app-b", 2, domain.StatusFailure) {
		s.PutWorkflow(wf)
	}
	return s
}

func TestAggregateWorkflowIDs_PageAndTotal(t *testing.T) {
	s := seeded(t)
	q, err := catalog.BuildQuery(catalog.ListParams{AppID: "app-a", IDs: catalog.AnyID(), Skip: 1, Limit: 2}, 100)
	require.NoError(t, err)

	page, err := s.AggregateWorkflowIDs(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	// Default order is created_at descending.
	assert.Equal(t, []string{"app-a-wf-03", "app-a-wf-02"}, page.IDs)
}

func TestAggregateWorkflowIDs_TieBreakByID(t *testing.T) {
	s := New()
	for _, id := range []string{"c", "a", "b"} {
		s.PutWorkflow(domain.WorkflowRecord{ID: id, AppID: "x", CreatedAt: testutil.Epoch, Status: domain.StatusPending})
	}
	q, err := catalog.BuildQuery(catalog.ListParams{IDs: catalog.AnyID(), Limit: 10}, 100)
	require.NoError(t, err)

	page, err := s.AggregateWorkflowIDs(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, page.IDs)
}

func TestAggregateWorkflowIDs_SkipPastEnd(t *testing.T) {
	s := seeded(t)
	q, err := catalog.BuildQuery(catalog.ListParams{IDs: catalog.AnyID(), Skip: 50, Limit: 10}, 100)
	require.NoError(t, err)

	page, err := s.AggregateWorkflowIDs(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.Total)
	assert.NotNil(t, page.IDs)
	assert.Empty(t, page.IDs)
}

func TestFindPendingAndActiveTasks(t *testing.T) {
	s := seeded(t)
	wfs := testutil.Workflows("app-a", 2)
	require.NoError(t, s.AppendTaskRun(wfs[1].ID, "only", domain.TaskRun{TaskID: "t1", DateStart: testutil.Epoch}))
	s.PutTask(testutil.Task("t1", wfs[1].ID, "app-a", "only", domain.StatusStarted))
	s.PutTask(testutil.Task("t2", "app-b-wf-00", "app-b", "only", domain.StatusSuccess))

	pending, err := s.FindPendingWorkflowIDs(context.Background(), "app-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"app-a-wf-00", "app-a-wf-02", "app-a-wf-03", "app-a-wf-04"}, pending)

	active, err := s.DistinctActiveTaskWorkflowIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"app-a-wf-01"}, active)
}

func TestAggregateStatusCounts(t *testing.T) {
	s := seeded(t)
	s.PutWorkflow(domain.WorkflowRecord{ID: "odd", AppID: "app-a", Status: "WEIRD"})

	counts, err := s.AggregateStatusCounts(context.Background(), "app-a")
	require.NoError(t, err)
	assert.Equal(t, map[domain.Status]int64{
		domain.StatusPending: 3,
		domain.StatusSuccess: 2,
		"WEIRD":              1,
	}, counts)
}

func TestInsertGetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	wf := testutil.Workflows("app-a", 1)[0]

	require.NoError(t, s.InsertWorkflow(ctx, &wf))
	assert.Error(t, s.InsertWorkflow(ctx, &wf), "duplicate insert must fail")

	got, err := s.GetWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	got.Steps[0].Name = "mutated"

	again, err := s.GetWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, "only", again.Steps[0].Name, "returned records must be copies")

	n, err := s.DeleteWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.GetWorkflow(ctx, wf.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestDistinctTaskStepsAndFindTasks(t *testing.T) {
	s := New()
	s.PutTask(testutil.Task("t1", "wf-1", "app-a", "extract", domain.StatusSuccess))
	s.PutTask(testutil.Task("t2", "wf-1", "app-a", "load", domain.StatusSuccess))
	s.PutTask(testutil.Task("t3", "wf-2", "app-b", "extract", domain.StatusStarted))
	s.PutTask(testutil.Task("t4", "wf-2", "app-b", "", domain.StatusStarted))

	steps, err := s.DistinctTaskSteps(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"extract", "load"}, steps)

	steps, err = s.DistinctTaskSteps(context.Background(), "app-b")
	require.NoError(t, err)
	assert.Equal(t, []string{"extract"}, steps)

	tasks, err := s.FindTasks(context.Background(), []string{"t1", "missing"})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Contains(t, tasks, "t1")
}

func TestCanceledContext(t *testing.T) {
	s := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FindPendingWorkflowIDs(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.AggregateStatusCounts(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSetWorkflowStatus(t *testing.T) {
	s := seeded(t)
	before := time.Now().UTC()
	require.NoError(t, s.SetWorkflowStatus("app-a-wf-00", domain.StatusRevoked))

	got, err := s.GetWorkflow(context.Background(), "app-a-wf-00")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRevoked, got.Status)
	assert.False(t, got.UpdatedAt.Before(before))

	assert.True(t, domain.IsNotFound(s.SetWorkflowStatus("nope", domain.StatusSuccess)))
}
