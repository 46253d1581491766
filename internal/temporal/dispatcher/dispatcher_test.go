package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	"github.com/rhythm-workflows/rhythm-go/internal/domain"
	"github.com/rhythm-workflows/rhythm-go/internal/temporal/versioning"
)

func testRecord() *domain.WorkflowRecord {
	return &domain.WorkflowRecord{
		ID:    "wf-1",
		AppID: "app-1",
		Steps: []domain.Step{{Name: "download", Task: "tasks.download", Queue: "fetch"}},
	}
}

func TestDispatch_StartsStepSequence(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	run.On("GetRunID").Return("run-1")

	wantOpts := client.StartWorkflowOptions{ID: "wf-1", TaskQueue: "custom"}
	c.On("ExecuteWorkflow", mock.Anything, wantOpts, versioning.WorkflowStepSequence,
		mock.MatchedBy(func(in StartInput) bool {
			return in.WorkflowID == "wf-1" && in.AppID == "app-1" && len(in.Steps) == 1 && len(in.Args) == 1
		}),
	).Return(run, nil)

	d := New(c, "custom", nil, nil)
	require.NoError(t, d.Dispatch(context.Background(), testRecord(), []any{"batch-1"}))
	c.AssertExpectations(t)
	run.AssertExpectations(t)
}

func TestDispatch_DefaultQueue(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	run.On("GetRunID").Return("run-1")
	c.On("ExecuteWorkflow", mock.Anything,
		client.StartWorkflowOptions{ID: "wf-1", TaskQueue: versioning.QueueSteps},
		versioning.WorkflowStepSequence, mock.Anything,
	).Return(run, nil)

	d := New(c, "", nil, nil)
	require.NoError(t, d.Dispatch(context.Background(), testRecord(), []any{1}))
	c.AssertExpectations(t)
}

func TestDispatch_Unavailable(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewUnavailable("frontend down"))

	err := New(c, "", nil, nil).Dispatch(context.Background(), testRecord(), []any{1})
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
}

func TestSignal(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		check     func(error) bool
		wantError bool
	}{
		{name: "delivered"},
		{
			name: "execution finished", err: serviceerror.NewNotFound("workflow execution already completed"), wantError: true,
			check: func(err error) bool { return domain.IsNotRunning(err) && !domain.IsNotFound(err) },
		},
		{name: "unavailable", err: serviceerror.NewUnavailable("down"), check: domain.IsUnavailable, wantError: true},
		{name: "deadline", err: context.DeadlineExceeded, check: domain.IsUnavailable, wantError: true},
		{
			name: "other", err: serviceerror.NewInvalidArgument("bad"), wantError: true,
			check: func(err error) bool { return !domain.IsNotFound(err) && !domain.IsUnavailable(err) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := &mocks.Client{}
			payload := ResumeSignal{Force: true}
			c.On("SignalWorkflow", mock.Anything, "wf-1", "", versioning.SignalResume, payload).Return(tt.err)

			err := New(c, "", nil, nil).Signal(context.Background(), "wf-1", versioning.SignalResume, payload)
			if !tt.wantError {
				require.NoError(t, err)
				c.AssertExpectations(t)
				return
			}
			require.Error(t, err)
			assert.True(t, tt.check(err))
		})
	}
}
