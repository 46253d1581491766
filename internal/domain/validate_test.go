package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateRequest() CreateRequest {
	return CreateRequest{
		Name:  "ingest",
		AppID: "app-1",
		Steps: []Step{
			{Name: "download", Task: "tasks.download", Queue: "fetch"},
			{Name: "inspect", Task: "tasks.inspect", Queue: "compute", Kwargs: map[string]any{"deep": true}},
		},
		Args: []any{"batch-1"},
	}
}

func TestValidateCreateRequest(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		modify    func(CreateRequest) CreateRequest
		wantField string
	}{
		{name: "valid", modify: func(r CreateRequest) CreateRequest { return r }},
		{name: "missing name", modify: func(r CreateRequest) CreateRequest { r.Name = ""; return r }, wantField: "name"},
		{name: "missing app_id", modify: func(r CreateRequest) CreateRequest { r.AppID = ""; return r }, wantField: "app_id"},
		{name: "no steps", modify: func(r CreateRequest) CreateRequest { r.Steps = nil; return r }, wantField: "steps"},
		{name: "empty steps", modify: func(r CreateRequest) CreateRequest { r.Steps = []Step{}; return r }, wantField: "steps"},
		{name: "no args", modify: func(r CreateRequest) CreateRequest { r.Args = nil; return r }, wantField: "args"},
		{name: "empty args", modify: func(r CreateRequest) CreateRequest { r.Args = []any{}; return r }, wantField: "args"},
		{
			name: "step without queue",
			modify: func(r CreateRequest) CreateRequest {
				r.Steps = []Step{{Name: "a", Task: "t"}}
				return r
			},
			wantField: "steps[0].queue",
		},
		{
			name: "duplicate step names",
			modify: func(r CreateRequest) CreateRequest {
				r.Steps = append(r.Steps, Step{Name: "download", Task: "t", Queue: "q"})
				return r
			},
			wantField: "steps",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateCreateRequest(tt.modify(validCreateRequest()))
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestWorkflowRecordPending(t *testing.T) {
	t.Parallel()
	wf := WorkflowRecord{Steps: []Step{{Name: "a"}, {Name: "b"}}}
	assert.True(t, wf.Pending())
	assert.Empty(t, wf.TaskIDs())

	wf.Steps[1].TaskRuns = []TaskRun{{TaskID: "t-1", DateStart: time.Now()}}
	assert.False(t, wf.Pending())
	assert.Equal(t, []string{"t-1"}, wf.TaskIDs())

	assert.True(t, WorkflowRecord{}.Pending(), "a workflow without steps has not started")
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()
	nf := WorkflowNotFound("wf-9")
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsValidation(nf))
	assert.Equal(t, "workflow wf-9 not found", nf.Error())

	un := Unavailable("find workflows", assert.AnError)
	assert.True(t, IsUnavailable(un))
	assert.ErrorIs(t, un, assert.AnError)
}
