// Package domain holds the workflow records, the status taxonomy and the
// error kinds shared by the catalog, the stores and the HTTP layer.
package domain

import "time"

// Collection names used by the execution layer's result backend.
const (
	WorkflowCollection = "workflow_meta"
	TaskCollection     = "celery_taskmeta"
)

// TaskRun is the per-step back-reference to one task execution record.
type TaskRun struct {
	TaskID    string    `bson:"task_id" json:"task_id"`
	DateStart time.Time `bson:"date_start" json:"date_start"`
}

// Step is one named unit of work within a workflow. Steps are immutable once
// the workflow starts; only TaskRuns grows.
type Step struct {
	Name     string         `bson:"name" json:"name" validate:"required"`
	Task     string         `bson:"task" json:"task" validate:"required"`
	Queue    string         `bson:"queue" json:"queue" validate:"required"`
	Kwargs   map[string]any `bson:"kwargs,omitempty" json:"kwargs,omitempty"`
	TaskRuns []TaskRun      `bson:"task_runs,omitempty" json:"-"`
}

// Started reports whether the step has any execution record.
func (s Step) Started() bool {
	return len(s.TaskRuns) > 0
}

// WorkflowRecord is the stored workflow metadata document.
type WorkflowRecord struct {
	ID          string    `bson:"_id"`
	AppID       string    `bson:"app_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	Steps       []Step    `bson:"steps"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at,omitempty"`
	Status      Status    `bson:"_status"`
}

// Pending reports whether none of the workflow's steps has run yet.
func (w WorkflowRecord) Pending() bool {
	for _, s := range w.Steps {
		if s.Started() {
			return false
		}
	}
	return true
}

// TaskIDs returns the task IDs referenced by every step, in step order.
func (w WorkflowRecord) TaskIDs() []string {
	var ids []string
	for _, s := range w.Steps {
		for _, r := range s.TaskRuns {
			ids = append(ids, r.TaskID)
		}
	}
	return ids
}

// TaskKwargs carries the workflow back-reference of a task record.
type TaskKwargs struct {
	WorkflowID string `bson:"workflow_id,omitempty" json:"workflow_id,omitempty"`
	Step       string `bson:"step,omitempty" json:"step,omitempty"`
	AppID      string `bson:"app_id,omitempty" json:"app_id,omitempty"`
}

// TaskExecutionRecord is one task run as written by the execution layer.
// Status may hold values outside the primitive set; they are kept verbatim.
type TaskExecutionRecord struct {
	ID        string     `bson:"_id" json:"task_id"`
	Status    Status     `bson:"status" json:"status"`
	Name      string     `bson:"name,omitempty" json:"name,omitempty"`
	Queue     string     `bson:"queue,omitempty" json:"queue,omitempty"`
	Worker    string     `bson:"worker,omitempty" json:"worker,omitempty"`
	Retries   int        `bson:"retries,omitempty" json:"retries,omitempty"`
	Kwargs    TaskKwargs `bson:"kwargs" json:"kwargs"`
	Result    any        `bson:"result,omitempty" json:"result,omitempty"`
	Traceback string     `bson:"traceback,omitempty" json:"traceback,omitempty"`
	DateDone  *time.Time `bson:"date_done,omitempty" json:"date_done,omitempty"`
}

// Detail selects how much task history an embellished view carries.
type Detail struct {
	LastTaskRun  bool
	PrevTaskRuns bool
}

// StepView is a step enriched with its execution history.
type StepView struct {
	Name         string                `json:"name"`
	Task         string                `json:"task"`
	Queue        string                `json:"queue"`
	Kwargs       map[string]any        `json:"kwargs,omitempty"`
	Status       Status                `json:"status"`
	NumTaskRuns  int                   `json:"num_task_runs"`
	LastTaskRun  *TaskExecutionRecord  `json:"last_task_run,omitempty"`
	PrevTaskRuns []TaskExecutionRecord `json:"prev_task_runs,omitempty"`
}

// WorkflowView is the embellished workflow returned by the API.
type WorkflowView struct {
	ID          string     `json:"id"`
	AppID       string     `json:"app_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	Status      Status     `json:"status"`
	Steps       []StepView `json:"steps"`
}

// CreateRequest is the body of a workflow creation call.
type CreateRequest struct {
	Name        string `json:"name" validate:"required"`
	AppID       string `json:"app_id" validate:"required"`
	Description string `json:"description,omitempty"`
	Steps       []Step `json:"steps" validate:"required,min=1,dive"`
	Args        []any  `json:"args" validate:"required,min=1"`
}

// ResumeRequest carries the options of a resume call.
type ResumeRequest struct {
	Force bool  `json:"force"`
	Args  []any `json:"args,omitempty"`
}

// ControlStatus is returned by pause and resume.
type ControlStatus struct {
	WorkflowID string `json:"workflow_id"`
	Action     string `json:"action"`
	Status     Status `json:"status"`
	Force      bool   `json:"force,omitempty"`
	// Delivered is false when the execution had already ended, so the
	// signal reached nobody and Status is the final stored status.
	Delivered bool `json:"delivered"`
}
