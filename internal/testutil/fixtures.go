// Package testutil holds fixtures shared by store and API tests.
package testutil

import (
	"fmt"
	"time"

	"github.com/rhythm-workflows/rhythm-go/internal/domain"
)

// Epoch is the creation time of the first fixture workflow.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Workflows builds n single-step workflows for appID, created one minute
// apart, cycling through statuses. IDs are "<appID>-wf-NN".
func Workflows(appID string, n int, statuses ...domain.Status) []domain.WorkflowRecord {
	if len(statuses) == 0 {
		statuses = []domain.Status{domain.StatusPending}
	}
	out := make([]domain.WorkflowRecord, 0, n)
	for i := range n {
		created := Epoch.Add(time.Duration(i) * time.Minute)
		out = append(out, domain.WorkflowRecord{
			ID:        fmt.Sprintf("%s-wf-%02d", appID, i),
			AppID:     appID,
			Name:      fmt.Sprintf("workflow %02d", i),
			CreatedAt: created,
			UpdatedAt: created,
			Status:    statuses[i%len(statuses)],
			Steps:     []domain.Step{{Name: "only", Task: "tasks.only", Queue: "default"}},
		})
	}
	return out
}

// Started returns wf with one task run recorded on its first step.
func Started(wf domain.WorkflowRecord, taskID string) domain.WorkflowRecord {
	steps := make([]domain.Step, len(wf.Steps))
	copy(steps, wf.Steps)
	steps[0].TaskRuns = append([]domain.TaskRun(nil), domain.TaskRun{TaskID: taskID, DateStart: wf.CreatedAt})
	wf.Steps = steps
	return wf
}

// Task builds a task execution record pointing back at workflowID.
func Task(id, workflowID, appID, step string, status domain.Status) domain.TaskExecutionRecord {
	return domain.TaskExecutionRecord{
		ID:     id,
		Status: status,
		Kwargs: domain.TaskKwargs{WorkflowID: workflowID, Step: step, AppID: appID},
	}
}
