package engine

import (
	"maps"

	"github.com/rhythm-workflows/rhythm-go/internal/domain"
)

// BuildView joins a workflow record with the task documents of its runs.
// A step's status is the status of its latest run, or PENDING if it never
// ran. A run whose task document has not been written yet counts as
// PENDING.
func BuildView(wf *domain.WorkflowRecord, tasks map[string]domain.TaskExecutionRecord, detail domain.Detail) *domain.WorkflowView {
	view := &domain.WorkflowView{
		ID:          wf.ID,
		AppID:       wf.AppID,
		Name:        wf.Name,
		Description: wf.Description,
		CreatedAt:   wf.CreatedAt,
		Status:      wf.Status,
		Steps:       make([]domain.StepView, 0, len(wf.Steps)),
	}
	if !wf.UpdatedAt.IsZero() {
		updated := wf.UpdatedAt
		view.UpdatedAt = &updated
	}

	for _, st := range wf.Steps {
		sv := domain.StepView{
			Name:        st.Name,
			Task:        st.Task,
			Queue:       st.Queue,
			Kwargs:      maps.Clone(st.Kwargs),
			Status:      domain.StatusPending,
			NumTaskRuns: len(st.TaskRuns),
		}
		if n := len(st.TaskRuns); n > 0 {
			last := taskFor(st.TaskRuns[n-1], tasks)
			sv.Status = last.Status
			if detail.LastTaskRun {
				sv.LastTaskRun = &last
			}
			if detail.PrevTaskRuns && n > 1 {
				sv.PrevTaskRuns = make([]domain.TaskExecutionRecord, 0, n-1)
				for _, run := range st.TaskRuns[:n-1] {
					sv.PrevTaskRuns = append(sv.PrevTaskRuns, taskFor(run, tasks))
				}
			}
		}
		view.Steps = append(view.Steps, sv)
	}
	return view
}

func taskFor(run domain.TaskRun, tasks map[string]domain.TaskExecutionRecord) domain.TaskExecutionRecord {
	if t, ok := tasks[run.TaskID]; ok {
		return t
	}
	return domain.TaskExecutionRecord{ID: run.TaskID, Status: domain.StatusPending}
}
