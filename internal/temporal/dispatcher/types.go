// Package dispatcher hands workflows to the execution layer over Temporal.
package dispatcher

import "github.com/rhythm-workflows/rhythm-go/internal/domain"

// StartInput is the payload a step sequence starts with.
type StartInput struct {
	WorkflowID string        `json:"workflow_id"`
	AppID      string        `json:"app_id"`
	Steps      []domain.Step `json:"steps"`
	Args       []any         `json:"args"`
}

// ResumeSignal is the payload of the resume signal.
type ResumeSignal struct {
	Force bool  `json:"force"`
	Args  []any `json:"args,omitempty"`
}
