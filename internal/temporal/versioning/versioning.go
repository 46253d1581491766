// Package versioning names the workflow type, signals and task queue the
// execution layer registers.
package versioning

const (
	// WorkflowStepSequence runs a workflow's steps in order on the execution
	// layer. Its input is dispatcher.StartInput.
	WorkflowStepSequence = "rhythm.StepSequence"

	// Signals accepted by a running step sequence.
	SignalPause  = "pause"
	SignalResume = "resume"

	// QueueSteps is the default task queue for step sequences.
	QueueSteps = "rhythm-steps"
)
