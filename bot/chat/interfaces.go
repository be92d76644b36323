package chat

import (
	"context"
)

// StepID is a unique identifier for a step within a workflow.
type StepID string

// WorkflowID is a unique identifier for a workflow.
type WorkflowID string

// StepResult represents the outcome of handling an event in a step.
type StepResult struct {
	NextStep    StepID
	UpdateState map[string]any
	Complete    bool
	Error       error
}

// Step defines the interface for a single workflow step.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() StepID

	// Enter is called when the conversation enters this step.
	Enter(ctx context.Context, m Messenger, state *ChatState) StepResult

	// HandleInput processes one inbound event for this step.
	HandleInput(ctx context.Context, m Messenger, state *ChatState, input UserInput) StepResult
}

// Workflow defines the interface for a complete workflow.
type Workflow interface {
	// ID returns the unique identifier for this workflow.
	ID() WorkflowID

	// InitialStep returns the first step of the workflow.
	InitialStep() StepID

	// GetStep returns a step by its ID.
	GetStep(id StepID) (Step, bool)
}

// SessionStore keeps the current workflow position per conversation.
// Purely in-memory: a process restart drops all in-flight conversations and
// users restart the affected step by reissuing the starting command.
type SessionStore interface {
	Load(chatID string) *ChatState
	Save(state *ChatState)
	Delete(chatID string)
}
