package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"RideDesk/internal/lib/sl"
)

// ChatEngine routes inbound events by (workflow, current step) to the
// registered step handler and applies the resulting transition.
type ChatEngine struct {
	workflows map[WorkflowID]Workflow
	storage   SessionStore
	log       *slog.Logger
}

// NewChatEngine creates a new chat engine.
func NewChatEngine(storage SessionStore, log *slog.Logger) *ChatEngine {
	return &ChatEngine{
		workflows: make(map[WorkflowID]Workflow),
		storage:   storage,
		log:       log.With(sl.Module("chat-engine")),
	}
}

// RegisterWorkflow adds a workflow to the engine.
func (e *ChatEngine) RegisterWorkflow(w Workflow) {
	e.workflows[w.ID()] = w
	e.log.Info("registered workflow", slog.String("workflow_id", string(w.ID())))
}

// Active reports whether the conversation has an in-flight workflow.
func (e *ChatEngine) Active(chatID string) bool {
	return e.storage.Load(chatID) != nil
}

// ActiveWorkflow returns the in-flight workflow id for the conversation, if any.
func (e *ChatEngine) ActiveWorkflow(chatID string) (WorkflowID, bool) {
	state := e.storage.Load(chatID)
	if state == nil {
		return "", false
	}
	return state.WorkflowID, true
}

// StartWorkflow begins a new workflow for a conversation, replacing any
// in-flight one.
func (e *ChatEngine) StartWorkflow(ctx context.Context, m Messenger, chatID string, workflowID WorkflowID) error {
	w, ok := e.workflows[workflowID]
	if !ok {
		return fmt.Errorf("workflow not found: %s", workflowID)
	}

	state := NewChatState(chatID, workflowID, w.InitialStep())
	e.storage.Save(state)

	step, ok := w.GetStep(w.InitialStep())
	if !ok {
		return fmt.Errorf("initial step not found: %s", w.InitialStep())
	}

	e.log.Info("starting workflow",
		slog.String("chat_id", chatID),
		slog.String("workflow_id", string(workflowID)),
	)

	result := step.Enter(ctx, m, state)
	return e.processResult(ctx, m, state, w, result)
}

// CancelWorkflow drops the in-flight workflow for a conversation, if any.
func (e *ChatEngine) CancelWorkflow(chatID string) {
	e.storage.Delete(chatID)
}

// Dispatch routes one inbound event to the current step of the conversation's
// in-flight workflow. Returns false when no workflow is active.
func (e *ChatEngine) Dispatch(ctx context.Context, m Messenger, chatID string, input UserInput) (bool, error) {
	state := e.storage.Load(chatID)
	if state == nil {
		return false, nil
	}

	w, ok := e.workflows[state.WorkflowID]
	if !ok {
		return false, fmt.Errorf("workflow not found: %s", state.WorkflowID)
	}

	step, ok := w.GetStep(state.CurrentStep)
	if !ok {
		return false, fmt.Errorf("step not found: %s", state.CurrentStep)
	}

	result := step.HandleInput(ctx, m, state, input)
	return true, e.processResult(ctx, m, state, w, result)
}

// HandleText processes a plain text message.
func (e *ChatEngine) HandleText(ctx context.Context, m Messenger, chatID, text string) (bool, error) {
	return e.Dispatch(ctx, m, chatID, UserInput{Text: text})
}

// HandleCallback processes an inline button press.
func (e *ChatEngine) HandleCallback(ctx context.Context, m Messenger, chatID, callbackID, data string) (bool, error) {
	return e.Dispatch(ctx, m, chatID, UserInput{CallbackID: callbackID, CallbackData: data})
}

// HandleContact processes a shared contact (phone number).
func (e *ChatEngine) HandleContact(ctx context.Context, m Messenger, chatID, phone string) (bool, error) {
	return e.Dispatch(ctx, m, chatID, UserInput{Phone: phone})
}

// HandleFile processes an inbound file or photo.
func (e *ChatEngine) HandleFile(ctx context.Context, m Messenger, chatID string, file FileInput) (bool, error) {
	return e.Dispatch(ctx, m, chatID, UserInput{File: &file})
}

// HandleLocation processes a structured coordinate payload.
func (e *ChatEngine) HandleLocation(ctx context.Context, m Messenger, chatID string, loc LocationInput) (bool, error) {
	return e.Dispatch(ctx, m, chatID, UserInput{Location: &loc})
}

// processResult applies transitions, chaining through auto-transition steps.
func (e *ChatEngine) processResult(ctx context.Context, m Messenger, state *ChatState, w Workflow, result StepResult) error {
	const maxTransitions = 20

	for i := 0; ; i++ {
		if result.Error != nil {
			e.log.Error("step error",
				slog.String("chat_id", state.ChatID),
				slog.String("step_id", string(state.CurrentStep)),
				sl.Err(result.Error),
			)
			return result.Error
		}

		if result.UpdateState != nil {
			state.MergeData(result.UpdateState)
		}
		state.UpdatedAt = time.Now()

		if result.Complete {
			e.log.Info("workflow completed",
				slog.String("chat_id", state.ChatID),
				slog.String("workflow_id", string(state.WorkflowID)),
			)
			e.storage.Delete(state.ChatID)
			return nil
		}

		if result.NextStep == "" || result.NextStep == state.CurrentStep || i >= maxTransitions {
			e.storage.Save(state)
			return nil
		}

		state.CurrentStep = result.NextStep
		e.storage.Save(state)

		step, ok := w.GetStep(result.NextStep)
		if !ok {
			return fmt.Errorf("next step not found: %s", result.NextStep)
		}

		e.log.Debug("transitioning",
			slog.String("chat_id", state.ChatID),
			slog.String("step_id", string(result.NextStep)),
		)

		result = step.Enter(ctx, m, state)
	}
}
