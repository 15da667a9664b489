package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Engine is the conversation workflow orchestrator. Events for the
// same chat identity are serialized; events for different chats run in
// parallel.
type Engine struct {
	workflows map[WorkflowID]Workflow
	storage   StateStorage
	locks     *Locks
	log       *slog.Logger
}

// NewEngine creates a new conversation engine.
func NewEngine(storage StateStorage, log *slog.Logger) *Engine {
	return &Engine{
		workflows: make(map[WorkflowID]Workflow),
		storage:   storage,
		locks:     NewLocks(),
		log:       log,
	}
}

// RegisterWorkflow adds a workflow to the engine.
func (e *Engine) RegisterWorkflow(w Workflow) {
	e.workflows[w.ID()] = w
	e.log.Info("engine: registered workflow", slog.String("workflow_id", string(w.ID())))
}

// StartWorkflow begins, or resumes, a workflow for a chat. If a state
// already exists the conversation continues at its stored step, so
// duplicate /start deliveries are idempotent and no collected fields
// are lost. A stored step the workflow no longer knows is repaired to
// the initial step.
func (e *Engine) StartWorkflow(ctx context.Context, m Messenger, chatID, username string, workflowID WorkflowID) error {
	e.locks.Lock(chatID)
	defer e.locks.Unlock(chatID)

	w, ok := e.workflows[workflowID]
	if !ok {
		return fmt.Errorf("workflow not found: %s", workflowID)
	}

	state, err := e.storage.Load(ctx, chatID)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}

	if state == nil {
		state = NewConversationState(chatID, username, workflowID, w.InitialStep())
		if err := e.storage.Save(ctx, state); err != nil {
			return fmt.Errorf("saving initial state: %w", err)
		}
		e.log.Info("engine: starting workflow",
			slog.String("chat_id", chatID),
			slog.String("workflow_id", string(workflowID)),
		)
	} else {
		if _, known := w.GetStep(state.CurrentStep); !known {
			state.CurrentStep = w.InitialStep()
			if err := e.storage.Save(ctx, state); err != nil {
				return fmt.Errorf("repairing state: %w", err)
			}
		}
		e.log.Info("engine: resuming workflow",
			slog.String("chat_id", chatID),
			slog.String("step_id", string(state.CurrentStep)),
		)
	}

	step, ok := w.GetStep(state.CurrentStep)
	if !ok {
		return fmt.Errorf("step not found: %s", state.CurrentStep)
	}

	result := step.Enter(ctx, m, state)
	return e.processResult(ctx, m, state, w, result)
}

// HandleText routes a text message to the current workflow step.
func (e *Engine) HandleText(ctx context.Context, m Messenger, chatID, text string) error {
	return e.handle(ctx, m, chatID, UserInput{Text: text})
}

// HandleCallback routes a decoded callback payload to the current step.
func (e *Engine) HandleCallback(ctx context.Context, m Messenger, chatID, data string) error {
	return e.handle(ctx, m, chatID, UserInput{CallbackData: data})
}

// HandleContact routes a shared contact (phone number) to the current step.
func (e *Engine) HandleContact(ctx context.Context, m Messenger, chatID, phone string) error {
	return e.handle(ctx, m, chatID, UserInput{Phone: phone})
}

// HasActiveConversation checks whether the chat has a stored state.
func (e *Engine) HasActiveConversation(ctx context.Context, chatID string) (bool, error) {
	state, err := e.storage.Load(ctx, chatID)
	if err != nil {
		return false, err
	}
	return state != nil, nil
}

// ResumeAt moves an existing conversation to the given step and sends
// that step's prompt. The approval workflow uses it to put a
// conversation back on the position step once a request is resolved,
// without requiring the user to resend /start. A chat with no stored
// state is a no-op.
func (e *Engine) ResumeAt(ctx context.Context, m Messenger, chatID string, stepID StepID) error {
	e.locks.Lock(chatID)
	defer e.locks.Unlock(chatID)

	state, err := e.storage.Load(ctx, chatID)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	if state == nil {
		return nil
	}

	w, ok := e.workflows[state.WorkflowID]
	if !ok {
		return fmt.Errorf("workflow not found: %s", state.WorkflowID)
	}
	step, ok := w.GetStep(stepID)
	if !ok {
		return fmt.Errorf("step not found: %s", stepID)
	}

	state.CurrentStep = stepID
	if err := e.storage.Save(ctx, state); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}

	result := step.Enter(ctx, m, state)
	return e.processResult(ctx, m, state, w, result)
}

func (e *Engine) handle(ctx context.Context, m Messenger, chatID string, input UserInput) error {
	e.locks.Lock(chatID)
	defer e.locks.Unlock(chatID)

	state, err := e.storage.Load(ctx, chatID)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	if state == nil {
		return nil // no active conversation
	}

	w, ok := e.workflows[state.WorkflowID]
	if !ok {
		return fmt.Errorf("workflow not found: %s", state.WorkflowID)
	}

	step, ok := w.GetStep(state.CurrentStep)
	if !ok {
		// Corrupt stored step: repair to the initial step and re-prompt.
		state.CurrentStep = w.InitialStep()
		if err := e.storage.Save(ctx, state); err != nil {
			return fmt.Errorf("repairing state: %w", err)
		}
		step, _ = w.GetStep(state.CurrentStep)
		result := step.Enter(ctx, m, state)
		return e.processResult(ctx, m, state, w, result)
	}

	result := step.HandleInput(ctx, m, state, input)
	return e.processResult(ctx, m, state, w, result)
}

// processResult applies a step result: merges field updates, completes
// or transitions, and chains auto-transitioning steps.
func (e *Engine) processResult(ctx context.Context, m Messenger, state *ConversationState, w Workflow, result StepResult) error {
	if result.Error != nil {
		e.log.Error("engine: step error",
			slog.String("chat_id", state.ChatID),
			slog.String("step_id", string(state.CurrentStep)),
			slog.String("error", result.Error.Error()),
		)
		return result.Error
	}

	if result.UpdateState != nil {
		state.MergeFields(result.UpdateState)
	}
	state.UpdatedAt = time.Now()

	if result.Complete {
		e.log.Info("engine: workflow completed",
			slog.String("chat_id", state.ChatID),
			slog.String("workflow_id", string(state.WorkflowID)),
		)
		return e.storage.Delete(ctx, state.ChatID)
	}

	const maxTransitions = 20
	for i := 0; result.NextStep != "" && result.NextStep != state.CurrentStep && i < maxTransitions; i++ {
		state.CurrentStep = result.NextStep

		if err := e.storage.Save(ctx, state); err != nil {
			return fmt.Errorf("saving state after transition: %w", err)
		}

		step, ok := w.GetStep(result.NextStep)
		if !ok {
			return fmt.Errorf("next step not found: %s", result.NextStep)
		}

		e.log.Debug("engine: transitioning",
			slog.String("chat_id", state.ChatID),
			slog.String("step_id", string(result.NextStep)),
		)

		result = step.Enter(ctx, m, state)
		if result.Error != nil {
			return result.Error
		}

		if result.UpdateState != nil {
			state.MergeFields(result.UpdateState)
		}
		state.UpdatedAt = time.Now()

		if result.Complete {
			e.log.Info("engine: workflow completed",
				slog.String("chat_id", state.ChatID),
				slog.String("workflow_id", string(state.WorkflowID)),
			)
			return e.storage.Delete(ctx, state.ChatID)
		}
	}

	return e.storage.Save(ctx, state)
}
