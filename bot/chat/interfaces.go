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

	// Enter is called when the conversation enters this step. It sends
	// the step's prompt. A StepResult with NextStep set auto-transitions
	// without waiting for user input.
	Enter(ctx context.Context, m Messenger, state *ConversationState) StepResult

	// HandleInput processes user input (text, callback, or phone).
	// On a validation rejection the step returns an empty StepResult
	// after re-prompting: state and step stay unchanged.
	HandleInput(ctx context.Context, m Messenger, state *ConversationState, input UserInput) StepResult
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

// StateStorage handles persistence of conversation states.
type StateStorage interface {
	Save(ctx context.Context, state *ConversationState) error
	Load(ctx context.Context, chatID string) (*ConversationState, error)
	Delete(ctx context.Context, chatID string) error
}

// Messenger is the outbound transport interface. The Telegram adapter
// implements it; tests swap in a fake.
type Messenger interface {
	SendText(chatID, text string) error
	SendInlineGrid(chatID, text string, rows [][]InlineButton) error
	SendContactRequest(chatID, text, buttonText string) error
	RemoveKeyboard(chatID, text string) error
}

// InlineButton represents an inline button with callback data.
type InlineButton struct {
	Text string
	Data string
}

// UserInput represents a normalized inbound event.
type UserInput struct {
	Text         string // Regular message text
	CallbackData string // Inline button press payload
	Phone        string // Contact share
}
