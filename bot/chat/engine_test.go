package chat

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memStorage struct {
	mu     sync.Mutex
	states map[string]*ConversationState
}

func newMemStorage() *memStorage {
	return &memStorage{states: make(map[string]*ConversationState)}
}

func (s *memStorage) Save(_ context.Context, state *ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	s.states[state.ChatID] = &cp
	return nil
}

func (s *memStorage) Load(_ context.Context, chatID string) (*ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[chatID]
	if !ok {
		return nil, nil
	}
	cp := *state
	return &cp, nil
}

func (s *memStorage) Delete(_ context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, chatID)
	return nil
}

type fakeMessenger struct {
	texts []string
	grids []string
}

func (m *fakeMessenger) SendText(_ string, text string) error {
	m.texts = append(m.texts, text)
	return nil
}

func (m *fakeMessenger) SendInlineGrid(_ string, text string, _ [][]InlineButton) error {
	m.grids = append(m.grids, text)
	return nil
}

func (m *fakeMessenger) SendContactRequest(_, text, _ string) error {
	m.texts = append(m.texts, text)
	return nil
}

func (m *fakeMessenger) RemoveKeyboard(_, text string) error {
	m.texts = append(m.texts, text)
	return nil
}

// testStep transitions to next when it sees the text "ok", completes
// when it sees "done", and otherwise stays put.
type testStep struct {
	id     StepID
	next   StepID
	prompt string
}

func (s *testStep) ID() StepID { return s.id }

func (s *testStep) Enter(_ context.Context, m Messenger, state *ConversationState) StepResult {
	m.SendText(state.ChatID, s.prompt)
	return StepResult{}
}

func (s *testStep) HandleInput(_ context.Context, _ Messenger, _ *ConversationState, input UserInput) StepResult {
	switch input.Text {
	case "ok":
		return StepResult{NextStep: s.next, UpdateState: map[string]any{string(s.id): input.Text}}
	case "done":
		return StepResult{Complete: true}
	}
	return StepResult{}
}

type testWorkflow struct {
	steps map[StepID]Step
	first StepID
}

func (w *testWorkflow) ID() WorkflowID      { return "test" }
func (w *testWorkflow) InitialStep() StepID { return w.first }
func (w *testWorkflow) GetStep(id StepID) (Step, bool) {
	s, ok := w.steps[id]
	return s, ok
}

func newTestWorkflow() *testWorkflow {
	return &testWorkflow{
		first: "one",
		steps: map[StepID]Step{
			"one": &testStep{id: "one", next: "two", prompt: "prompt one"},
			"two": &testStep{id: "two", next: "two", prompt: "prompt two"},
		},
	}
}

func newTestEngine(t *testing.T) (*Engine, *memStorage, *fakeMessenger) {
	t.Helper()
	storage := newMemStorage()
	engine := NewEngine(storage, testLogger())
	engine.RegisterWorkflow(newTestWorkflow())
	return engine, storage, &fakeMessenger{}
}

func TestStartWorkflowCreatesState(t *testing.T) {
	engine, storage, m := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.StartWorkflow(ctx, m, "100", "olena", "test"))

	state, err := storage.Load(ctx, "100")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, StepID("one"), state.CurrentStep)
	assert.Equal(t, "olena", state.Username)
	assert.Equal(t, []string{"prompt one"}, m.texts)
}

func TestStartWorkflowResumesExistingState(t *testing.T) {
	engine, storage, m := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.StartWorkflow(ctx, m, "100", "olena", "test"))
	require.NoError(t, engine.HandleText(ctx, m, "100", "ok"))

	// duplicate /start must not reset the collected fields or the step
	require.NoError(t, engine.StartWorkflow(ctx, m, "100", "olena", "test"))

	state, err := storage.Load(ctx, "100")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, StepID("two"), state.CurrentStep)
	assert.Equal(t, "ok", state.GetString("one"))
}

func TestHandleTextWithoutConversationIsNoop(t *testing.T) {
	engine, _, m := newTestEngine(t)

	require.NoError(t, engine.HandleText(context.Background(), m, "100", "hello"))
	assert.Empty(t, m.texts)
}

func TestInvalidInputKeepsStep(t *testing.T) {
	engine, storage, m := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.StartWorkflow(ctx, m, "100", "", "test"))
	require.NoError(t, engine.HandleText(ctx, m, "100", "garbage"))

	state, _ := storage.Load(ctx, "100")
	assert.Equal(t, StepID("one"), state.CurrentStep)
}

func TestCompletionDeletesState(t *testing.T) {
	engine, storage, m := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.StartWorkflow(ctx, m, "100", "", "test"))
	require.NoError(t, engine.HandleText(ctx, m, "100", "ok"))
	require.NoError(t, engine.HandleText(ctx, m, "100", "done"))

	state, err := storage.Load(ctx, "100")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestCorruptStepRepairsToInitial(t *testing.T) {
	engine, storage, m := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.StartWorkflow(ctx, m, "100", "", "test"))

	state, _ := storage.Load(ctx, "100")
	state.CurrentStep = "vanished"
	require.NoError(t, storage.Save(ctx, state))

	require.NoError(t, engine.HandleText(ctx, m, "100", "anything"))

	state, _ = storage.Load(ctx, "100")
	assert.Equal(t, StepID("one"), state.CurrentStep)
	assert.Contains(t, m.texts, "prompt one")
}

func TestResumeAt(t *testing.T) {
	engine, storage, m := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.StartWorkflow(ctx, m, "100", "", "test"))
	require.NoError(t, engine.ResumeAt(ctx, m, "100", "two"))

	state, _ := storage.Load(ctx, "100")
	assert.Equal(t, StepID("two"), state.CurrentStep)
	assert.Contains(t, m.texts, "prompt two")
}

func TestResumeAtWithoutStateIsNoop(t *testing.T) {
	engine, _, m := newTestEngine(t)

	require.NoError(t, engine.ResumeAt(context.Background(), m, "404", "two"))
	assert.Empty(t, m.texts)
}
