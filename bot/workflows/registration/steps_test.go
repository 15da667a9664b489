package registration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Kultup/helpDesk-sub006/bot/chat"
	"github.com/Kultup/helpDesk-sub006/entity"
	"github.com/Kultup/helpDesk-sub006/internal/service/approval"
	"github.com/Kultup/helpDesk-sub006/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memStorage struct {
	mu     sync.Mutex
	states map[string]*chat.ConversationState
}

func newMemStorage() *memStorage {
	return &memStorage{states: make(map[string]*chat.ConversationState)}
}

func (s *memStorage) Save(_ context.Context, state *chat.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	s.states[state.ChatID] = &cp
	return nil
}

func (s *memStorage) Load(_ context.Context, chatID string) (*chat.ConversationState, error) {
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

func (m *fakeMessenger) SendInlineGrid(_ string, text string, _ [][]chat.InlineButton) error {
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

func (m *fakeMessenger) lastText() string {
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

type fakeCatalogs struct {
	cities       []entity.City
	institutions map[string][]entity.Institution
	// positions keyed by institution id; "" is the unfiltered catalog
	positions map[string][]entity.Position
}

func (f *fakeCatalogs) GetActiveCities(_ context.Context) ([]entity.City, error) {
	return f.cities, nil
}

func (f *fakeCatalogs) GetActiveInstitutions(_ context.Context, cityID string) ([]entity.Institution, error) {
	return f.institutions[cityID], nil
}

func (f *fakeCatalogs) GetPublicPositions(_ context.Context, institutionID string) ([]entity.Position, error) {
	return f.positions[institutionID], nil
}

type fakeRequester struct {
	created []string
	err     error
}

func (f *fakeRequester) CreateRequest(_ context.Context, title, _, _, _ string) (*entity.PositionRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, title)
	return &entity.PositionRequest{ID: "req-1", Title: title}, nil
}

type fakeGateway struct {
	ok      bool
	message string
	err     error
	calls   int
}

func (f *fakeGateway) Register(_ context.Context, _ *chat.ConversationState) (bool, string, error) {
	f.calls++
	return f.ok, f.message, f.err
}

type fakeUsers struct {
	takenEmails map[string]bool
	takenLogins map[string]bool
}

func (f *fakeUsers) UserExistsByEmail(_ context.Context, email string) (bool, error) {
	return f.takenEmails[email], nil
}

func (f *fakeUsers) UserExistsByLogin(_ context.Context, login string) (bool, error) {
	return f.takenLogins[login], nil
}

type fixture struct {
	engine    *chat.Engine
	storage   *memStorage
	m         *fakeMessenger
	catalogs  *fakeCatalogs
	requester *fakeRequester
	gateway   *fakeGateway
	users     *fakeUsers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalogs := &fakeCatalogs{
		cities: []entity.City{{ID: "c1", Name: "Київ", Active: true}},
		institutions: map[string][]entity.Institution{
			"c1": {{ID: "i1", Name: "Лікарня №1", CityID: "c1", Active: true}},
		},
		positions: map[string][]entity.Position{
			"":   {{ID: "p1", Title: "Лікар", Active: true, Public: true}},
			"i1": {{ID: "p2", Title: "Медсестра", Active: true, Public: true}},
		},
	}
	requester := &fakeRequester{}
	gateway := &fakeGateway{ok: true}
	users := &fakeUsers{takenEmails: map[string]bool{}, takenLogins: map[string]bool{}}

	storage := newMemStorage()
	engine := chat.NewEngine(storage, testLogger())
	engine.RegisterWorkflow(New(catalogs, &validation.Checker{Users: users}, requester, gateway, testLogger()))

	return &fixture{
		engine:    engine,
		storage:   storage,
		m:         &fakeMessenger{},
		catalogs:  catalogs,
		requester: requester,
		gateway:   gateway,
		users:     users,
	}
}

func (f *fixture) start(t *testing.T, chatID string) {
	t.Helper()
	require.NoError(t, f.engine.StartWorkflow(context.Background(), f.m, chatID, "olena", WorkflowID))
}

func (f *fixture) text(t *testing.T, chatID, text string) {
	t.Helper()
	require.NoError(t, f.engine.HandleText(context.Background(), f.m, chatID, text))
}

func (f *fixture) callback(t *testing.T, chatID, data string) {
	t.Helper()
	require.NoError(t, f.engine.HandleCallback(context.Background(), f.m, chatID, data))
}

func (f *fixture) state(t *testing.T, chatID string) *chat.ConversationState {
	t.Helper()
	state, err := f.storage.Load(context.Background(), chatID)
	require.NoError(t, err)
	require.NotNil(t, state)
	return state
}

// walk the happy path up to the city step
func (f *fixture) throughPassword(t *testing.T, chatID string) {
	t.Helper()
	f.start(t, chatID)
	f.text(t, chatID, "Олена")
	f.text(t, chatID, "Петренко")
	f.text(t, chatID, "olena@example.com")
	f.text(t, chatID, "olena_p")
	f.text(t, chatID, "+380501234567")
	f.text(t, chatID, "pass123")
}

func TestInvalidInputKeepsStepAndState(t *testing.T) {
	f := newFixture(t)
	f.start(t, "100")

	f.text(t, "100", "O")

	state := f.state(t, "100")
	assert.Equal(t, StepFirstName, state.CurrentStep)
	assert.False(t, state.Has(KeyFirstName))
	assert.Contains(t, f.m.lastText(), "від 2 до 50")
}

func TestTakenEmailRepromptsWithoutLosingNames(t *testing.T) {
	f := newFixture(t)
	f.users.takenEmails["taken@example.com"] = true

	f.start(t, "100")
	f.text(t, "100", "Олена")
	f.text(t, "100", "Петренко")
	f.text(t, "100", "Taken@Example.com")

	state := f.state(t, "100")
	assert.Equal(t, StepEmail, state.CurrentStep)
	assert.Equal(t, "Олена", state.GetString(KeyFirstName))
	assert.Equal(t, "Петренко", state.GetString(KeyLastName))
	assert.False(t, state.Has(KeyEmail))
}

func TestHappyPathThroughInstitution(t *testing.T) {
	f := newFixture(t)
	f.throughPassword(t, "100")

	state := f.state(t, "100")
	assert.Equal(t, StepCity, state.CurrentStep)

	f.callback(t, "100", chat.CityCallback("c1"))
	state = f.state(t, "100")
	assert.Equal(t, StepInstitution, state.CurrentStep)

	f.callback(t, "100", chat.InstitutionCallback("i1"))
	state = f.state(t, "100")
	assert.Equal(t, StepPosition, state.CurrentStep)
	assert.Equal(t, "i1", state.GetString(KeyInstitutionID))
}

func TestSkipInstitutionLeavesFieldAbsent(t *testing.T) {
	f := newFixture(t)
	f.throughPassword(t, "100")
	f.callback(t, "100", chat.CityCallback("c1"))

	f.callback(t, "100", chat.SkipInstitutionCallback)

	state := f.state(t, "100")
	assert.Equal(t, StepPosition, state.CurrentStep)
	assert.False(t, state.Has(KeyInstitutionID))
}

func TestCityWithoutInstitutionsAdvancesToPositions(t *testing.T) {
	f := newFixture(t)
	f.catalogs.institutions = map[string][]entity.Institution{}
	f.throughPassword(t, "100")

	f.callback(t, "100", chat.CityCallback("c1"))

	state := f.state(t, "100")
	assert.Equal(t, StepPosition, state.CurrentStep)
}

func TestBackFromInstitutionReturnsToCity(t *testing.T) {
	f := newFixture(t)
	f.throughPassword(t, "100")
	f.callback(t, "100", chat.CityCallback("c1"))

	f.callback(t, "100", chat.BackCallback)

	state := f.state(t, "100")
	assert.Equal(t, StepCity, state.CurrentStep)
}

func TestTypedTitleMatchingCatalogSelectsIt(t *testing.T) {
	f := newFixture(t)
	f.throughPassword(t, "100")
	f.callback(t, "100", chat.CityCallback("c1"))
	f.callback(t, "100", chat.SkipInstitutionCallback)

	f.text(t, "100", "лікар")

	assert.Empty(t, f.requester.created, "a catalog match never creates a request")
	assert.Equal(t, 1, f.gateway.calls)
}

func TestTypedUnknownTitleCreatesRequest(t *testing.T) {
	f := newFixture(t)
	f.throughPassword(t, "100")
	f.callback(t, "100", chat.CityCallback("c1"))
	f.callback(t, "100", chat.SkipInstitutionCallback)

	f.text(t, "100", "Космонавт")

	assert.Equal(t, []string{"Космонавт"}, f.requester.created)
	state := f.state(t, "100")
	assert.Equal(t, StepPosition, state.CurrentStep, "conversation waits on the position step")
	assert.Contains(t, f.m.lastText(), "Запит")
}

func TestSecondPendingRequestExplained(t *testing.T) {
	f := newFixture(t)
	f.requester.err = approval.ErrPendingExists
	f.throughPassword(t, "100")
	f.callback(t, "100", chat.CityCallback("c1"))
	f.callback(t, "100", chat.SkipInstitutionCallback)

	f.text(t, "100", "Космонавт")

	state := f.state(t, "100")
	assert.Equal(t, StepPosition, state.CurrentStep)
	assert.Contains(t, f.m.lastText(), "розглядається")
}

func TestCompletionSubmitsAndDeletesState(t *testing.T) {
	f := newFixture(t)
	f.throughPassword(t, "100")
	f.callback(t, "100", chat.CityCallback("c1"))
	f.callback(t, "100", chat.InstitutionCallback("i1"))
	f.callback(t, "100", chat.PositionCallback("p2"))

	assert.Equal(t, 1, f.gateway.calls)

	state, err := f.storage.Load(context.Background(), "100")
	require.NoError(t, err)
	assert.Nil(t, state, "completed registration leaves no stored state")
}

func TestGatewayRejectionKeepsStateForRetry(t *testing.T) {
	f := newFixture(t)
	f.gateway.ok = false
	f.gateway.message = "Ліміт користувачів вичерпано"

	f.throughPassword(t, "100")
	f.callback(t, "100", chat.CityCallback("c1"))
	f.callback(t, "100", chat.InstitutionCallback("i1"))
	f.callback(t, "100", chat.PositionCallback("p2"))

	state := f.state(t, "100")
	assert.Equal(t, StepCompleted, state.CurrentStep)
	assert.Contains(t, f.m.lastText(), "Ліміт користувачів вичерпано")
	assert.Contains(t, f.m.lastText(), "/start")
}

func TestGatewayOutageKeepsState(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = errors.New("connection refused")

	f.throughPassword(t, "100")
	f.callback(t, "100", chat.CityCallback("c1"))
	f.callback(t, "100", chat.InstitutionCallback("i1"))

	err := f.engine.HandleCallback(context.Background(), f.m, "100", chat.PositionCallback("p2"))
	require.Error(t, err)

	state := f.state(t, "100")
	assert.Equal(t, StepCompleted, state.CurrentStep)
}

func TestCompletedWithMissingFieldRewinds(t *testing.T) {
	f := newFixture(t)
	f.throughPassword(t, "100")
	f.callback(t, "100", chat.CityCallback("c1"))
	f.callback(t, "100", chat.InstitutionCallback("i1"))

	// simulate a state that lost its login between steps
	state := f.state(t, "100")
	delete(state.Fields, KeyLogin)
	require.NoError(t, f.storage.Save(context.Background(), state))

	f.callback(t, "100", chat.PositionCallback("p2"))

	state = f.state(t, "100")
	assert.Equal(t, StepLogin, state.CurrentStep, "rewinds to the first missing required step")
	assert.Equal(t, 0, f.gateway.calls)
	assert.Equal(t, "Олена", state.GetString(KeyFirstName), "collected fields survive the rewind")
}

func TestContactSharePassesPhone(t *testing.T) {
	f := newFixture(t)
	f.start(t, "100")
	f.text(t, "100", "Олена")
	f.text(t, "100", "Петренко")
	f.text(t, "100", "olena@example.com")
	f.text(t, "100", "olena_p")

	require.NoError(t, f.engine.HandleContact(context.Background(), f.m, "100", "+38 (050) 123-45-67"))

	state := f.state(t, "100")
	assert.Equal(t, StepPassword, state.CurrentStep)
	assert.Equal(t, "+380501234567", state.GetString(KeyPhone))
}
