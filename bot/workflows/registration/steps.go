package registration

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Kultup/helpDesk-sub006/bot/chat"
	"github.com/Kultup/helpDesk-sub006/entity"
	"github.com/Kultup/helpDesk-sub006/internal/service/approval"
	"github.com/Kultup/helpDesk-sub006/internal/validation"
)

const serviceUnavailableMsg = "⚠️ Сервіс тимчасово недоступний. Спробуйте ще раз за кілька хвилин — введені дані збережено."

// BaseStep provides common functionality for all steps.
type BaseStep struct {
	id chat.StepID
}

func (s *BaseStep) ID() chat.StepID {
	return s.id
}

func (s *BaseStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ConversationState) chat.StepResult {
	return chat.StepResult{}
}

func (s *BaseStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ConversationState, input chat.UserInput) chat.StepResult {
	return chat.StepResult{}
}

// FirstNameStep greets the user and collects the first name.
type FirstNameStep struct {
	BaseStep
}

func NewFirstNameStep() *FirstNameStep {
	return &FirstNameStep{BaseStep: BaseStep{id: StepFirstName}}
}

func (s *FirstNameStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ConversationState) chat.StepResult {
	msg := "<b>Вітаємо у службі підтримки! 👋</b>\nДля реєстрації дайте відповідь на кілька запитань.\n\nВведіть ваше <b>ім'я</b>:"
	if state.Has(KeyFirstName) {
		// Resumed conversation: the greeting was already shown once.
		msg = "Продовжуємо реєстрацію. Введіть ваше <b>ім'я</b>:"
	}
	if err := m.SendText(state.ChatID, msg); err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{}
}

func (s *FirstNameStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ConversationState, input chat.UserInput) chat.StepResult {
	if input.Text == "" {
		return chat.StepResult{}
	}
	name, err := validation.Name(input.Text)
	if err != nil {
		m.SendText(state.ChatID, err.Error())
		return chat.StepResult{}
	}
	return chat.StepResult{
		NextStep:    StepLastName,
		UpdateState: map[string]any{KeyFirstName: name},
	}
}

// LastNameStep collects the last name.
type LastNameStep struct {
	BaseStep
}

func NewLastNameStep() *LastNameStep {
	return &LastNameStep{BaseStep: BaseStep{id: StepLastName}}
}

func (s *LastNameStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ConversationState) chat.StepResult {
	if err := m.SendText(state.ChatID, "Введіть ваше <b>прізвище</b>:"); err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{}
}

func (s *LastNameStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ConversationState, input chat.UserInput) chat.StepResult {
	if input.Text == "" {
		return chat.StepResult{}
	}
	name, err := validation.Name(input.Text)
	if err != nil {
		m.SendText(state.ChatID, err.Error())
		return chat.StepResult{}
	}
	return chat.StepResult{
		NextStep:    StepEmail,
		UpdateState: map[string]any{KeyLastName: name},
	}
}

// EmailStep collects the email and checks it is not registered yet.
type EmailStep struct {
	BaseStep
	checker *validation.Checker
}

func NewEmailStep(checker *validation.Checker) *EmailStep {
	return &EmailStep{BaseStep: BaseStep{id: StepEmail}, checker: checker}
}

func (s *EmailStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ConversationState) chat.StepResult {
	if err := m.SendText(state.ChatID, "Введіть ваш <b>email</b>:"); err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{}
}

func (s *EmailStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ConversationState, input chat.UserInput) chat.StepResult {
	if input.Text == "" {
		return chat.StepResult{}
	}
	email, err := s.checker.Email(ctx, input.Text)
	if err != nil {
		if validation.IsRejection(err) {
			m.SendText(state.ChatID, err.Error())
			return chat.StepResult{}
		}
		m.SendText(state.ChatID, serviceUnavailableMsg)
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{
		NextStep:    StepLogin,
		UpdateState: map[string]any{KeyEmail: email},
	}
}

// LoginStep collects the login and checks it is free.
type LoginStep struct {
	BaseStep
	checker *validation.Checker
}

func NewLoginStep(checker *validation.Checker) *LoginStep {
	return &LoginStep{BaseStep: BaseStep{id: StepLogin}, checker: checker}
}

func (s *LoginStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ConversationState) chat.StepResult {
	if err := m.SendText(state.ChatID, "Придумайте <b>логін</b> (латинські літери, цифри, підкреслення):"); err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{}
}

func (s *LoginStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ConversationState, input chat.UserInput) chat.StepResult {
	if input.Text == "" {
		return chat.StepResult{}
	}
	login, err := s.checker.Login(ctx, input.Text)
	if err != nil {
		if validation.IsRejection(err) {
			m.SendText(state.ChatID, err.Error())
			return chat.StepResult{}
		}
		m.SendText(state.ChatID, serviceUnavailableMsg)
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{
		NextStep:    StepPhone,
		UpdateState: map[string]any{KeyLogin: login},
	}
}

// PhoneStep collects the phone number, from a shared contact or typed
// text.
type PhoneStep struct {
	BaseStep
}

func NewPhoneStep() *PhoneStep {
	return &PhoneStep{BaseStep: BaseStep{id: StepPhone}}
}

func (s *PhoneStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ConversationState) chat.StepResult {
	err := m.SendContactRequest(state.ChatID,
		"Надішліть ваш <b>номер телефону</b> кнопкою нижче або введіть його вручну у форматі +380...:",
		"📱 Поділитися номером")
	if err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{}
}

func (s *PhoneStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ConversationState, input chat.UserInput) chat.StepResult {
	raw := input.Phone
	if raw == "" {
		raw = input.Text
	}
	if raw == "" {
		return chat.StepResult{}
	}
	phone, err := validation.Phone(raw)
	if err != nil {
		m.SendText(state.ChatID, err.Error())
		return chat.StepResult{}
	}
	m.RemoveKeyboard(state.ChatID, "✅ Номер телефону збережено: "+phone)
	return chat.StepResult{
		NextStep:    StepPassword,
		UpdateState: map[string]any{KeyPhone: phone},
	}
}

// PasswordStep collects the account password.
type PasswordStep struct {
	BaseStep
}

func NewPasswordStep() *PasswordStep {
	return &PasswordStep{BaseStep: BaseStep{id: StepPassword}}
}

func (s *PasswordStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ConversationState) chat.StepResult {
	if err := m.SendText(state.ChatID, "Придумайте <b>пароль</b> (мінімум 6 символів, латинська літера та цифра):"); err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{}
}

func (s *PasswordStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ConversationState, input chat.UserInput) chat.StepResult {
	if input.Text == "" {
		return chat.StepResult{}
	}
	password, err := validation.Password(input.Text)
	if err != nil {
		m.SendText(state.ChatID, err.Error())
		return chat.StepResult{}
	}
	return chat.StepResult{
		NextStep:    StepCity,
		UpdateState: map[string]any{KeyPassword: password},
	}
}

// CityStep presents the active city catalog as inline buttons.
type CityStep struct {
	BaseStep
	catalogs CatalogRepository
}

func NewCityStep(catalogs CatalogRepository) *CityStep {
	return &CityStep{BaseStep: BaseStep{id: StepCity}, catalogs: catalogs}
}

func (s *CityStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ConversationState) chat.StepResult {
	cities, err := s.catalogs.GetActiveCities(ctx)
	if err != nil {
		m.SendText(state.ChatID, serviceUnavailableMsg)
		return chat.StepResult{Error: err}
	}
	rows := make([][]chat.InlineButton, len(cities))
	for i, c := range cities {
		rows[i] = []chat.InlineButton{{Text: c.Name, Data: chat.CityCallback(c.ID)}}
	}
	if err := m.SendInlineGrid(state.ChatID, "Оберіть ваше <b>місто</b>:", rows); err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{}
}

func (s *CityStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ConversationState, input chat.UserInput) chat.StepResult {
	if input.CallbackData == "" {
		m.SendText(state.ChatID, "Будь ласка, оберіть місто з меню вище.")
		return chat.StepResult{}
	}
	cb := chat.ParseCallback(input.CallbackData)
	if cb.Action != chat.ActionSelectCity || cb.ID == "" {
		return chat.StepResult{}
	}
	return chat.StepResult{
		NextStep:    StepInstitution,
		UpdateState: map[string]any{KeyCityID: cb.ID},
	}
}

// InstitutionStep presents the institutions of the chosen city. The
// step is optional: it offers a skip button, and a city without
// institutions advances straight to the position step. That fallback
// silently ignores the institution constraint on the position list and
// is kept intentionally.
type InstitutionStep struct {
	BaseStep
	catalogs CatalogRepository
}

func NewInstitutionStep(catalogs CatalogRepository) *InstitutionStep {
	return &InstitutionStep{BaseStep: BaseStep{id: StepInstitution}, catalogs: catalogs}
}

func (s *InstitutionStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ConversationState) chat.StepResult {
	institutions, err := s.catalogs.GetActiveInstitutions(ctx, state.GetString(KeyCityID))
	if err != nil {
		m.SendText(state.ChatID, serviceUnavailableMsg)
		return chat.StepResult{Error: err}
	}
	if len(institutions) == 0 {
		return chat.StepResult{NextStep: StepPosition}
	}
	rows := make([][]chat.InlineButton, 0, len(institutions)+2)
	for _, inst := range institutions {
		rows = append(rows, []chat.InlineButton{{Text: inst.Name, Data: chat.InstitutionCallback(inst.ID)}})
	}
	rows = append(rows,
		[]chat.InlineButton{{Text: "➡️ Пропустити", Data: chat.SkipInstitutionCallback}},
		[]chat.InlineButton{{Text: "⬅️ Назад", Data: chat.BackCallback}},
	)
	if err := m.SendInlineGrid(state.ChatID, "Оберіть ваш <b>заклад</b> (необов'язково):", rows); err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{}
}

func (s *InstitutionStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ConversationState, input chat.UserInput) chat.StepResult {
	if input.CallbackData == "" {
		m.SendText(state.ChatID, "Будь ласка, оберіть заклад з меню або натисніть «Пропустити».")
		return chat.StepResult{}
	}
	cb := chat.ParseCallback(input.CallbackData)
	switch cb.Action {
	case chat.ActionSelectInstitut:
		return chat.StepResult{
			NextStep:    StepPosition,
			UpdateState: map[string]any{KeyInstitutionID: cb.ID},
		}
	case chat.ActionSkipInstitution:
		return chat.StepResult{NextStep: StepPosition}
	case chat.ActionBack:
		return chat.StepResult{NextStep: StepCity}
	}
	return chat.StepResult{}
}

// PositionStep presents the public position catalog, filtered by the
// chosen institution when one was picked. A typed title that matches no
// catalog entry becomes a position request for administrators.
type PositionStep struct {
	BaseStep
	catalogs  CatalogRepository
	requester PositionRequester
	log       *slog.Logger
}

func NewPositionStep(catalogs CatalogRepository, requester PositionRequester, log *slog.Logger) *PositionStep {
	return &PositionStep{
		BaseStep:  BaseStep{id: StepPosition},
		catalogs:  catalogs,
		requester: requester,
		log:       log,
	}
}

func (s *PositionStep) positions(ctx context.Context, state *chat.ConversationState) ([]entity.Position, error) {
	instID := state.GetString(KeyInstitutionID)
	positions, err := s.catalogs.GetPublicPositions(ctx, instID)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 && instID != "" {
		// Institution has no positions of its own: fall back to the
		// whole catalog instead of blocking progress.
		return s.catalogs.GetPublicPositions(ctx, "")
	}
	return positions, nil
}

func (s *PositionStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ConversationState) chat.StepResult {
	positions, err := s.positions(ctx, state)
	if err != nil {
		m.SendText(state.ChatID, serviceUnavailableMsg)
		return chat.StepResult{Error: err}
	}
	rows := make([][]chat.InlineButton, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []chat.InlineButton{{Text: p.Title, Data: chat.PositionCallback(p.ID)}})
	}
	text := "Оберіть вашу <b>посаду</b>:\n\nЯкщо вашої посади немає у списку, надішліть її назву повідомленням — адміністратор розгляне запит."
	if err := m.SendInlineGrid(state.ChatID, text, rows); err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{}
}

func (s *PositionStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ConversationState, input chat.UserInput) chat.StepResult {
	if input.CallbackData != "" {
		cb := chat.ParseCallback(input.CallbackData)
		if cb.Action == chat.ActionSelectPosition && cb.ID != "" {
			return chat.StepResult{
				NextStep:    StepCompleted,
				UpdateState: map[string]any{KeyPositionID: cb.ID},
			}
		}
		if cb.Action == chat.ActionBack {
			return chat.StepResult{NextStep: StepInstitution}
		}
		return chat.StepResult{}
	}

	title := strings.TrimSpace(input.Text)
	if title == "" {
		return chat.StepResult{}
	}

	// A typed title naming an existing catalog entry selects it.
	positions, err := s.positions(ctx, state)
	if err != nil {
		m.SendText(state.ChatID, serviceUnavailableMsg)
		return chat.StepResult{Error: err}
	}
	for _, p := range positions {
		if strings.EqualFold(p.Title, title) {
			return chat.StepResult{
				NextStep:    StepCompleted,
				UpdateState: map[string]any{KeyPositionID: p.ID},
			}
		}
	}

	_, err = s.requester.CreateRequest(ctx, title, state.ChatID, state.Username, state.ChatID)
	if err != nil {
		if errors.Is(err, approval.ErrPendingExists) {
			m.SendText(state.ChatID, "Ваш попередній запит на посаду ще розглядається. Дочекайтеся рішення адміністратора.")
			return chat.StepResult{}
		}
		m.SendText(state.ChatID, serviceUnavailableMsg)
		return chat.StepResult{Error: err}
	}

	s.log.Info("position request created from registration",
		slog.String("chat_id", state.ChatID),
		slog.String("title", title),
	)
	m.SendText(state.ChatID, "📨 Запит на додавання посади <b>«"+title+"»</b> надіслано адміністраторам. Ви отримаєте повідомлення після розгляду.")
	return chat.StepResult{}
}

// CompletedStep submits the collected registration. When a required
// field is missing, e.g. after an interrupted conversation, the step
// rewinds to the first missing one instead of failing; already
// collected fields stay put.
type CompletedStep struct {
	BaseStep
	gateway AccountGateway
	log     *slog.Logger
}

func NewCompletedStep(gateway AccountGateway, log *slog.Logger) *CompletedStep {
	return &CompletedStep{BaseStep: BaseStep{id: StepCompleted}, gateway: gateway, log: log}
}

func (s *CompletedStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ConversationState) chat.StepResult {
	if missing := firstMissingRequiredStep(state); missing != "" {
		s.log.Warn("registration reached completion with missing fields",
			slog.String("chat_id", state.ChatID),
			slog.String("rewind_to", string(missing)),
		)
		m.SendText(state.ChatID, "Схоже, частина даних загубилася. Повернімося на пропущений крок.")
		return chat.StepResult{NextStep: missing}
	}

	ok, message, err := s.gateway.Register(ctx, state)
	if err != nil {
		m.SendText(state.ChatID, "⚠️ Сервіс реєстрації тимчасово недоступний. Надішліть /start трохи пізніше — дані збережено.")
		return chat.StepResult{Error: err}
	}
	if !ok {
		m.SendText(state.ChatID, "❌ "+message+"\n\nНадішліть /start, щоб спробувати ще раз — дані збережено.")
		return chat.StepResult{}
	}

	m.SendText(state.ChatID, "✅ <b>Реєстрацію надіслано!</b>\nОбліковий запис буде активовано після підтвердження адміністратором. Ми повідомимо вас тут.")
	return chat.StepResult{Complete: true}
}
