// Package login implements the /login flow for already registered
// users. Unlike registration it keeps no persisted state: the whole
// exchange lives in an in-memory session and dies with the process.
package login

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Kultup/helpDesk-sub006/bot/chat"
	"github.com/Kultup/helpDesk-sub006/bot/session"
	"github.com/Kultup/helpDesk-sub006/internal/lib/sl"
)

// Authenticator verifies credentials against the helpdesk backend.
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (bool, string, error)
}

type Flow struct {
	sessions session.Store
	auth     Authenticator
	locks    *chat.Locks
	log      *slog.Logger
}

func New(sessions session.Store, auth Authenticator, log *slog.Logger) *Flow {
	return &Flow{
		sessions: sessions,
		auth:     auth,
		locks:    chat.NewLocks(),
		log:      log.With(sl.Module("bot.login")),
	}
}

func cancelRow() [][]chat.InlineButton {
	return [][]chat.InlineButton{
		{{Text: "Скасувати", Data: chat.CancelLoginCallback}},
	}
}

// Start begins a login session for the chat, replacing any previous
// one.
func (f *Flow) Start(ctx context.Context, m chat.Messenger, chatID, username string) error {
	f.locks.Lock(chatID)
	defer f.locks.Unlock(chatID)

	f.sessions.Set(chatID, &session.LoginSession{
		Step:            session.StepLogin,
		DisplayUsername: username,
	})

	return m.SendInlineGrid(chatID, "Введіть ваш логін:", cancelRow())
}

// HandleText advances the chat's login session with the typed text.
// Returns false when the chat has no session, so the caller can route
// the text elsewhere. Same-chat deliveries queue on the per-chat lock;
// the dispatcher runs them concurrently.
func (f *Flow) HandleText(ctx context.Context, m chat.Messenger, chatID, text string) (bool, error) {
	f.locks.Lock(chatID)
	defer f.locks.Unlock(chatID)

	s, ok := f.sessions.Get(chatID)
	if !ok {
		return false, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return true, m.SendText(chatID, "Порожнє повідомлення. Спробуйте ще раз.")
	}

	switch s.Step {
	case session.StepLogin:
		s.Login = text
		s.Step = session.StepPassword
		f.sessions.Set(chatID, s)
		return true, m.SendInlineGrid(chatID, "Введіть ваш пароль:", cancelRow())

	case session.StepPassword:
		s.Password = text
		return true, f.finish(ctx, m, chatID, s)
	}

	// unknown step, drop the broken session
	f.sessions.Delete(chatID)
	return true, nil
}

// Cancel aborts the chat's login session if one exists.
func (f *Flow) Cancel(m chat.Messenger, chatID string) error {
	f.locks.Lock(chatID)
	defer f.locks.Unlock(chatID)

	if _, ok := f.sessions.Get(chatID); !ok {
		return nil
	}
	f.sessions.Delete(chatID)
	return m.SendText(chatID, "Вхід скасовано.")
}

func (f *Flow) finish(ctx context.Context, m chat.Messenger, chatID string, s *session.LoginSession) error {
	// the session is gone whatever the outcome; credentials never
	// outlive the attempt
	defer f.sessions.Delete(chatID)

	ok, message, err := f.auth.Authenticate(ctx, s.Login, s.Password)
	if err != nil {
		f.log.Error("authenticate", slog.String("chat_id", chatID), sl.Err(err))
		return m.SendText(chatID, "Сервіс тимчасово недоступний. Спробуйте пізніше: /login")
	}

	if !ok {
		f.log.Info("login rejected", slog.String("chat_id", chatID))
		return m.SendText(chatID, "❌ "+message+"\n\nСпробуйте ще раз: /login")
	}

	name := s.DisplayUsername
	if name == "" {
		name = s.Login
	}
	f.log.Info("login succeeded", slog.String("chat_id", chatID))
	return m.SendText(chatID, "✅ Вітаємо, "+name+"! Ви успішно увійшли в систему.")
}
