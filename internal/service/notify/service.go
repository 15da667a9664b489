// Package notify formats and delivers every outbound notification the
// bot sends outside of an active conversation step. Each method
// resolves its own delivery target and degrades to a logged no-op when
// the transport is not ready or the target chat is unknown: a failed
// notification must never take down the event loop.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Kultup/helpDesk-sub006/bot/chat"
	"github.com/Kultup/helpDesk-sub006/entity"
	"github.com/Kultup/helpDesk-sub006/internal/config"
	"github.com/Kultup/helpDesk-sub006/internal/lib/sl"
)

// UserRepository resolves administrator delivery targets.
type UserRepository interface {
	GetAdminsWithChat(ctx context.Context) ([]entity.User, error)
}

// SettingsRepository is the stored fallback for the group broadcast
// route when the config does not set one.
type SettingsRepository interface {
	GetGroupChatID(ctx context.Context) (string, error)
}

// EventPublisher pushes events to connected admin dashboards. Optional.
type EventPublisher interface {
	Publish(eventType string, data any)
}

// Service is the notification dispatcher.
type Service struct {
	messenger   chat.Messenger
	users       UserRepository
	settings    SettingsRepository
	events      EventPublisher
	groupChatID string
	log         *slog.Logger
}

// New creates the dispatcher. messenger may be nil when the bot failed
// to start; every method then logs and returns.
func New(conf *config.Config, messenger chat.Messenger, users UserRepository, settings SettingsRepository, log *slog.Logger) *Service {
	groupChatID := ""
	if conf.Telegram.GroupChatId != 0 {
		groupChatID = strconv.FormatInt(conf.Telegram.GroupChatId, 10)
	}
	return &Service{
		messenger:   messenger,
		users:       users,
		settings:    settings,
		groupChatID: groupChatID,
		log:         log.With(sl.Module("notify")),
	}
}

// SetEventPublisher attaches the admin dashboard event stream.
func (s *Service) SetEventPublisher(events EventPublisher) {
	s.events = events
}

func (s *Service) send(chatID, text string) {
	if s.messenger == nil {
		s.log.Warn("messenger not ready, dropping notification")
		return
	}
	if chatID == "" {
		s.log.Debug("no chat route, dropping notification")
		return
	}
	if err := s.messenger.SendText(chatID, text); err != nil {
		s.log.Error("sending notification", slog.String("chat_id", chatID), sl.Err(err))
	}
}

func (s *Service) publish(eventType string, data any) {
	if s.events != nil {
		s.events.Publish(eventType, data)
	}
}

// groupTarget resolves the group broadcast route: config first, stored
// setting as fallback.
func (s *Service) groupTarget(ctx context.Context) string {
	if s.groupChatID != "" {
		return s.groupChatID
	}
	stored, err := s.settings.GetGroupChatID(ctx)
	if err != nil {
		s.log.Error("loading group chat setting", sl.Err(err))
		return ""
	}
	return stored
}

// RegistrationApproved tells the user their account is active.
func (s *Service) RegistrationApproved(ctx context.Context, chatID string) {
	s.send(chatID, "🎉 <b>Ваш обліковий запис підтверджено!</b>\nТепер ви можете увійти за допомогою /login та створювати заявки.")
}

// RegistrationRejected tells the user their registration was declined.
func (s *Service) RegistrationRejected(ctx context.Context, chatID, reason string) {
	text := "😔 На жаль, вашу реєстрацію відхилено."
	if reason != "" {
		text += "\nПричина: " + reason
	}
	text += "\nЗверніться до адміністратора або надішліть /start, щоб зареєструватися знову."
	s.send(chatID, text)
}

// NewPositionRequest fans the request out to every administrator with a
// registered chat route, each with independent approve/reject controls
// tied to the same request id. The first resolution wins; stale buttons
// answer "already processed".
func (s *Service) NewPositionRequest(ctx context.Context, req *entity.PositionRequest) {
	s.publish("position_request_created", req)

	if s.messenger == nil {
		s.log.Warn("messenger not ready, dropping admin fan-out")
		return
	}

	admins, err := s.users.GetAdminsWithChat(ctx)
	if err != nil {
		s.log.Error("loading admins for fan-out", sl.Err(err))
		return
	}
	if len(admins) == 0 {
		s.log.Warn("no admins with chat route, request waits in dashboard",
			slog.String("request_id", req.ID))
		return
	}

	text := fmt.Sprintf(
		"📋 <b>Запит на нову посаду</b>\n\nНазва: <b>%s</b>\nВід: %s",
		req.Title, requesterLabel(req),
	)
	rows := [][]chat.InlineButton{{
		{Text: "✅ Затвердити", Data: chat.ApprovePositionCallback(req.ID)},
		{Text: "❌ Відхилити", Data: chat.RejectPositionCallback(req.ID)},
	}}

	for _, admin := range admins {
		if err := s.messenger.SendInlineGrid(admin.ChatID, text, rows); err != nil {
			s.log.Error("fan-out to admin",
				slog.String("admin_chat", admin.ChatID),
				sl.Err(err),
			)
		}
	}
}

// PositionRequestApproved tells the requester their position is now in
// the catalog.
func (s *Service) PositionRequestApproved(ctx context.Context, chatID, title string) {
	s.publish("position_request_approved", map[string]string{"title": title})
	s.send(chatID, "✅ Посаду <b>«"+title+"»</b> затверджено та додано до каталогу. Оберіть її у списку нижче.")
}

// PositionRequestRejected tells the requester the ask was declined,
// with the reason when one was supplied.
func (s *Service) PositionRequestRejected(ctx context.Context, chatID, title, reason string) {
	s.publish("position_request_rejected", map[string]string{"title": title, "reason": reason})

	text := "❌ Запит на посаду <b>«" + title + "»</b> відхилено."
	if reason != "" {
		text += "\nПричина: " + reason
	}
	text += "\nОберіть посаду зі списку нижче. Якщо жодна не підходить, зверніться до адміністратора."
	s.send(chatID, text)
}

// TicketCreated broadcasts a new ticket to the configured group.
func (s *Service) TicketCreated(ctx context.Context, t *entity.Ticket) {
	s.publish("ticket_created", t)
	s.send(s.groupTarget(ctx), fmt.Sprintf("🆕 Нова заявка №%d: <b>%s</b>", t.Number, t.Title))
}

// TicketClosed broadcasts closure to the group and asks the creator to
// rate the resolution.
func (s *Service) TicketClosed(ctx context.Context, t *entity.Ticket) {
	s.publish("ticket_closed", t)
	s.send(s.groupTarget(ctx), fmt.Sprintf("✅ Заявку №%d закрито: <b>%s</b>", t.Number, t.Title))

	if s.messenger == nil || t.CreatorChatID == "" {
		return
	}
	row := make([]chat.InlineButton, 0, 5)
	for rating := 1; rating <= 5; rating++ {
		row = append(row, chat.InlineButton{
			Text: strconv.Itoa(rating) + "⭐",
			Data: chat.RateCallback(t.ID, rating),
		})
	}
	text := fmt.Sprintf("Вашу заявку №%d закрито. Оцініть, будь ласка, якість вирішення:", t.Number)
	if err := s.messenger.SendInlineGrid(t.CreatorChatID, text, [][]chat.InlineButton{row}); err != nil {
		s.log.Error("sending rating request", sl.Err(err))
	}
}

// TicketStatusChanged tells the creator about a status transition, only
// when a chat route is known.
func (s *Service) TicketStatusChanged(ctx context.Context, t *entity.Ticket, oldStatus string) {
	s.publish("ticket_status_changed", t)
	if t.CreatorChatID == "" {
		s.log.Debug("ticket creator has no chat route", slog.String("ticket_id", t.ID))
		return
	}
	s.send(t.CreatorChatID, fmt.Sprintf(
		"ℹ️ Статус вашої заявки №%d змінено: %s → %s",
		t.Number, statusLabel(oldStatus), statusLabel(t.Status),
	))
}

// SLAAssigned sends the one-time notice when a ticket enters active
// work with a committed resolution budget. Requires both an SLA
// snapshot and a known chat route, otherwise no-ops.
func (s *Service) SLAAssigned(ctx context.Context, t *entity.Ticket) {
	if t.SLA == nil || t.CreatorChatID == "" {
		s.log.Debug("sla notice skipped",
			slog.String("ticket_id", t.ID),
			slog.Bool("has_sla", t.SLA != nil),
		)
		return
	}
	s.send(t.CreatorChatID, fmt.Sprintf(
		"⏱ Вашу заявку №%d взято в роботу.\nЧас вирішення: <b>%s</b>\nДедлайн: <b>%s</b>",
		t.Number, FormatHours(t.SLA.Hours), FormatDeadline(t.SLA.Deadline),
	))
}

// SLAWarning sends a deadline warning with the remaining time. The
// dispatcher is stateless: dedup per threshold crossing is the calling
// watcher's responsibility.
func (s *Service) SLAWarning(ctx context.Context, t *entity.Ticket, remainingHours float64) {
	if t.SLA == nil || t.CreatorChatID == "" {
		return
	}
	if remainingHours <= 0 {
		s.send(t.CreatorChatID, fmt.Sprintf(
			"🔴 Термін вирішення заявки №%d минув (дедлайн був %s).",
			t.Number, FormatDeadline(t.SLA.Deadline),
		))
		return
	}
	s.send(t.CreatorChatID, fmt.Sprintf(
		"⚠️ До дедлайну заявки №%d залишилося <b>%s</b> (до %s).",
		t.Number, FormatHours(remainingHours), FormatDeadline(t.SLA.Deadline),
	))
}

func statusLabel(status string) string {
	switch status {
	case entity.TicketNew:
		return "Нова"
	case entity.TicketInProgress:
		return "В роботі"
	case entity.TicketClosed:
		return "Закрита"
	}
	return status
}

func requesterLabel(req *entity.PositionRequest) string {
	if req.RequesterUsername != "" {
		return "@" + req.RequesterUsername
	}
	return "користувач " + req.RequesterChatID
}
