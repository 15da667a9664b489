package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strconv"
	"time"

	"github.com/Kultup/helpDesk-sub006/bot/chat"
	"github.com/Kultup/helpDesk-sub006/bot/chat/telegram"
	"github.com/Kultup/helpDesk-sub006/bot/login"
	"github.com/Kultup/helpDesk-sub006/bot/workflows/registration"
	"github.com/Kultup/helpDesk-sub006/internal/lib/sl"
	"github.com/Kultup/helpDesk-sub006/internal/service/approval"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
)

// Approvals is the position request resolution surface used by the
// admin callback buttons.
type Approvals interface {
	Approve(ctx context.Context, requestID, adminChatID string) error
	Reject(ctx context.Context, requestID, adminChatID, reason string) error
}

// TicketRater stores ticket scores picked from the rating keyboard.
type TicketRater interface {
	SetTicketRating(ctx context.Context, ticketID string, rating int) error
}

// TgBot is the Telegram front of the helpdesk. It owns the update loop
// and routes every update to the registration engine, the login flow or
// the approval service.
type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	botUsername string
	messenger   *telegram.Messenger
	engine      *chat.Engine
	login       *login.Flow
	approvals   Approvals
	tickets     TicketRater
}

func NewTgBot(botName, apiKey string, log *slog.Logger) (*TgBot, error) {
	bot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		botUsername: botName,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	bot.api = api
	bot.messenger = telegram.NewMessenger(api)

	return bot, nil
}

// Messenger exposes the transport adapter so services can send
// messages outside the update loop.
func (b *TgBot) Messenger() *telegram.Messenger {
	return b.messenger
}

func (b *TgBot) SetEngine(engine *chat.Engine) {
	b.engine = engine
}

func (b *TgBot) SetLoginFlow(flow *login.Flow) {
	b.login = flow
}

func (b *TgBot) SetApprovals(approvals Approvals) {
	b.approvals = approvals
}

func (b *TgBot) SetTicketRater(tickets TicketRater) {
	b.tickets = tickets
}

// Start begins polling for updates and handling them. Blocks.
func (b *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(bot *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			log.Println("an error occurred while handling update:", err.Error())
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", b.handleStart))
	dispatcher.AddHandler(handlers.NewCommand("login", b.handleLogin))
	dispatcher.AddHandler(handlers.NewCallback(nil, b.handleCallback))
	dispatcher.AddHandler(handlers.NewMessage(message.Contact, b.handleContact))
	dispatcher.AddHandler(handlers.NewMessage(message.Text, b.handleMessage))

	err := updater.StartPolling(b.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	b.log.Info("bot started", slog.String("username", b.botUsername))

	updater.Idle()

	return nil
}

func chatIDOf(ctx *ext.Context) string {
	return strconv.FormatInt(ctx.EffectiveChat.Id, 10)
}

func usernameOf(ctx *ext.Context) string {
	if ctx.EffectiveUser == nil {
		return ""
	}
	if ctx.EffectiveUser.Username != "" {
		return ctx.EffectiveUser.Username
	}
	return ctx.EffectiveUser.FirstName
}

// handleStart begins or resumes the registration workflow.
func (b *TgBot) handleStart(bot *tgbotapi.Bot, ctx *ext.Context) error {
	if b.engine == nil {
		b.log.Warn("engine not initialized")
		return nil
	}

	chatID := chatIDOf(ctx)
	// a /start abandons any half-typed login
	if b.login != nil {
		_ = b.login.Cancel(b.messenger, chatID)
	}

	err := b.engine.StartWorkflow(context.Background(), b.messenger, chatID, usernameOf(ctx), registration.WorkflowID)
	if err != nil {
		b.log.Error("start workflow", slog.String("chat_id", chatID), sl.Err(err))
	}
	return err
}

func (b *TgBot) handleLogin(bot *tgbotapi.Bot, ctx *ext.Context) error {
	if b.login == nil {
		return nil
	}
	return b.login.Start(context.Background(), b.messenger, chatIDOf(ctx), usernameOf(ctx))
}

// handleCallback decodes the payload once and routes by action. Every
// query is answered so the client's spinner always stops.
func (b *TgBot) handleCallback(bot *tgbotapi.Bot, ctx *ext.Context) error {
	chatID := chatIDOf(ctx)
	data := ctx.CallbackQuery.Data
	callbackID := ctx.CallbackQuery.Id

	cb := chat.ParseCallback(data)

	switch cb.Action {
	case chat.ActionApproveRequest:
		err := b.approvals.Approve(context.Background(), cb.ID, chatID)
		return b.answerResolution(callbackID, chatID, "Запит затверджено ✅", err)

	case chat.ActionRejectRequest:
		err := b.approvals.Reject(context.Background(), cb.ID, chatID, "")
		return b.answerResolution(callbackID, chatID, "Запит відхилено ❌", err)

	case chat.ActionRateTicket:
		if b.tickets == nil {
			return b.messenger.AnswerCallback(callbackID, "")
		}
		if err := b.tickets.SetTicketRating(context.Background(), cb.ID, cb.Rating); err != nil {
			b.log.Error("set ticket rating",
				slog.String("ticket_id", cb.ID), sl.Err(err))
			return b.messenger.AnswerCallback(callbackID, "Не вдалося зберегти оцінку")
		}
		return b.messenger.AnswerCallback(callbackID, "Дякуємо за оцінку!")

	case chat.ActionCancelLogin:
		if b.login != nil {
			_ = b.login.Cancel(b.messenger, chatID)
		}
		return b.messenger.AnswerCallback(callbackID, "")

	case chat.ActionUnknown:
		// stale or foreign payload, acknowledge and drop
		b.log.Debug("unknown callback", slog.String("data", data))
		return b.messenger.AnswerCallback(callbackID, "")
	}

	// everything else belongs to the registration workflow
	if b.engine == nil {
		return b.messenger.AnswerCallback(callbackID, "")
	}
	if err := b.engine.HandleCallback(context.Background(), b.messenger, chatID, data); err != nil {
		b.log.Error("workflow callback",
			slog.String("chat_id", chatID), slog.String("data", data), sl.Err(err))
	}
	return b.messenger.AnswerCallback(callbackID, "")
}

// answerResolution maps approval outcomes onto short callback answers.
func (b *TgBot) answerResolution(callbackID, chatID, okText string, err error) error {
	switch {
	case err == nil:
		return b.messenger.AnswerCallback(callbackID, okText)
	case errors.Is(err, approval.ErrAlreadyProcessed):
		return b.messenger.AnswerCallback(callbackID, "Запит вже опрацьовано")
	case errors.Is(err, approval.ErrNotAuthorized):
		return b.messenger.AnswerCallback(callbackID, "Недостатньо прав")
	case errors.Is(err, approval.ErrNotFound):
		return b.messenger.AnswerCallback(callbackID, "Запит не знайдено")
	default:
		b.log.Error("resolve position request",
			slog.String("chat_id", chatID), sl.Err(err))
		return b.messenger.AnswerCallback(callbackID, "Сервіс тимчасово недоступний")
	}
}

func (b *TgBot) handleContact(bot *tgbotapi.Bot, ctx *ext.Context) error {
	if b.engine == nil {
		return nil
	}

	chatID := chatIDOf(ctx)
	phone := ctx.EffectiveMessage.Contact.PhoneNumber

	err := b.engine.HandleContact(context.Background(), b.messenger, chatID, phone)
	if err != nil {
		b.log.Error("workflow contact", slog.String("chat_id", chatID), sl.Err(err))
	}
	return err
}

// handleMessage routes typed text: an active login session captures it
// before the registration engine sees anything.
func (b *TgBot) handleMessage(bot *tgbotapi.Bot, ctx *ext.Context) error {
	chatID := chatIDOf(ctx)
	text := ctx.EffectiveMessage.Text

	if b.login != nil {
		handled, err := b.login.HandleText(context.Background(), b.messenger, chatID, text)
		if err != nil {
			b.log.Error("login text", slog.String("chat_id", chatID), sl.Err(err))
			return err
		}
		if handled {
			return nil
		}
	}

	if b.engine == nil {
		return nil
	}

	err := b.engine.HandleText(context.Background(), b.messenger, chatID, text)
	if err != nil {
		b.log.Error("workflow text", slog.String("chat_id", chatID), sl.Err(err))
	}
	return err
}
