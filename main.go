package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/Kultup/helpDesk-sub006/bot"
	"github.com/Kultup/helpDesk-sub006/bot/chat"
	"github.com/Kultup/helpDesk-sub006/bot/login"
	"github.com/Kultup/helpDesk-sub006/bot/session"
	"github.com/Kultup/helpDesk-sub006/bot/workflows/registration"
	"github.com/Kultup/helpDesk-sub006/internal/config"
	repository "github.com/Kultup/helpDesk-sub006/internal/database"
	"github.com/Kultup/helpDesk-sub006/internal/http-server/api"
	"github.com/Kultup/helpDesk-sub006/internal/lib/logger"
	"github.com/Kultup/helpDesk-sub006/internal/lib/sl"
	"github.com/Kultup/helpDesk-sub006/internal/service/account"
	"github.com/Kultup/helpDesk-sub006/internal/service/approval"
	"github.com/Kultup/helpDesk-sub006/internal/service/notify"
	"github.com/Kultup/helpDesk-sub006/internal/service/sla"
	"github.com/Kultup/helpDesk-sub006/internal/validation"
	"github.com/Kultup/helpDesk-sub006/internal/ws"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	lg.Info("starting helpdesk bot", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.Error("mongo client", sl.Err(err))
		return
	}
	if err = db.EnsureIndexes(context.Background()); err != nil {
		lg.Error("mongo indexes", sl.Err(err))
		return
	}
	lg.With(
		slog.String("host", conf.Mongo.Host),
		slog.String("port", conf.Mongo.Port),
		slog.String("database", conf.Mongo.Database),
	).Info("mongo client initialized")

	tgBot, err := bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, lg)
	if err != nil {
		lg.Error("telegram bot", sl.Err(err))
		return
	}
	messenger := tgBot.Messenger()

	engine := chat.NewEngine(chat.NewMongoStateStorage(db), lg)

	notifier := notify.New(conf, messenger, db, db, lg)

	approvals := approval.New(db, db, db, notifier, engine, messenger, registration.StepPosition, lg)

	gateway := account.NewGateway(conf, lg)
	checker := &validation.Checker{Users: db}
	engine.RegisterWorkflow(registration.New(db, checker, approvals, gateway, lg))

	loginFlow := login.New(session.NewMemoryStore(), gateway, lg)

	tgBot.SetEngine(engine)
	tgBot.SetLoginFlow(loginFlow)
	tgBot.SetApprovals(approvals)
	tgBot.SetTicketRater(db)

	go func() {
		if err := tgBot.Start(); err != nil {
			lg.Error("telegram bot error", sl.Err(err))
		}
	}()
	lg.With(
		slog.String("bot_name", conf.Telegram.BotName),
	).Info("telegram bot started")

	watcher := sla.NewWatcher(conf, db, notifier, lg)
	watcher.Start(context.Background())
	defer watcher.Stop()

	hub := ws.NewHub(lg)
	go hub.Run()
	notifier.SetEventPublisher(hub)

	// *** blocking start with http server ***
	err = api.New(conf, lg, notifier, hub)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
