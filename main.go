package main

import (
	"flag"
	"log/slog"
	"time"

	"RideDesk/bot"
	"RideDesk/bot/chat"
	"RideDesk/bot/chat/driver"
	"RideDesk/bot/chat/rider"
	"RideDesk/bot/chat/telegram"
	"RideDesk/impl/core"
	"RideDesk/internal/config"
	"RideDesk/internal/database"
	"RideDesk/internal/http-server/api"
	"RideDesk/internal/lib/logger"
	"RideDesk/internal/lib/sl"
	"RideDesk/internal/service/approval"
	"RideDesk/internal/service/dispatch"
	"RideDesk/internal/service/docs"
	"RideDesk/internal/ws"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	lg.Info("starting ridedesk", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	handler := core.New(lg)
	handler.SetFileSigner(conf.Files.SignSecret, time.Duration(conf.Files.TTLMinutes)*time.Minute)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		handler.SetRepository(db)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	hub := ws.NewHub(lg)
	go hub.Run()

	// Initialize Telegram bot if enabled
	var rideBot *bot.RideBot
	if conf.Telegram.Enabled && db != nil {
		rideBot, err = bot.NewRideBot(conf.Telegram.BotName, conf.Telegram.ApiKey, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
			rideBot = nil
		} else {
			messenger := telegram.NewMessenger(rideBot.API())
			engine := chat.NewChatEngine(chat.NewMemoryStore(), lg)

			pipeline := docs.NewPipeline(rideBot, db, db, lg)
			dispatchService := dispatch.NewService(db, hub, lg)

			engine.RegisterWorkflow(driver.NewOnboardingWorkflow(db, pipeline, lg))
			engine.RegisterWorkflow(driver.NewPinWorkflow(db, lg))
			engine.RegisterWorkflow(rider.NewTripWorkflow(db, dispatchService, lg))

			rideBot.SetEngine(engine)
			rideBot.SetMessenger(messenger)
			rideBot.SetRepository(db)
			rideBot.SetDispatch(dispatchService)

			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram bot initialized")

			go func() {
				if err := rideBot.Start(); err != nil {
					lg.Error("telegram bot error", sl.Err(err))
				}
			}()
		}
	}

	if db != nil {
		// Approval decisions apply even when the bot is down; the PIN prompt
		// is just skipped then.
		var prompter approval.PinPrompter
		if rideBot != nil {
			prompter = rideBot
		}
		handler.SetApprovalService(approval.NewService(db, prompter, lg))
	}

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler, hub)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
