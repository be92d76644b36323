// Package bot wires Telegram updates into the workflow engine and the
// dispatch service. Every inbound event is funneled through a per-conversation
// queue so events for the same chat never interleave mid-step.
package bot

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"

	"RideDesk/bot/chat"
	"RideDesk/bot/chat/driver"
	"RideDesk/bot/chat/rider"
	"RideDesk/entity"
	"RideDesk/internal/lib/sl"
	"RideDesk/internal/service/dispatch"
)

const helpText = `🚕 <b>RideDesk</b>

/start — register as a driver
/status — show your driver status
/pin — set a new driver PIN (approved drivers)
/reset — delete your driver registration
/ride — request a ride
/help — this message`

// Repository defines the driver persistence operations used by commands.
type Repository interface {
	GetDriver(ctx context.Context, chatID string) (*entity.Driver, error)
	DeleteDriver(ctx context.Context, chatID string) error
}

// Dispatch handles accept actions and location relays outside workflows.
type Dispatch interface {
	HandleAccept(ctx context.Context, m chat.Messenger, driverChatID, callbackID, data string) error
	RelayLocation(ctx context.Context, m chat.Messenger, riderChatID string, loc chat.LocationInput) (bool, error)
}

// RideBot is the Telegram front of the dispatch system.
type RideBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	botUsername string
	engine      *chat.ChatEngine
	queue       *chat.KeyedQueue
	messenger   chat.Messenger
	repo        Repository
	dispatch    Dispatch
}

// NewRideBot creates a new bot instance.
func NewRideBot(botName, apiKey string, log *slog.Logger) (*RideBot, error) {
	bot := &RideBot{
		log:         log.With(sl.Module("ridebot")),
		botUsername: botName,
		queue:       chat.NewKeyedQueue(),
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	bot.api = api

	return bot, nil
}

// API exposes the underlying Telegram client for the messenger adapter.
func (b *RideBot) API() *tgbotapi.Bot {
	return b.api
}

func (b *RideBot) SetEngine(engine *chat.ChatEngine) {
	b.engine = engine
}

func (b *RideBot) SetMessenger(m chat.Messenger) {
	b.messenger = m
}

func (b *RideBot) SetRepository(repo Repository) {
	b.repo = repo
}

func (b *RideBot) SetDispatch(d Dispatch) {
	b.dispatch = d
}

// ResolveFileURL resolves a transient download URL for an inbound file.
func (b *RideBot) ResolveFileURL(fileID string) (string, error) {
	f, err := b.api.GetFile(fileID, nil)
	if err != nil {
		return "", fmt.Errorf("telegram get file: %w", err)
	}
	return f.URL(b.api, nil), nil
}

// PromptPin starts the PIN setup conversation for an approved driver.
func (b *RideBot) PromptPin(ctx context.Context, chatID string) error {
	var err error
	b.queue.Do(chatID, func() {
		_ = b.messenger.SendText(chatID, "🎉 You have been approved as a RideDesk driver!")
		err = b.engine.StartWorkflow(ctx, b.messenger, chatID, driver.PinWorkflowID)
	})
	return err
}

// Start begins polling for updates and handling them. Blocks.
func (b *RideBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(bot *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			log.Println("an error occurred while handling update:", err.Error())
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", b.command("start", b.handleStart)))
	dispatcher.AddHandler(handlers.NewCommand("status", b.command("status", b.handleStatus)))
	dispatcher.AddHandler(handlers.NewCommand("reset", b.command("reset", b.handleReset)))
	dispatcher.AddHandler(handlers.NewCommand("pin", b.command("pin", b.handlePin)))
	dispatcher.AddHandler(handlers.NewCommand("ride", b.command("ride", b.handleRide)))
	dispatcher.AddHandler(handlers.NewCommand("help", b.command("help", b.handleHelp)))

	dispatcher.AddHandler(handlers.NewCallback(func(cq *tgbotapi.CallbackQuery) bool { return true }, b.handleCallback))
	dispatcher.AddHandler(handlers.NewMessage(message.Contact, b.handleContact))
	dispatcher.AddHandler(handlers.NewMessage(message.Location, b.handleLocation))
	dispatcher.AddHandler(handlers.NewMessage(message.Photo, b.handlePhoto))
	dispatcher.AddHandler(handlers.NewMessage(message.Document, b.handleDocument))
	dispatcher.AddHandler(handlers.NewMessage(message.Text, b.handleText))

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

	b.log.Info("ride bot started", slog.String("username", b.botUsername))

	updater.Idle()

	return nil
}

func chatIDOf(ctx *ext.Context) string {
	return strconv.FormatInt(ctx.EffectiveChat.Id, 10)
}

// command wraps a command handler: the command must be the entire message and
// handling is serialized per conversation.
func (b *RideBot) command(name string, fn func(ctx context.Context, chatID string) error) handlers.Response {
	return func(bot *tgbotapi.Bot, ectx *ext.Context) error {
		if !b.isBareCommand(ectx.EffectiveMessage.Text, name) {
			return nil
		}
		chatID := chatIDOf(ectx)

		var err error
		b.queue.Do(chatID, func() {
			err = fn(context.Background(), chatID)
		})
		if err != nil {
			b.log.Error("command failed",
				slog.String("command", name),
				slog.String("chat_id", chatID),
				sl.Err(err),
			)
		}
		return err
	}
}

// isBareCommand reports whether text is exactly "/name" or "/name@bot".
func (b *RideBot) isBareCommand(text, name string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "/"+name || trimmed == "/"+name+"@"+b.botUsername
}

func (b *RideBot) handleStart(ctx context.Context, chatID string) error {
	return b.engine.StartWorkflow(ctx, b.messenger, chatID, driver.WorkflowID)
}

func (b *RideBot) handleRide(ctx context.Context, chatID string) error {
	return b.engine.StartWorkflow(ctx, b.messenger, chatID, rider.WorkflowID)
}

func (b *RideBot) handleStatus(ctx context.Context, chatID string) error {
	d, err := b.repo.GetDriver(ctx, chatID)
	if err != nil {
		return err
	}
	if d == nil {
		return b.messenger.SendText(chatID, "You are not registered as a driver. Send /start to begin.")
	}
	return b.messenger.SendText(chatID, driver.StatusText(d))
}

func (b *RideBot) handleReset(ctx context.Context, chatID string) error {
	b.engine.CancelWorkflow(chatID)
	if err := b.repo.DeleteDriver(ctx, chatID); err != nil {
		return err
	}
	return b.messenger.SendText(chatID, "Your registration has been removed. Send /start to register again.")
}

func (b *RideBot) handlePin(ctx context.Context, chatID string) error {
	d, err := b.repo.GetDriver(ctx, chatID)
	if err != nil {
		return err
	}
	if d == nil {
		return b.messenger.SendText(chatID, "You are not registered as a driver. Send /start to begin.")
	}
	if !d.IsApproved() {
		return b.messenger.SendText(chatID, "A PIN can only be set once your application is approved.")
	}
	return b.engine.StartWorkflow(ctx, b.messenger, chatID, driver.PinWorkflowID)
}

// commandMenu is the reply keyboard shown with the help text; tapping a
// button sends the command as a regular message.
var commandMenu = [][]chat.MenuButton{
	{{Text: "/ride"}, {Text: "/start"}},
	{{Text: "/status"}, {Text: "/help"}},
}

func (b *RideBot) handleHelp(ctx context.Context, chatID string) error {
	return b.messenger.SendMenu(chatID, helpText, commandMenu)
}

func (b *RideBot) handleText(bot *tgbotapi.Bot, ectx *ext.Context) error {
	chatID := chatIDOf(ectx)
	text := ectx.EffectiveMessage.Text
	if strings.HasPrefix(text, "/") {
		// Unknown or malformed command.
		return nil
	}

	var err error
	b.queue.Do(chatID, func() {
		var handled bool
		handled, err = b.engine.HandleText(context.Background(), b.messenger, chatID, text)
		if err == nil && !handled {
			err = b.messenger.SendText(chatID, "Not sure what you mean — send /help to see what I can do.")
		}
	})
	return err
}

func (b *RideBot) handleContact(bot *tgbotapi.Bot, ectx *ext.Context) error {
	chatID := chatIDOf(ectx)
	phone := ectx.EffectiveMessage.Contact.PhoneNumber

	var err error
	b.queue.Do(chatID, func() {
		_, err = b.engine.HandleContact(context.Background(), b.messenger, chatID, phone)
	})
	return err
}

func (b *RideBot) handleLocation(bot *tgbotapi.Bot, ectx *ext.Context) error {
	chatID := chatIDOf(ectx)
	loc := ectx.EffectiveMessage.Location
	input := chat.LocationInput{
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		LivePeriod: loc.LivePeriod,
	}

	var err error
	b.queue.Do(chatID, func() {
		var handled bool
		handled, err = b.engine.HandleLocation(context.Background(), b.messenger, chatID, input)
		if err != nil || handled {
			return
		}
		// No workflow waiting on it: relay to the assigned driver, if any.
		_, err = b.dispatch.RelayLocation(context.Background(), b.messenger, chatID, input)
	})
	return err
}

func (b *RideBot) handlePhoto(bot *tgbotapi.Bot, ectx *ext.Context) error {
	photos := ectx.EffectiveMessage.Photo
	if len(photos) == 0 {
		return nil
	}
	best := photos[len(photos)-1]
	file := chat.FileInput{
		FileID:   best.FileId,
		MIMEType: "image/jpeg",
		Size:     best.FileSize,
		IsPhoto:  true,
	}
	return b.handleFile(chatIDOf(ectx), file)
}

func (b *RideBot) handleDocument(bot *tgbotapi.Bot, ectx *ext.Context) error {
	doc := ectx.EffectiveMessage.Document
	file := chat.FileInput{
		FileID:   doc.FileId,
		FileName: doc.FileName,
		MIMEType: doc.MimeType,
		Size:     doc.FileSize,
	}
	return b.handleFile(chatIDOf(ectx), file)
}

func (b *RideBot) handleFile(chatID string, file chat.FileInput) error {
	var err error
	b.queue.Do(chatID, func() {
		var handled bool
		handled, err = b.engine.HandleFile(context.Background(), b.messenger, chatID, file)
		if err == nil && !handled {
			err = b.messenger.SendText(chatID, "I wasn't expecting a file — send /start to begin driver onboarding.")
		}
	})
	return err
}

func (b *RideBot) handleCallback(bot *tgbotapi.Bot, ectx *ext.Context) error {
	cq := ectx.CallbackQuery
	chatID := chatIDOf(ectx)

	var err error
	b.queue.Do(chatID, func() {
		if strings.HasPrefix(cq.Data, dispatch.AcceptPrefix) {
			err = b.dispatch.HandleAccept(context.Background(), b.messenger, chatID, cq.Id, cq.Data)
			return
		}
		var handled bool
		handled, err = b.engine.HandleCallback(context.Background(), b.messenger, chatID, cq.Id, cq.Data)
		if err == nil && !handled {
			err = b.messenger.AnswerCallback(cq.Id, "")
		}
	})
	if err != nil {
		b.log.Error("callback failed",
			slog.String("chat_id", chatID),
			slog.String("data", cq.Data),
			sl.Err(err),
		)
	}
	return err
}
