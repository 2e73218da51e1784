package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iabalyuk/gorzdravbot/buttons"
	"github.com/iabalyuk/gorzdravbot/gorzdrav"
	"github.com/iabalyuk/gorzdravbot/logging"
	"github.com/iabalyuk/gorzdravbot/metrics"
	"github.com/iabalyuk/gorzdravbot/session"
	"github.com/iabalyuk/gorzdravbot/storage"
)

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Scheduling is the part of the scheduling client the selection flow uses.
type Scheduling interface {
	ListFacilities(ctx context.Context, districtID string) ([]gorzdrav.Facility, error)
	GetFacility(ctx context.Context, facilityID int) (*gorzdrav.Facility, error)
	ListSpecialties(ctx context.Context, facilityID int) ([]gorzdrav.Specialty, error)
	ListDoctors(ctx context.Context, facilityID int, specialtyID string) ([]gorzdrav.DoctorInfo, error)
	GetDoctor(ctx context.Context, facilityID int, specialtyID, doctorID string) (*gorzdrav.Doctor, error)
}

// DistrictSource provides the district list, usually from a cache.
type DistrictSource interface {
	Districts(ctx context.Context) ([]gorzdrav.District, error)
}

// Bot represents the Telegram side of the doctor watcher
type Bot struct {
	api       API
	client    Scheduling
	districts DistrictSource
	storage   storage.StorageInterface
	sessions  *session.Store
	buttons   *buttons.Service
	metrics   *metrics.Metrics
	logger    *logging.Logger

	commands  map[string]HandlerFunc
	callbacks map[string]HandlerFunc
	onWindow  HandlerFunc
	onLink    HandlerFunc
	onText    HandlerFunc
	onUnknown HandlerFunc
	onPage    HandlerFunc
}

// Config holds the bot's collaborators.
type Config struct {
	API       API
	Client    Scheduling
	Districts DistrictSource
	Storage   storage.StorageInterface
	Sessions  *session.Store
	Buttons   *buttons.Service
	Metrics   *metrics.Metrics
	Logger    *logging.Logger
}

// New creates a new bot instance
func New(cfg Config) *Bot {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	b := &Bot{
		api:       cfg.API,
		client:    cfg.Client,
		districts: cfg.Districts,
		storage:   cfg.Storage,
		sessions:  cfg.Sessions,
		buttons:   cfg.Buttons,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With("component", "bot"),
	}
	b.registerRoutes()
	return b
}

// Start long-polls updates and handles them one at a time until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("updates channel closed")
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	r, h, kind := b.route(update)
	if h == nil {
		return
	}
	b.metrics.ObserveUpdate(kind)

	if err := h(ctx, r); err != nil {
		b.logger.Error("handler failed", "user", r.UserID, "kind", kind, "error", err)
	}
	if r.Callback != nil {
		b.answerCallbackQuery(r.Callback.ID, r.answer)
	}
}

func (b *Bot) route(update tgbotapi.Update) (*Request, HandlerFunc, string) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		m := update.Message
		r := &Request{UserID: m.From.ID, ChatID: m.Chat.ID, Message: m, Text: strings.TrimSpace(m.Text)}

		if dayWindowRe.MatchString(r.Text) {
			return r, b.onWindow, "command"
		}
		if m.IsCommand() {
			if h, ok := b.commands[m.Command()]; ok {
				return r, h, "command"
			}
			return r, b.onUnknown, "command"
		}
		if looksLikeLink(r.Text) {
			return r, b.onLink, "link"
		}
		return r, b.onText, "text"

	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		q := update.CallbackQuery
		r := &Request{UserID: q.From.ID, ChatID: q.Message.Chat.ID, Message: q.Message, Callback: q, Text: q.Data}

		prefix, _, _ := strings.Cut(q.Data, "/")
		if h, ok := b.callbacks[prefix]; ok {
			return r, h, "callback"
		}
		if _, _, ok := buttons.ParsePageAction(q.Data); ok {
			return r, b.onPage, "callback"
		}
		b.logger.Debug("unknown callback", "data", q.Data)
		return r, ignore, "callback"
	}
	return nil, nil, ""
}

// Notify sends an availability notification. It implements worker.Notifier.
func (b *Bot) Notify(_ context.Context, userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification to %d: %w", userID, err)
	}
	return nil
}
