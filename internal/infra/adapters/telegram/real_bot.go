package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-subscription-shop/internal/application"
	"telegram-subscription-shop/internal/config"
	"telegram-subscription-shop/internal/domain/ports/adapter"
	"telegram-subscription-shop/internal/infra/i18n"
	"telegram-subscription-shop/internal/infra/logging"
	"telegram-subscription-shop/internal/infra/metrics"
	red "telegram-subscription-shop/internal/infra/redis"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// botAPI is the subset of *tgbotapi.BotAPI the adapter calls.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// MenuResponder produces the screen for a message or button press.
type MenuResponder interface {
	Respond(ctx context.Context, req application.MenuRequest) (application.MenuResponse, error)
	PurchaseFailedText() string
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RealTelegramBotAdapter long-polls Telegram and renders facade responses.
type RealTelegramBotAdapter struct {
	api         botAPI
	cfg         *config.BotConfig
	facade      MenuResponder
	rateLimiter Limiter
	translator  *i18n.Translator
	log         *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, facade MenuResponder, rateLimiter Limiter, translator *i18n.Translator, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return newAdapter(bot, cfg, facade, rateLimiter, translator, logger)
}

func newAdapter(api botAPI, cfg *config.BotConfig, facade MenuResponder, rateLimiter Limiter, translator *i18n.Translator, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if translator == nil {
		return nil, errors.New("translator is nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	l := logger.With().Str("component", "telegram").Logger()
	return &RealTelegramBotAdapter{
		api:           api,
		cfg:           cfg,
		facade:        facade,
		rateLimiter:   rateLimiter,
		translator:    translator,
		log:           &l,
		updateWorkers: workers,
	}, nil
}

// StartPolling blocks until ctx is cancelled, fanning updates out to workers.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel
	defer cancel()

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for up := range updateChan {
				if err := r.handleUpdate(ctx, up); err != nil {
					r.log.Error().Err(err).Int("worker", id).Int("update_id", up.UpdateID).Msg("update handling failed")
				}
			}
		}(i)
	}

	defer func() {
		r.api.StopReceivingUpdates()
		close(updateChan)
		wg.Wait()
	}()
	r.log.Info().Int("workers", r.updateWorkers).Msg("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			select {
			case updateChan <- up:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// SendMessage sends an HTML-formatted text message.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	return r.SendButtons(ctx, chatID, text, nil)
}

// SendButtons sends an HTML message with an inline keyboard.
// A button with URL opens a link, otherwise it sends Data (or its text) as callback data.
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if kb := buildKeyboard(rows); kb != nil {
		msg.ReplyMarkup = *kb
	}
	_, err := r.api.Send(msg)
	return err
}

// sendPhoto sends photoURL with text as an HTML caption, falling back to a text message.
func (r *RealTelegramBotAdapter) sendPhoto(ctx context.Context, chatID int64, photoURL, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	photo.Caption = text
	photo.ParseMode = tgbotapi.ModeHTML
	if kb := buildKeyboard(rows); kb != nil {
		photo.ReplyMarkup = *kb
	}
	if _, err := r.api.Send(photo); err != nil {
		r.log.Warn().Err(err).Int64("chat_id", chatID).Msg("photo send failed; falling back to text")
		return r.SendButtons(ctx, chatID, text, rows)
	}
	return nil
}

func buildKeyboard(rows [][]adapter.InlineButton) *tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kr := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			}
			// buttons with neither URL nor data do nothing and are dropped
		}
		if len(kr) == 0 {
			continue
		}
		kbRows = append(kbRows, kr)
	}
	if len(kbRows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	return &markup
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}
	return r.handleMessage(ctx, update.Message)
}

func (r *RealTelegramBotAdapter) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	ctx = logging.WithTgID(ctx, message.From.ID)
	command := "message"
	if message.IsCommand() {
		command = "/" + message.Command()
	}
	if !r.allow(ctx, message.From.ID, message.Chat.ID, command) {
		return nil
	}

	if message.IsCommand() {
		if handler, ok := r.commandRoutes()[message.Command()]; ok {
			metrics.IncTelegramUpdate("command", message.Command())
			return handler(ctx, message)
		}
	}
	metrics.IncTelegramUpdate("message", "text")
	return r.respond(ctx, message.Chat.ID, application.MenuRequest{
		Message:  message.Text,
		UserID:   message.From.ID,
		UserName: message.From.UserName,
	})
}

// allow applies the per-user rate limit. Limiter errors let the update through.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, userID, chatID int64, command string) bool {
	if r.rateLimiter == nil || r.cfg.RateLimit <= 0 {
		return true
	}
	allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(userID, command), r.cfg.RateLimit, time.Minute)
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !allowed {
		metrics.IncRateLimitTriggered()
		_ = r.SendMessage(ctx, chatID, r.translator.T("rate_limited"))
	}
	return allowed
}

// respond asks the facade for the next screen and renders it.
func (r *RealTelegramBotAdapter) respond(ctx context.Context, chatID int64, req application.MenuRequest) error {
	log := logging.With(ctx, r.log)
	resp, err := r.facade.Respond(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("message", req.Message).Msg("menu response failed")
		return r.SendMessage(ctx, chatID, r.facade.PurchaseFailedText())
	}
	if resp.Order != nil {
		log.Info().Str("inv_id", resp.Order.InvoiceID).Str("offer", resp.Order.Offer.ID).Msg("payment link sent")
	}
	if resp.PhotoURL != "" {
		return r.sendPhoto(ctx, chatID, resp.PhotoURL, resp.Text, resp.Keyboard)
	}
	return r.SendButtons(ctx, chatID, resp.Text, resp.Keyboard)
}
