package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-subscription-shop/internal/application"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes maps slash commands to handlers; anything else goes to the menu as text.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start": r.menuCommand("/start"),
		"menu":  r.menuCommand(application.CallbackMenu),
		"help":  r.menuCommand("/help"),
		"hello": r.menuCommand("/hello"),
	}
}

func (r *RealTelegramBotAdapter) menuCommand(text string) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		return r.respond(ctx, message.Chat.ID, application.MenuRequest{
			Message:  text,
			UserID:   message.From.ID,
			UserName: message.From.UserName,
		})
	}
}
