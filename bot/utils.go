package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// answerCallbackQuery sends an answer to a callback query.
func (b *Bot) answerCallbackQuery(queryID string, text string) {
	callback := tgbotapi.NewCallback(queryID, text)
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Warn("failed to answer callback query", "query", queryID, "error", err)
	}
}

// reply answers the request's message.
func (b *Bot) reply(r *Request, text string) {
	msg := tgbotapi.NewMessage(r.ChatID, text)
	if r.Callback == nil && r.Message != nil {
		msg.ReplyToMessageID = r.Message.MessageID
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send reply", "chat", r.ChatID, "error", err)
	}
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Warn("failed to send message", "chat", chatID, "error", err)
	}
}

// editText replaces a message's text and drops its keyboard.
func (b *Bot) editText(chatID int64, messageID int, text string) {
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.logger.Warn("failed to edit message", "chat", chatID, "message", messageID, "error", err)
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	b.request(tgbotapi.NewDeleteMessage(chatID, messageID))
}

// request is for calls whose result is not a Message.
func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.api.Request(c); err != nil {
		b.logger.Warn("telegram request failed", "error", err)
	}
}
