// internal/infra/telegram/client.go
package telegram

import (
	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements messaging.Client using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to a chat. Group chats have negative ids.
func (tba *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{DisableWebPagePreview: true}
	}

	_, err := tba.bot.Send(&telebot.Chat{ID: chatID}, text, options)
	return err
}
