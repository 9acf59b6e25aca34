package messaging

import "gopkg.in/telebot.v3"

// Client sends text messages to a chat. It keeps application code independent
// of the bot library's transport.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
