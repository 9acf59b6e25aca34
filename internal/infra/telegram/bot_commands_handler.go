// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"family_schedule_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const handlerTimeout = 10 * time.Second

const (
	replyForwarded     = "グループに送信しました ✓"
	replyNoGroup       = "グループが未設定です。先にスケ助をグループに追加してください。"
	replyInternalError = "エラーが発生しました。しばらくしてからもう一度お試しください。"
)

// GroupAdmin is the part of app.AdminService the bot handlers use.
type GroupAdmin interface {
	RegisterGroup(ctx context.Context, chatID int64, now time.Time) (bool, error)
	AdminLink(ctx context.Context, performingUserID int64) (string, error)
	ForwardToGroup(ctx context.Context, text string) error
}

// BotHandlers answers commands and relays private messages to the family group.
type BotHandlers struct {
	admin     GroupAdmin
	dashboard string
	now       func() time.Time
	logger    *logrus.Entry
}

func NewBotHandlers(admin GroupAdmin, dashboardURL string, baseLogger *logrus.Entry) *BotHandlers {
	return &BotHandlers{
		admin:     admin,
		dashboard: dashboardURL,
		now:       time.Now,
		logger:    baseLogger.WithField("component", "bot"),
	}
}

// RegisterBotCommands wires the handlers into b.
func RegisterBotCommands(b *telebot.Bot, h *BotHandlers) {
	b.Use(h.GroupRegistration)

	b.Handle("/start", h.HandleStart)
	b.Handle("/help", h.HandleStart)
	b.Handle("/id", h.HandleID)
	b.Handle("/edit", h.HandleEdit)
	b.Handle(telebot.OnText, h.HandleText)
}

func isGroup(chat *telebot.Chat) bool {
	return chat != nil && (chat.Type == telebot.ChatGroup || chat.Type == telebot.ChatSuperGroup)
}

func isPrivate(chat *telebot.Chat) bool {
	return chat != nil && chat.Type == telebot.ChatPrivate
}

// GroupRegistration saves the first group the bot hears from as the family group.
func (h *BotHandlers) GroupRegistration(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if chat := c.Chat(); isGroup(chat) {
			ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
			created, err := h.admin.RegisterGroup(ctx, chat.ID, h.now())
			cancel()
			if err != nil {
				h.logger.WithError(err).WithField("chat_id", chat.ID).Error("Failed to register family group")
			} else if created {
				h.logger.WithField("chat_id", chat.ID).Info("Bot joined family group")
			}
		}
		return next(c)
	}
}

func (h *BotHandlers) HandleStart(c telebot.Context) error {
	logCtx := h.logger.WithFields(logrus.Fields{"command": "/start", "sender_id": senderID(c)})
	logCtx.Info("Processing /start command")

	var text strings.Builder
	text.WriteString("スケ助です。家族の週間予定とポイントを管理します。\n\n")
	text.WriteString("・予定の入力は管理ページから\n")
	text.WriteString("・このチャットに送ったメッセージはグループへ転送されます\n")
	text.WriteString("・/id でユーザーIDを確認できます")
	if h.dashboard != "" {
		text.WriteString("\n\n▼管理ページ\n")
		text.WriteString(h.dashboard)
	}
	return c.Send(text.String())
}

// HandleID replies with the sender's id, used to configure ADMIN_TELEGRAM_ID.
func (h *BotHandlers) HandleID(c telebot.Context) error {
	h.logger.WithFields(logrus.Fields{"command": "/id", "sender_id": senderID(c)}).Info("Processing /id command")
	return c.Send(fmt.Sprintf("あなたのユーザーID:\n%d", senderID(c)))
}

// HandleEdit replies with the admin dashboard link. Other users are ignored.
func (h *BotHandlers) HandleEdit(c telebot.Context) error {
	logCtx := h.logger.WithFields(logrus.Fields{"command": "/edit", "sender_id": senderID(c)})

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	link, err := h.admin.AdminLink(ctx, senderID(c))
	if err != nil {
		if errors.Is(err, app.ErrAdminNotAuthorized) {
			logCtx.Warn("Non-admin requested the admin link")
			return nil
		}
		logCtx.WithError(err).Error("Failed to build admin link")
		return c.Send(replyInternalError)
	}
	return c.Send(fmt.Sprintf("修正用リンクです：\n%s", link))
}

// HandleText covers plain text. "ID" and "修正" behave like /id and /edit; other
// private messages are forwarded to the family group, group chatter is ignored.
func (h *BotHandlers) HandleText(c telebot.Context) error {
	text := strings.TrimSpace(c.Text())
	switch text {
	case "ID":
		return h.HandleID(c)
	case "修正":
		return h.HandleEdit(c)
	}
	if !isPrivate(c.Chat()) || text == "" {
		return nil
	}

	logCtx := h.logger.WithFields(logrus.Fields{"handler": "forward", "sender_id": senderID(c)})
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	err := h.admin.ForwardToGroup(ctx, text)
	switch {
	case err == nil:
		logCtx.Info("Private message forwarded to group")
		return c.Send(replyForwarded)
	case errors.Is(err, app.ErrGroupNotConfigured):
		logCtx.Warn("Cannot forward, family group not configured")
		return c.Send(replyNoGroup)
	default:
		logCtx.WithError(err).Error("Failed to forward private message")
		return c.Send(replyInternalError)
	}
}

func senderID(c telebot.Context) int64 {
	if s := c.Sender(); s != nil {
		return s.ID
	}
	return 0
}
