package bot

import (
	"WeChat/internal/lib/sl"
	"context"
	"fmt"
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"log/slog"
	"strings"
	"time"
)

// TgBot delivers operator alerts to the admin chat.
type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	adminId int64
}

func NewTgBot(apiKey string, adminId int64, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:     log.With(sl.Module("tgbot")),
		adminId: adminId,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

// Start polls for updates until ctx is done. The only command is /start,
// which answers with the chat id to put into telegram.admin_id.
func (t *TgBot) Start(ctx context.Context) error {

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		// If an error is returned by a handler, log it and continue going.
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Warn("handling update", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	dispatcher.AddHandler(handlers.NewCommand("start", t.start))

	updater := ext.NewUpdater(dispatcher, nil)

	err := updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("start polling: %w", err)
	}

	<-ctx.Done()
	return updater.Stop()
}

func (t *TgBot) start(b *tgbotapi.Bot, ctx *ext.Context) error {
	_, err := ctx.EffectiveMessage.Reply(b, fmt.Sprintf("chat id: %d", ctx.EffectiveChat.Id), nil)
	return err
}

// SendMessage sends text to the admin chat, falling back to plain text when
// Telegram rejects the markup.
func (t *TgBot) SendMessage(msg string) error {
	if t.adminId == 0 {
		return fmt.Errorf("admin chat is not configured")
	}

	sanitized := sanitize(msg)
	if sanitized == "" {
		t.log.Debug("empty message")
		return nil
	}

	_, err := t.api.SendMessage(t.adminId, sanitized, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err == nil {
		return nil
	}
	t.log.With(
		slog.Int64("id", t.adminId),
	).Warn("sending message", sl.Err(err))

	_, err = t.api.SendMessage(t.adminId, msg, &tgbotapi.SendMessageOpts{})
	if err != nil {
		return fmt.Errorf("sending plain message: %w", err)
	}
	return nil
}

// sanitize escapes the characters MarkdownV2 reserves.
func sanitize(input string) string {
	const reserved = "\\`_*[]()~>#+-=|{}.!"

	var b strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reserved, char) {
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
