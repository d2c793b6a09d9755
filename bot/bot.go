// Package bot is the Telegram transport: it handles subscriber commands over
// long polling and delivers the watcher's notifications.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"loe-notifier/pkg/notifier"
)

// MessageSource computes the current notification text for a group.
type MessageSource interface {
	MessageForGroup(ctx context.Context, group string) (string, error)
}

// Store interface for subscriber persistence.
type Store interface {
	Load(ctx context.Context) (notifier.Subscribers, error)
	Update(ctx context.Context, fn func(notifier.Subscribers) bool) error
}

// Bot handles Telegram commands and outbound notifications.
type Bot struct {
	api      *tgbotapi.BotAPI
	store    Store
	messages MessageSource
	logger   *slog.Logger
}

// New creates a Bot authenticated with the given token.
func New(token string, store Store, messages MessageSource, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", "username", api.Self.UserName)

	return &Bot{
		api:      api,
		store:    store,
		messages: messages,
		logger:   logger,
	}, nil
}

// Send delivers a notification to one chat. It implements the watcher's
// notification sink.
func (b *Bot) Send(_ context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse chat id %q: %w", chatID, err)
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(id, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	b.logger.Info("Listening for Telegram updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Stopped listening for Telegram updates")
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	command := msg.Command()

	b.logger.Info("Command received", "chat_id", chatID, "command", command)

	var err error
	switch command {
	case "start":
		err = b.handleStart(ctx, msg)
	case "setup":
		err = b.handleSetup(ctx, msg)
	case "status":
		err = b.handleStatus(ctx, msg)
	case "check":
		err = b.handleCheck(ctx, msg)
	default:
		err = b.reply(msg, "Невідома команда. Доступні: /start, /setup, /status, /check")
	}

	if err != nil {
		b.logger.Warn("Command handling failed", "chat_id", chatID, "command", command, "error", err)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	err := b.store.Update(ctx, func(subs notifier.Subscribers) bool {
		if _, ok := subs[chatID]; ok {
			return false
		}
		subs[chatID] = &notifier.Subscriber{}
		return true
	})
	if err != nil {
		return fmt.Errorf("register subscriber: %w", err)
	}

	return b.reply(msg,
		"Привіт! Я бот, який стежить за оновленнями графіків відключень ⚡\n\n"+
			"Налаштуй свою групу командою, наприклад:\n"+
			"/setup 3.1\n\n"+
			"Перевірити поточний збережений стан: /status")
}

func (b *Bot) handleSetup(ctx context.Context, msg *tgbotapi.Message) error {
	group := strings.TrimSpace(msg.CommandArguments())
	if group == "" {
		return b.reply(msg, "Вкажи номер групи.\nПриклад:\n/setup 3.1")
	}
	if fields := strings.Fields(group); len(fields) > 0 {
		group = fields[0]
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	// Resetting the group clears the last message so the next poll cycle
	// definitely delivers.
	err := b.store.Update(ctx, func(subs notifier.Subscribers) bool {
		sub, ok := subs[chatID]
		if !ok {
			sub = &notifier.Subscriber{}
			subs[chatID] = sub
		}
		sub.Group = group
		sub.LastMessage = ""
		return true
	})
	if err != nil {
		return fmt.Errorf("save group: %w", err)
	}

	return b.reply(msg, fmt.Sprintf(
		"Групу збережено: %s\nЯ повідомлю, коли з'явиться або зміниться графік для цієї групи.", group))
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	subs, err := b.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}

	sub, ok := subs[chatID]
	if !ok || sub.Group == "" {
		return b.reply(msg, "Група ще не налаштована. Використай /setup, наприклад:\n/setup 3.1")
	}

	return b.reply(msg, statusText(sub))
}

// handleCheck fetches the schedule on demand. The fetched message is
// persisted as the subscriber's last message before replying, so the next
// scheduled cycle does not re-notify content the subscriber already saw.
func (b *Bot) handleCheck(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	subs, err := b.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}

	sub, ok := subs[chatID]
	if !ok || sub.Group == "" {
		return b.reply(msg, "Група ще не налаштована. Використай /setup, наприклад:\n/setup 3.1")
	}
	group := sub.Group

	message, err := b.messages.MessageForGroup(ctx, group)
	if err != nil {
		b.logger.Warn("On-demand check failed", "chat_id", chatID, "group", group, "error", err)
		// Persisted state is untouched on failure.
		return b.reply(msg, "Не вдалося отримати графік. Спробуй ще раз пізніше.")
	}

	err = b.store.Update(ctx, func(subs notifier.Subscribers) bool {
		cur, ok := subs[chatID]
		if !ok || cur.Group != group || cur.LastMessage == message {
			return false
		}
		cur.LastMessage = message
		return true
	})
	if err != nil {
		return fmt.Errorf("save last message: %w", err)
	}

	return b.reply(msg, message)
}

// statusText formats the /status reply for a configured subscriber.
func statusText(sub *notifier.Subscriber) string {
	text := "Твоя група: " + sub.Group + "\n"
	if sub.LastMessage != "" {
		text += "\nОстаннє збережене повідомлення:\n\n" + sub.LastMessage
	} else {
		text += "\nПовідомлень ще немає — чекатиму оновлення графіка."
	}
	return text
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) error {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	if _, err := b.api.Send(reply); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}
