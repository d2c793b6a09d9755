// Package poll runs the recurring check over all subscribers and decides
// when a changed schedule message is delivered.
package poll

import (
	"context"
	"fmt"
	"log/slog"

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

// Sender delivers a notification to one chat.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// Monitor handles the per-cycle change detection.
type Monitor struct {
	messages MessageSource
	store    Store
	sender   Sender
	logger   *slog.Logger
}

// New creates a new poll monitor.
func New(messages MessageSource, store Store, sender Sender, logger *slog.Logger) *Monitor {
	return &Monitor{
		messages: messages,
		store:    store,
		sender:   sender,
		logger:   logger,
	}
}

// CheckAll runs one poll cycle: load the full store, compute the current
// message for every configured group, and notify subscribers whose stored
// last message differs. One subscriber's failure never aborts the cycle.
func (m *Monitor) CheckAll(ctx context.Context) error {
	subs, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}

	m.logger.Info("Checking subscribers", "count", len(subs))

	// Every subscriber's message derives from the same fragment, so one
	// fetch per group per cycle is enough.
	cache := make(map[string]string)
	var checked, notified int

	for chatID, sub := range subs {
		select {
		case <-ctx.Done():
			m.logger.Info("Context cancelled, stopping poll cycle", "error", ctx.Err())
			return ctx.Err()
		default:
		}

		if sub.Group == "" {
			continue
		}
		checked++

		message, ok := cache[sub.Group]
		if !ok {
			message, err = m.messages.MessageForGroup(ctx, sub.Group)
			if err != nil {
				m.logger.Warn("Schedule check failed", "chat_id", chatID, "group", sub.Group, "error", err)
				// Continue with other subscribers despite errors
				continue
			}
			cache[sub.Group] = message
		}

		if message == sub.LastMessage {
			continue
		}

		if err := m.deliver(ctx, chatID, sub.Group, message); err != nil {
			m.logger.Warn("Delivery failed", "chat_id", chatID, "group", sub.Group, "error", err)
			continue
		}
		notified++
	}

	m.logger.Info("Poll cycle completed",
		"subscribers", len(subs),
		"checked", checked,
		"notified", notified)

	return nil
}

// deliver persists the new last message, then sends the notification. The
// persisted state is deliberately not rolled back when the send fails:
// retrying a possibly-delivered message risks duplicates, so delivery is
// at-most-once effective per content change.
func (m *Monitor) deliver(ctx context.Context, chatID, group, message string) error {
	err := m.store.Update(ctx, func(subs notifier.Subscribers) bool {
		sub, ok := subs[chatID]
		if !ok || sub.Group != group {
			// The subscriber reconfigured or vanished mid-cycle; the stale
			// result must not overwrite their fresh state.
			return false
		}
		sub.LastMessage = message
		return true
	})
	if err != nil {
		return fmt.Errorf("save subscribers: %w", err)
	}

	if err := m.sender.Send(ctx, chatID, message); err != nil {
		m.logger.Warn("Notify failed after state was persisted", "chat_id", chatID, "error", err)
		return nil
	}

	m.logger.Info("Update delivered", "chat_id", chatID, "group", group)
	return nil
}
