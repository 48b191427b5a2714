package services

import (
	"context"
	"log/slog"

	"github.com/AppleZ1995/CalendarAssistant/internal/amqp"
	"github.com/AppleZ1995/CalendarAssistant/internal/core"
)

// ChangePublisher announces committed mutations to other processes.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// notifier publishes change messages after the store has committed. A
// failed publish is logged and swallowed since the row already exists.
type notifier struct {
	publisher ChangePublisher
}

func (n notifier) notify(ctx context.Context, entity core.Entity, op core.Op, id int64) {
	if n.publisher == nil {
		slog.DebugContext(ctx, "No change publisher configured, skipping change message",
			"entity", entity, "op", op, "id", id)
		return
	}

	if err := n.publisher.PublishChange(ctx, amqp.NewChangeMessage(entity, op, id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"entity", entity,
			"op", op,
			"id", id,
			"error", err)
	}
}
