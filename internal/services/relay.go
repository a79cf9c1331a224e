package services

import (
	"context"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/store"
)

// EventPublisher sends change events to the message broker.
type EventPublisher interface {
	PublishExpenseChanged(ctx context.Context, msg *amqp.ExpenseChangedMessage) error
}

// RelayChanges forwards every change published on n to pub. Broker errors
// are logged and dropped. The returned function stops relaying.
func RelayChanges(ctx context.Context, n *store.Notifier, pub EventPublisher) func() {
	return n.Subscribe(func(c store.Change) {
		msg := amqp.NewExpenseChangedMessage(c.ExpenseID, c.Op, c.At)
		if err := pub.PublishExpenseChanged(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense change",
				"id", c.ExpenseID,
				"op", c.Op,
				"error", err)
		}
	})
}
