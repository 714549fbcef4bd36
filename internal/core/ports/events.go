package ports

import (
	"context"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

// EventPublisher receives lifecycle events after a command commits.
// Publish must not block the caller for long.
type EventPublisher interface {
	Publish(event domain.OrderEvent)
}

// EventHandler consumes lifecycle events off the dispatcher.
type EventHandler interface {
	Handle(ctx context.Context, event domain.OrderEvent) error
}
