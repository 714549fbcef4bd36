// Package messaging forwards order lifecycle events to NATS subjects.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const defaultSubjectPrefix = "marketplace.orders"

// Config holds NATS connection settings.
type Config struct {
	URL           string
	Name          string
	SubjectPrefix string
}

// Connect dials NATS with reconnect settings suitable for a long running service.
func Connect(cfg Config) (*nats.Conn, error) {
	name := cfg.Name
	if name == "" {
		name = "order-marketplace"
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher publishes every event as JSON on <prefix>.<event suffix>,
// e.g. marketplace.orders.created.
type Publisher struct {
	nc     conn
	prefix string
}

var _ ports.EventHandler = (*Publisher)(nil)

// NewPublisher wraps an established connection. An empty prefix selects
// marketplace.orders.
func NewPublisher(nc *nats.Conn, prefix string) *Publisher {
	return newPublisher(nc, prefix)
}

func newPublisher(nc conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	return &Publisher{nc: nc, prefix: strings.TrimSuffix(prefix, ".")}
}

// Handle implements ports.EventHandler.
func (p *Publisher) Handle(ctx context.Context, event domain.OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := p.Subject(event.Type)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subject returns the subject an event type is published on.
func (p *Publisher) Subject(t domain.OrderEventType) string {
	return p.prefix + "." + strings.TrimPrefix(string(t), "order.")
}
