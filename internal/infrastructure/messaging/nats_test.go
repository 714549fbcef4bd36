package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.err
}

func TestPublisher_Subjects(t *testing.T) {
	p := newPublisher(&fakeConn{}, "")
	assert.Equal(t, "marketplace.orders.created", p.Subject(domain.EventOrderCreated))
	assert.Equal(t, "marketplace.orders.status_changed", p.Subject(domain.EventStatusChanged))

	custom := newPublisher(&fakeConn{}, "acme.events.")
	assert.Equal(t, "acme.events.withdrawn", custom.Subject(domain.EventOrderWithdrawn))
}

func TestPublisher_HandleEncodesEvent(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "")
	ev := domain.OrderEvent{
		Type: domain.EventStatusChanged, OrderID: "o1", ClientID: "c1", ExecutorID: "alexander",
		From: domain.StatusInProgress, To: domain.StatusReview, Budget: 1500,
		At: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.Handle(context.Background(), ev))
	assert.Equal(t, "marketplace.orders.status_changed", fc.subject)

	var got domain.OrderEvent
	require.NoError(t, json.Unmarshal(fc.data, &got))
	assert.Equal(t, ev.OrderID, got.OrderID)
	assert.Equal(t, domain.StatusReview, got.To)
	assert.True(t, ev.At.Equal(got.At))
}

func TestPublisher_HandleErrors(t *testing.T) {
	fc := &fakeConn{err: errors.New("connection closed")}
	p := newPublisher(fc, "")
	err := p.Handle(context.Background(), domain.OrderEvent{Type: domain.EventOrderCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marketplace.orders.created")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fc.subject = ""
	assert.ErrorIs(t, p.Handle(ctx, domain.OrderEvent{Type: domain.EventOrderCreated}), context.Canceled)
	assert.Empty(t, fc.subject)
}
