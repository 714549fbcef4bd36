package service

import (
	"context"
	"strings"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

// SendMessage posts a chat message on an order. The owning client and the
// assigned executor may write; any executor may ask about an available order.
func (m *Marketplace) SendMessage(ctx context.Context, orderID, senderID, text string) (*domain.Message, error) {
	if err := domain.ValidateMessageText(text); err != nil {
		return nil, err
	}

	m.mu.Lock()
	order, ok := m.orders[orderID]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrOrderNotFound
	}
	role, ok := m.participantRoleLocked(order, senderID)
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrNotPermitted
	}
	msg := m.appendMessageLocked(order, senderID, role, strings.TrimSpace(text))
	order.UpdatedAt = msg.Timestamp
	snap := m.commitLocked()
	out := msg.Clone()
	ev := domain.OrderEvent{
		Type:        domain.EventMessagePosted,
		OrderID:     order.ID,
		ClientID:    order.ClientID,
		ExecutorID:  order.AssignedExecutorID,
		ProjectType: order.ProjectType,
		Budget:      order.Budget,
		At:          msg.Timestamp,
	}
	m.mu.Unlock()

	m.log.Debug().Str("order_id", orderID).Str("sender_id", senderID).Msg("message posted")
	m.publish(ev)
	return out, m.persist(ctx, snap)
}

// participantRoleLocked resolves who userID is with respect to order.
func (m *Marketplace) participantRoleLocked(order *domain.Order, userID string) (domain.Role, bool) {
	if userID == order.ClientID {
		if _, ok := m.clients[userID]; ok {
			return domain.RoleClient, true
		}
		return "", false
	}
	if _, ok := m.executors[userID]; ok {
		if order.AssignedExecutorID == userID || order.IsAvailable() {
			return domain.RoleExecutor, true
		}
	}
	return "", false
}

// MarkRead marks every unread message not sent by readerID as read and
// returns how many changed.
func (m *Marketplace) MarkRead(ctx context.Context, orderID, readerID string) (int, error) {
	m.mu.Lock()
	order, ok := m.orders[orderID]
	if !ok {
		m.mu.Unlock()
		return 0, domain.ErrOrderNotFound
	}
	if _, ok := m.participantRoleLocked(order, readerID); !ok {
		m.mu.Unlock()
		return 0, domain.ErrNotPermitted
	}
	now := m.now()
	marked := 0
	for _, msg := range m.messages[orderID] {
		if msg.Read || msg.SenderID == readerID {
			continue
		}
		at := now
		msg.Read = true
		msg.ReadAt = &at
		marked++
	}
	if marked == 0 {
		m.mu.Unlock()
		return 0, nil
	}
	snap := m.commitLocked()
	m.mu.Unlock()

	return marked, m.persist(ctx, snap)
}

// UnreadCount counts messages on the order that readerID has not read yet.
func (m *Marketplace) UnreadCount(_ context.Context, orderID, readerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.orders[orderID]; !ok {
		return 0, domain.ErrOrderNotFound
	}
	n := 0
	for _, msg := range m.messages[orderID] {
		if !msg.Read && msg.SenderID != readerID {
			n++
		}
	}
	return n, nil
}

// MessagesForOrder returns the order's chat in timestamp order.
func (m *Marketplace) MessagesForOrder(_ context.Context, orderID string) ([]*domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.orders[orderID]; !ok {
		return nil, domain.ErrOrderNotFound
	}
	msgs := m.messages[orderID]
	out := make([]*domain.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Clone()
	}
	return out, nil
}
