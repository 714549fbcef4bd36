package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const orderCreatedText = "Order created. Awaiting an executor."

// CreateOrder places an order for an existing client. If an idempotency key is
// provided and already seen for this client, the previously created order is
// returned without side effects. Concurrent calls with the same key create at
// most one order.
func (m *Marketplace) CreateOrder(ctx context.Context, clientID string, in ports.CreateOrderInput) (*ports.CreateOrderResult, error) {
	if in.IdempotencyKey == "" || m.idem == nil {
		return m.createOrder(ctx, clientID, in.Draft, "")
	}

	idemKey := clientID + ":" + in.IdempotencyKey
	ran := false
	v, err, _ := m.creating.Do(idemKey, func() (any, error) {
		ran = true
		if existing := m.replayOrder(ctx, idemKey, clientID); existing != nil {
			m.log.Info().Str("idempotency_key", in.IdempotencyKey).Str("order_id", existing.ID).Msg("idempotent replay")
			return &ports.CreateOrderResult{Order: existing, AlreadyExisted: true}, nil
		}
		return m.createOrder(ctx, clientID, in.Draft, idemKey)
	})
	res, _ := v.(*ports.CreateOrderResult)
	if ran || res == nil {
		return res, err
	}
	// another call with this key created the order while we waited
	return &ports.CreateOrderResult{Order: res.Order.Clone(), AlreadyExisted: true}, nil
}

func (m *Marketplace) createOrder(ctx context.Context, clientID string, draft domain.OrderDraft, idemKey string) (*ports.CreateOrderResult, error) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrClientNotFound
	}
	if err := domain.ValidateOrderCreation(draft, m.limits); err != nil {
		m.mu.Unlock()
		return nil, err
	}

	now := m.now()
	order := &domain.Order{
		ID:       newID(),
		ClientID: client.ID,
		Contact: domain.Contact{
			Name:     client.Name,
			Email:    client.Email,
			Phone:    client.Phone,
			Telegram: client.Telegram,
		},
		ProjectName: strings.TrimSpace(draft.ProjectName),
		ProjectType: draft.ProjectType,
		Budget:      draft.Budget,
		Deadline:    draft.Deadline,
		Prompt:      draft.Prompt,
		Status:      domain.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.orders[order.ID] = order
	client.Stats.OrderPlaced(order.Budget)
	m.systemMessageLocked(order, orderCreatedText)
	snap := m.commitLocked()
	out := order.Clone()
	m.mu.Unlock()

	if idemKey != "" {
		if err := m.idem.Remember(ctx, idemKey, out.ID); err != nil {
			m.log.Warn().Err(err).Str("order_id", out.ID).Msg("idempotency key not stored")
		}
	}

	m.log.Info().Str("order_id", out.ID).Str("client_id", clientID).Int64("budget", out.Budget).Msg("order created")
	m.publish(domain.OrderEvent{
		Type:        domain.EventOrderCreated,
		OrderID:     out.ID,
		ClientID:    out.ClientID,
		To:          out.Status,
		ProjectType: out.ProjectType,
		Budget:      out.Budget,
		At:          now,
	})
	return &ports.CreateOrderResult{Order: out}, m.persist(ctx, snap)
}

// replayOrder resolves an idempotency key to a live order owned by clientID.
// Lookup failures are logged and treated as a miss.
func (m *Marketplace) replayOrder(ctx context.Context, key, clientID string) *domain.Order {
	orderID, found, err := m.idem.Lookup(ctx, key)
	if err != nil {
		m.log.Warn().Err(err).Msg("idempotency lookup failed, creating anyway")
		return nil
	}
	if !found {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[orderID]
	if !ok || o.ClientID != clientID {
		return nil
	}
	return o.Clone()
}

// GetOrder returns a copy of the order.
func (m *Marketplace) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o.Clone(), nil
}

// Claim assigns an available order to the executor and starts work on it.
func (m *Marketplace) Claim(ctx context.Context, orderID, executorID string) (*domain.Order, error) {
	m.mu.Lock()
	exec, ok := m.executors[executorID]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrNotAnExecutor
	}
	order, ok := m.orders[orderID]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrOrderNotFound
	}
	if order.IsAssigned() {
		m.mu.Unlock()
		return nil, domain.ErrAlreadyAssigned
	}
	if order.Status != domain.StatusNew {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, domain.StatusInProgress)
	}

	now := m.now()
	order.AssignedExecutorID = exec.ID
	order.Status = domain.StatusInProgress
	order.AssignedAt = &now
	order.UpdatedAt = now
	exec.Stats.OrderClaimed()
	m.systemMessageLocked(order, fmt.Sprintf("%s took the order into work. Status: %s → %s.",
		exec.Name, domain.StatusNew.Label(), domain.StatusInProgress.Label()))
	snap := m.commitLocked()
	out := order.Clone()
	m.mu.Unlock()

	m.log.Info().Str("order_id", orderID).Str("executor_id", executorID).Msg("order claimed")
	m.publish(domain.OrderEvent{
		Type:        domain.EventOrderClaimed,
		OrderID:     out.ID,
		ClientID:    out.ClientID,
		ExecutorID:  exec.ID,
		From:        domain.StatusNew,
		To:          domain.StatusInProgress,
		ProjectType: out.ProjectType,
		Budget:      out.Budget,
		At:          now,
	})
	return out, m.persist(ctx, snap)
}

// SetStatus applies a generic lifecycle transition. The assigned executor may
// move the order through review; the owning client may accept a review or
// send it back.
func (m *Marketplace) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus, actorID string) (*domain.Order, error) {
	m.mu.Lock()
	order, ok := m.orders[orderID]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrOrderNotFound
	}
	isExecutor := order.IsAssigned() && actorID == order.AssignedExecutorID
	isOwner := actorID == order.ClientID
	if !isExecutor && !isOwner {
		m.mu.Unlock()
		return nil, domain.ErrNotPermitted
	}
	from := order.Status
	if !from.GenericTransition(status) {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, status)
	}
	if !isExecutor && from != domain.StatusReview {
		m.mu.Unlock()
		return nil, domain.ErrNotPermitted
	}

	now := m.now()
	order.Status = status
	order.UpdatedAt = now
	if status == domain.StatusCompleted {
		if exec, ok := m.executors[order.AssignedExecutorID]; ok {
			exec.Stats.OrderCompleted(order.Budget)
		}
		if client, ok := m.clients[order.ClientID]; ok {
			client.Stats.OrderClosed()
		}
	}
	m.systemMessageLocked(order, fmt.Sprintf("Status changed: %s → %s.", from.Label(), status.Label()))
	snap := m.commitLocked()
	out := order.Clone()
	m.mu.Unlock()

	m.log.Info().Str("order_id", orderID).Str("from", string(from)).Str("status", string(status)).Msg("order status changed")
	m.publish(domain.OrderEvent{
		Type:        domain.EventStatusChanged,
		OrderID:     out.ID,
		ClientID:    out.ClientID,
		ExecutorID:  out.AssignedExecutorID,
		From:        from,
		To:          status,
		ProjectType: out.ProjectType,
		Budget:      out.Budget,
		At:          now,
	})
	return out, m.persist(ctx, snap)
}

// Reject closes an order without completing it. Any executor may decline an
// available order; only the assigned executor may drop one in progress.
func (m *Marketplace) Reject(ctx context.Context, orderID, executorID, reason string) (*domain.Order, error) {
	m.mu.Lock()
	exec, ok := m.executors[executorID]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrNotAnExecutor
	}
	order, ok := m.orders[orderID]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrOrderNotFound
	}
	from := order.Status
	switch {
	case from == domain.StatusNew && !order.IsAssigned():
	case from == domain.StatusInProgress:
		if order.AssignedExecutorID != exec.ID {
			m.mu.Unlock()
			return nil, domain.ErrNotPermitted
		}
		exec.Stats.OrderDropped()
	default:
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, domain.StatusRejected)
	}

	now := m.now()
	reason = strings.TrimSpace(reason)
	order.Status = domain.StatusRejected
	order.RejectedBy = exec.ID
	order.RejectedReason = reason
	order.UpdatedAt = now
	if client, ok := m.clients[order.ClientID]; ok {
		client.Stats.OrderClosed()
	}
	text := fmt.Sprintf("%s rejected the order. Status: %s → %s.", exec.Name, from.Label(), domain.StatusRejected.Label())
	if reason != "" {
		text += " Reason: " + reason
	}
	m.systemMessageLocked(order, text)
	snap := m.commitLocked()
	out := order.Clone()
	m.mu.Unlock()

	m.log.Info().Str("order_id", orderID).Str("executor_id", executorID).Str("from", string(from)).Msg("order rejected")
	m.publish(domain.OrderEvent{
		Type:        domain.EventOrderRejected,
		OrderID:     out.ID,
		ClientID:    out.ClientID,
		ExecutorID:  exec.ID,
		From:        from,
		To:          domain.StatusRejected,
		ProjectType: out.ProjectType,
		Budget:      out.Budget,
		At:          now,
	})
	return out, m.persist(ctx, snap)
}

// Withdraw deletes an unclaimed order on behalf of its owner and reverses the
// stats recorded when it was placed.
func (m *Marketplace) Withdraw(ctx context.Context, orderID, clientID string) error {
	m.mu.Lock()
	order, ok := m.orders[orderID]
	if !ok {
		m.mu.Unlock()
		return domain.ErrOrderNotFound
	}
	if order.ClientID != clientID || !order.IsAvailable() {
		m.mu.Unlock()
		return domain.ErrNotPermitted
	}
	delete(m.orders, orderID)
	delete(m.messages, orderID)
	if client, ok := m.clients[clientID]; ok {
		client.Stats.OrderWithdrawn(order.Budget)
	}
	snap := m.commitLocked()
	m.mu.Unlock()

	m.log.Info().Str("order_id", orderID).Str("client_id", clientID).Msg("order withdrawn")
	m.publish(domain.OrderEvent{
		Type:        domain.EventOrderWithdrawn,
		OrderID:     orderID,
		ClientID:    clientID,
		From:        domain.StatusNew,
		ProjectType: order.ProjectType,
		Budget:      order.Budget,
		At:          m.now(),
	})
	return m.persist(ctx, snap)
}
