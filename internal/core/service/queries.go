package service

import (
	"context"
	"sort"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const defaultActivityLimit = 10

// OrdersForClient lists the client's orders, newest first.
func (m *Marketplace) OrdersForClient(_ context.Context, clientID string, filter ports.OrderFilter) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.clients[clientID]; !ok {
		return nil, domain.ErrClientNotFound
	}
	return m.selectOrdersLocked(func(o *domain.Order) bool {
		return o.ClientID == clientID && filter.Matches(o)
	}), nil
}

// OrdersForExecutor lists orders assigned to the executor, newest first.
func (m *Marketplace) OrdersForExecutor(_ context.Context, executorID string, filter ports.OrderFilter) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.executors[executorID]; !ok {
		return nil, domain.ErrExecutorNotFound
	}
	return m.selectOrdersLocked(func(o *domain.Order) bool {
		return o.AssignedExecutorID == executorID && filter.Matches(o)
	}), nil
}

// AvailableOrders lists unclaimed orders in status new, newest first.
func (m *Marketplace) AvailableOrders(_ context.Context) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectOrdersLocked((*domain.Order).IsAvailable), nil
}

func (m *Marketplace) selectOrdersLocked(keep func(*domain.Order) bool) []*domain.Order {
	out := []*domain.Order{}
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	sortOrdersDesc(out)
	return out
}

// ClientStats recomputes the client's stats from raw orders.
func (m *Marketplace) ClientStats(_ context.Context, clientID string) (domain.ClientStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.clients[clientID]; !ok {
		return domain.ClientStats{}, domain.ErrClientNotFound
	}
	return m.deriveClientStatsLocked(clientID), nil
}

// ExecutorStats recomputes the executor's stats from raw orders.
func (m *Marketplace) ExecutorStats(_ context.Context, executorID string) (domain.ExecutorStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.executors[executorID]; !ok {
		return domain.ExecutorStats{}, domain.ErrExecutorNotFound
	}
	return m.deriveExecutorStatsLocked(executorID), nil
}

func (m *Marketplace) deriveClientStatsLocked(clientID string) domain.ClientStats {
	var s domain.ClientStats
	for _, o := range m.orders {
		if o.ClientID != clientID {
			continue
		}
		s.OrdersCount++
		s.TotalSpent += o.Budget
		if o.Status.IsActive() {
			s.ActiveOrders++
		}
	}
	return s
}

func (m *Marketplace) deriveExecutorStatsLocked(executorID string) domain.ExecutorStats {
	var s domain.ExecutorStats
	for _, o := range m.orders {
		if o.AssignedExecutorID != executorID {
			continue
		}
		switch o.Status {
		case domain.StatusInProgress, domain.StatusReview:
			s.InProgress++
		case domain.StatusCompleted:
			s.Completed++
			s.TotalEarned += o.Budget
		}
	}
	return s
}

// GlobalStats aggregates the whole marketplace.
func (m *Marketplace) GlobalStats(_ context.Context) ports.GlobalStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g := ports.GlobalStats{
		Clients:     len(m.clients),
		Executors:   len(m.executors),
		TotalOrders: len(m.orders),
	}
	for _, o := range m.orders {
		g.TotalBudget += o.Budget
		if o.IsAvailable() {
			g.AvailableOrders++
		}
		if o.Status.IsActive() {
			g.ActiveOrders++
		}
		switch o.Status {
		case domain.StatusCompleted:
			g.CompletedOrders++
			g.Revenue += o.Budget
		case domain.StatusRejected:
			g.RejectedOrders++
		}
	}
	return g
}

// OrderBreakdown counts orders by status and project type.
func (m *Marketplace) OrderBreakdown(_ context.Context, filter ports.OrderFilter) ports.Breakdown {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b := ports.Breakdown{
		ByStatus:      make(map[domain.OrderStatus]int),
		ByProjectType: make(map[domain.ProjectType]int),
	}
	for _, o := range m.orders {
		if !filter.Matches(o) {
			continue
		}
		b.Total++
		b.TotalBudget += o.Budget
		b.ByStatus[o.Status]++
		b.ByProjectType[o.ProjectType]++
	}
	return b
}

// RecentActivity returns the latest lifecycle entries across all orders, newest first.
func (m *Marketplace) RecentActivity(_ context.Context, limit int) []ports.Activity {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []ports.Activity{}
	for orderID, msgs := range m.messages {
		o := m.orders[orderID]
		for _, msg := range msgs {
			if !msg.IsSystem() {
				continue
			}
			out = append(out, ports.Activity{
				OrderID:     orderID,
				ProjectName: o.ProjectName,
				Text:        msg.Text,
				At:          msg.Timestamp,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].OrderID > out[j].OrderID
		}
		return out[i].At.After(out[j].At)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CheckConsistency compares the cached per-entity stats with the values
// derived from orders and reports every mismatch.
func (m *Marketplace) CheckConsistency(_ context.Context) []ports.StatsDrift {
	m.mu.RLock()
	defer m.mu.RUnlock()
	drifts := []ports.StatsDrift{}
	add := func(role domain.Role, id, field string, cached, derived int64) {
		if cached != derived {
			drifts = append(drifts, ports.StatsDrift{Role: role, UserID: id, Field: field, Cached: cached, Derived: derived})
		}
	}

	clientIDs := make([]string, 0, len(m.clients))
	for id := range m.clients {
		clientIDs = append(clientIDs, id)
	}
	sort.Strings(clientIDs)
	for _, id := range clientIDs {
		cached, derived := m.clients[id].Stats, m.deriveClientStatsLocked(id)
		add(domain.RoleClient, id, "orders_count", int64(cached.OrdersCount), int64(derived.OrdersCount))
		add(domain.RoleClient, id, "total_spent", cached.TotalSpent, derived.TotalSpent)
		add(domain.RoleClient, id, "active_orders", int64(cached.ActiveOrders), int64(derived.ActiveOrders))
	}
	for _, id := range m.executorOrder {
		cached, derived := m.executors[id].Stats, m.deriveExecutorStatsLocked(id)
		add(domain.RoleExecutor, id, "in_progress", int64(cached.InProgress), int64(derived.InProgress))
		add(domain.RoleExecutor, id, "completed", int64(cached.Completed), int64(derived.Completed))
		add(domain.RoleExecutor, id, "total_earned", cached.TotalEarned, derived.TotalEarned)
	}
	if len(drifts) > 0 {
		m.log.Warn().Int("drifts", len(drifts)).Msg("stats drift detected")
	}
	return drifts
}
