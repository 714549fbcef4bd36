// Package metrics defines and registers the custom Prometheus metrics of the
// order marketplace. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry through promauto, so they
// are exposed by the /metrics endpoint without further wiring.
package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const namespace = "marketplace"

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts newly created orders.
// Label:
//   - project_type: "static" or "dynamic"
var OrdersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders created, by project type.",
	},
	[]string{"project_type"},
)

// OrderTransitionsTotal counts lifecycle transitions.
// Labels:
//   - from: the previous status
//   - to: the new status
var OrderTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Total number of order status transitions.",
	},
	[]string{"from", "to"},
)

// OrdersWithdrawnTotal counts orders withdrawn by their clients.
var OrdersWithdrawnTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_withdrawn_total",
		Help:      "Total number of orders withdrawn by clients.",
	},
)

// CompletedBudgetTotal sums the budgets of completed orders.
var CompletedBudgetTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completed_budget_total",
		Help:      "Sum of budgets of orders that reached completed.",
	},
)

// ── Message metrics ───────────────────────────────────────────────────────────

// MessagesPostedTotal counts messages posted into order threads.
var MessagesPostedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_posted_total",
		Help:      "Total number of user messages posted.",
	},
)

// ── Storage metrics ───────────────────────────────────────────────────────────

// SnapshotSaveFailuresTotal counts failed snapshot saves.
// Label:
//   - kind: "sync_pending" (local copy written) or "persistence"
var SnapshotSaveFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_save_failures_total",
		Help:      "Total number of snapshot saves that failed, by kind.",
	},
	[]string{"kind"},
)

// RegisterDroppedEvents exposes the dispatcher's dropped event count as
// marketplace_events_dropped_total. Call it once at startup.
func RegisterDroppedEvents(dropped func() int64) {
	promauto.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Total number of lifecycle events dropped by the dispatcher.",
		},
		func() float64 { return float64(dropped()) },
	)
}

// InstrumentStore wraps a snapshot store so failed saves are counted.
func InstrumentStore(next ports.SnapshotStore) ports.SnapshotStore {
	return instrumentedStore{next: next}
}

type instrumentedStore struct {
	next ports.SnapshotStore
}

func (s instrumentedStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	return s.next.Load(ctx)
}

func (s instrumentedStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	err := s.next.Save(ctx, snap)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSyncPending):
		SnapshotSaveFailuresTotal.WithLabelValues("sync_pending").Inc()
	default:
		SnapshotSaveFailuresTotal.WithLabelValues("persistence").Inc()
	}
	return err
}

// Recorder turns lifecycle events into metric updates.
type Recorder struct{}

var _ ports.EventHandler = Recorder{}

// Handle implements ports.EventHandler.
func (Recorder) Handle(_ context.Context, ev domain.OrderEvent) error {
	switch ev.Type {
	case domain.EventOrderCreated:
		OrdersCreatedTotal.WithLabelValues(string(ev.ProjectType)).Inc()
	case domain.EventOrderClaimed, domain.EventStatusChanged, domain.EventOrderRejected:
		OrderTransitionsTotal.WithLabelValues(string(ev.From), string(ev.To)).Inc()
		if ev.To == domain.StatusCompleted {
			CompletedBudgetTotal.Add(float64(ev.Budget))
		}
	case domain.EventOrderWithdrawn:
		OrdersWithdrawnTotal.Inc()
	case domain.EventMessagePosted:
		MessagesPostedTotal.Inc()
	}
	return nil
}
