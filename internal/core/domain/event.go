package domain

import "time"

// OrderEventType names a lifecycle event.
type OrderEventType string

const (
	EventOrderCreated   OrderEventType = "order.created"
	EventOrderClaimed   OrderEventType = "order.claimed"
	EventStatusChanged  OrderEventType = "order.status_changed"
	EventOrderRejected  OrderEventType = "order.rejected"
	EventOrderWithdrawn OrderEventType = "order.withdrawn"
	EventMessagePosted  OrderEventType = "order.message_posted"
)

// OrderEvent is emitted after a committed order mutation.
type OrderEvent struct {
	Type        OrderEventType `json:"type"`
	OrderID     string         `json:"order_id"`
	ClientID    string         `json:"client_id"`
	ExecutorID  string         `json:"executor_id,omitempty"`
	From        OrderStatus    `json:"from,omitempty"`
	To          OrderStatus    `json:"to,omitempty"`
	ProjectType ProjectType    `json:"project_type,omitempty"`
	Budget      int64          `json:"budget"`
	At          time.Time      `json:"at"`
}
