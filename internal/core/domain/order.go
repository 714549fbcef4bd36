package domain

import "time"

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusInProgress OrderStatus = "in_progress"
	StatusReview     OrderStatus = "review"
	StatusCompleted  OrderStatus = "completed"
	StatusRejected   OrderStatus = "rejected"
)

// validTransitions is the full lifecycle graph. Claiming (new -> in_progress)
// and rejecting have dedicated operations; see GenericTransition.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusNew:        {StatusInProgress, StatusRejected},
	StatusInProgress: {StatusReview, StatusRejected},
	StatusReview:     {StatusCompleted, StatusInProgress},
}

var statusLabels = map[OrderStatus]string{
	StatusNew:        "New",
	StatusInProgress: "In progress",
	StatusReview:     "Under review",
	StatusCompleted:  "Completed",
	StatusRejected:   "Rejected",
}

// ParseOrderStatus reports whether s names a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := statusLabels[st]
	return st, ok
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// GenericTransition reports whether s -> next may be requested through a plain
// status change. Claims and rejections carry extra data and are excluded.
func (s OrderStatus) GenericTransition(next OrderStatus) bool {
	if next == StatusRejected || (s == StatusNew && next == StatusInProgress) {
		return false
	}
	return s.CanTransitionTo(next)
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// IsActive reports whether an order in s still counts toward a client's active orders.
func (s OrderStatus) IsActive() bool {
	return s == StatusNew || s == StatusInProgress || s == StatusReview
}

// Label returns the human-readable status name used in system messages.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ProjectType is the kind of website requested.
type ProjectType string

const (
	ProjectStatic  ProjectType = "static"
	ProjectDynamic ProjectType = "dynamic"
)

// Valid reports whether t is one of the supported project types.
func (t ProjectType) Valid() bool {
	return t == ProjectStatic || t == ProjectDynamic
}

// Contact is the client's contact data captured when the order was placed.
type Contact struct {
	Name     string `json:"name" bson:"name"`
	Email    string `json:"email" bson:"email"`
	Phone    string `json:"phone" bson:"phone"`
	Telegram string `json:"telegram" bson:"telegram"`
}

// Order is the core aggregate root.
type Order struct {
	ID                 string      `json:"id" bson:"id"`
	ClientID           string      `json:"client_id" bson:"client_id"`
	Contact            Contact     `json:"contact" bson:"contact"`
	ProjectName        string      `json:"project_name" bson:"project_name"`
	ProjectType        ProjectType `json:"project_type" bson:"project_type"`
	Budget             int64       `json:"budget" bson:"budget"`
	Deadline           int         `json:"deadline" bson:"deadline"`
	Prompt             string      `json:"prompt" bson:"prompt"`
	Status             OrderStatus `json:"status" bson:"status"`
	AssignedExecutorID string      `json:"assigned_executor_id,omitempty" bson:"assigned_executor_id,omitempty"`
	CreatedAt          time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" bson:"updated_at"`
	AssignedAt         *time.Time  `json:"assigned_at,omitempty" bson:"assigned_at,omitempty"`
	RejectedBy         string      `json:"rejected_by,omitempty" bson:"rejected_by,omitempty"`
	RejectedReason     string      `json:"rejected_reason,omitempty" bson:"rejected_reason,omitempty"`
	MessageCount       int         `json:"message_count" bson:"message_count"`
	LastMessageAt      *time.Time  `json:"last_message_at,omitempty" bson:"last_message_at,omitempty"`
}

// IsAssigned reports whether an executor has claimed the order.
func (o *Order) IsAssigned() bool {
	return o.AssignedExecutorID != ""
}

// IsAvailable reports whether the order can still be claimed.
func (o *Order) IsAvailable() bool {
	return o.Status == StatusNew && !o.IsAssigned()
}

// Clone returns a deep copy of o.
func (o *Order) Clone() *Order {
	c := *o
	if o.AssignedAt != nil {
		t := *o.AssignedAt
		c.AssignedAt = &t
	}
	if o.LastMessageAt != nil {
		t := *o.LastMessageAt
		c.LastMessageAt = &t
	}
	return &c
}
