package domain

import "time"

// Message is a chat entry attached to an order. Only Read/ReadAt ever change.
type Message struct {
	ID         string     `json:"id" bson:"id"`
	OrderID    string     `json:"order_id" bson:"order_id"`
	SenderID   string     `json:"sender_id" bson:"sender_id"`
	SenderRole Role       `json:"sender_role" bson:"sender_role"`
	Text       string     `json:"text" bson:"text"`
	Timestamp  time.Time  `json:"timestamp" bson:"timestamp"`
	Read       bool       `json:"read" bson:"read"`
	ReadAt     *time.Time `json:"read_at,omitempty" bson:"read_at,omitempty"`
}

// IsSystem reports whether the message was synthesized by the state machine.
func (m *Message) IsSystem() bool {
	return m.SenderRole == RoleSystem
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	c := *m
	if m.ReadAt != nil {
		t := *m.ReadAt
		c.ReadAt = &t
	}
	return &c
}
