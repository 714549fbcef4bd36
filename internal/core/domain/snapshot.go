package domain

import "time"

// Snapshot is the full persisted state of the marketplace.
type Snapshot struct {
	Version   int64                 `json:"version" bson:"version"`
	SavedAt   time.Time             `json:"saved_at" bson:"saved_at"`
	Clients   []*Client             `json:"clients" bson:"clients"`
	Executors []*Executor           `json:"executors" bson:"executors"`
	Orders    []*Order              `json:"orders" bson:"orders"`
	Messages  map[string][]*Message `json:"messages" bson:"messages"`
}

// NewSnapshot returns an empty, initialized snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Clients:   []*Client{},
		Executors: []*Executor{},
		Orders:    []*Order{},
		Messages:  map[string][]*Message{},
	}
}

// Normalize replaces nil collections so a decoded snapshot is safe to use.
func (s *Snapshot) Normalize() {
	if s.Clients == nil {
		s.Clients = []*Client{}
	}
	if s.Executors == nil {
		s.Executors = []*Executor{}
	}
	if s.Orders == nil {
		s.Orders = []*Order{}
	}
	if s.Messages == nil {
		s.Messages = map[string][]*Message{}
	}
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Version:   s.Version,
		SavedAt:   s.SavedAt,
		Clients:   make([]*Client, len(s.Clients)),
		Executors: make([]*Executor, len(s.Executors)),
		Orders:    make([]*Order, len(s.Orders)),
		Messages:  make(map[string][]*Message, len(s.Messages)),
	}
	for i, c := range s.Clients {
		cc := *c
		out.Clients[i] = &cc
	}
	for i, e := range s.Executors {
		ec := *e
		out.Executors[i] = &ec
	}
	for i, o := range s.Orders {
		out.Orders[i] = o.Clone()
	}
	for orderID, msgs := range s.Messages {
		cp := make([]*Message, len(msgs))
		for i, m := range msgs {
			cp[i] = m.Clone()
		}
		out.Messages[orderID] = cp
	}
	return out
}
