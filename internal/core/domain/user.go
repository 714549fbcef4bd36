package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Role identifies which side of the marketplace an actor is on.
type Role string

const (
	RoleClient   Role = "client"
	RoleExecutor Role = "executor"
	RoleSystem   Role = "system"
)

// SystemSenderID is the sender id of messages synthesized by the state machine.
const SystemSenderID = "system"

// User is the capability shared by clients and executors.
type User interface {
	UserID() string
	UserRole() Role
	DisplayName() string
}

// ClientStats are maintained incrementally on every order transition.
type ClientStats struct {
	OrdersCount  int   `json:"orders_count" bson:"orders_count"`
	TotalSpent   int64 `json:"total_spent" bson:"total_spent"`
	ActiveOrders int   `json:"active_orders" bson:"active_orders"`
}

// ExecutorStats are maintained incrementally on every order transition.
type ExecutorStats struct {
	InProgress  int   `json:"in_progress" bson:"in_progress"`
	Completed   int   `json:"completed" bson:"completed"`
	TotalEarned int64 `json:"total_earned" bson:"total_earned"`
}

// Client is a self-registered customer who submits orders.
type Client struct {
	ID           string      `json:"id" bson:"id"`
	Name         string      `json:"name" bson:"name"`
	Email        string      `json:"email" bson:"email"`
	Phone        string      `json:"phone" bson:"phone"`
	Telegram     string      `json:"telegram" bson:"telegram"`
	PasswordHash string      `json:"password_hash,omitempty" bson:"password_hash"`
	Avatar       string      `json:"avatar" bson:"avatar"`
	RegisteredAt time.Time   `json:"registered_at" bson:"registered_at"`
	Stats        ClientStats `json:"stats" bson:"stats"`
}

func (c *Client) UserID() string      { return c.ID }
func (c *Client) UserRole() Role      { return RoleClient }
func (c *Client) DisplayName() string { return c.Name }

// Executor is a member of the fixed developer pool.
type Executor struct {
	ID           string        `json:"id" bson:"id"`
	Name         string        `json:"name" bson:"name"`
	PasswordHash string        `json:"password_hash,omitempty" bson:"password_hash"`
	Avatar       string        `json:"avatar" bson:"avatar"`
	Position     string        `json:"position" bson:"position"`
	Stats        ExecutorStats `json:"stats" bson:"stats"`
}

func (e *Executor) UserID() string      { return e.ID }
func (e *Executor) UserRole() Role      { return RoleExecutor }
func (e *Executor) DisplayName() string { return e.Name }

// AvatarInitial derives the single-letter avatar from a display name.
func AvatarInitial(name string) string {
	name = strings.TrimSpace(name)
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// decrement subtracts n from v, clamping at zero.
func decrement(v, n int) int {
	if v-n < 0 {
		return 0
	}
	return v - n
}

func decrement64(v, n int64) int64 {
	if v-n < 0 {
		return 0
	}
	return v - n
}

// OrderPlaced records a new order against the client's stats.
func (s *ClientStats) OrderPlaced(budget int64) {
	s.OrdersCount++
	s.ActiveOrders++
	s.TotalSpent += budget
}

// OrderWithdrawn reverses OrderPlaced.
func (s *ClientStats) OrderWithdrawn(budget int64) {
	s.OrdersCount = decrement(s.OrdersCount, 1)
	s.ActiveOrders = decrement(s.ActiveOrders, 1)
	s.TotalSpent = decrement64(s.TotalSpent, budget)
}

// OrderClosed is applied when an order reaches a terminal status.
func (s *ClientStats) OrderClosed() {
	s.ActiveOrders = decrement(s.ActiveOrders, 1)
}

// OrderClaimed is applied when the executor takes an order.
func (s *ExecutorStats) OrderClaimed() {
	s.InProgress++
}

// OrderCompleted moves one order from in-progress to completed.
func (s *ExecutorStats) OrderCompleted(budget int64) {
	s.InProgress = decrement(s.InProgress, 1)
	s.Completed++
	s.TotalEarned += budget
}

// OrderDropped is applied when an in-progress order is rejected.
func (s *ExecutorStats) OrderDropped() {
	s.InProgress = decrement(s.InProgress, 1)
}
