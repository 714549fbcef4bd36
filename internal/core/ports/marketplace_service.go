package ports

import (
	"context"
	"time"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

// ExecutorSeed is one row of the fixed executor table provisioned at bootstrap.
type ExecutorSeed struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Position string `yaml:"position"`
}

// CreateOrderInput carries the order form plus an optional idempotency key.
type CreateOrderInput struct {
	Draft          domain.OrderDraft
	IdempotencyKey string
}

// CreateOrderResult is returned by CreateOrder.
type CreateOrderResult struct {
	Order *domain.Order
	// AlreadyExisted is true when the idempotency key matched an earlier order.
	AlreadyExisted bool
}

// OrderFilter narrows list queries. Zero value means no filter.
type OrderFilter struct {
	Status domain.OrderStatus
}

// Matches reports whether o passes the filter.
func (f OrderFilter) Matches(o *domain.Order) bool {
	return f.Status == "" || o.Status == f.Status
}

// GlobalStats aggregates the whole marketplace.
type GlobalStats struct {
	Clients         int   `json:"clients"`
	Executors       int   `json:"executors"`
	TotalOrders     int   `json:"total_orders"`
	AvailableOrders int   `json:"available_orders"`
	ActiveOrders    int   `json:"active_orders"`
	CompletedOrders int   `json:"completed_orders"`
	RejectedOrders  int   `json:"rejected_orders"`
	TotalBudget     int64 `json:"total_budget"`
	Revenue         int64 `json:"revenue"`
}

// Breakdown counts orders by status and project type.
type Breakdown struct {
	Total         int                        `json:"total"`
	ByStatus      map[domain.OrderStatus]int `json:"by_status"`
	ByProjectType map[domain.ProjectType]int `json:"by_project_type"`
	TotalBudget   int64                      `json:"total_budget"`
}

// Activity is one lifecycle entry of the recent activity feed.
type Activity struct {
	OrderID     string    `json:"order_id"`
	ProjectName string    `json:"project_name"`
	Text        string    `json:"text"`
	At          time.Time `json:"at"`
}

// StatsDrift reports a cached stat that disagrees with the value derived from orders.
type StatsDrift struct {
	Role    domain.Role `json:"role"`
	UserID  string      `json:"user_id"`
	Field   string      `json:"field"`
	Cached  int64       `json:"cached"`
	Derived int64       `json:"derived"`
}

// Accounts is the subset of the marketplace the auth flow depends on.
type Accounts interface {
	RegisterClient(ctx context.Context, in domain.Registration) (*domain.Client, error)
	Authenticate(ctx context.Context, identifier, password string, role domain.Role) (domain.User, error)
}

// MarketplaceService is the command and query surface consumed by the HTTP layer.
type MarketplaceService interface {
	Accounts

	GetClient(ctx context.Context, clientID string) (*domain.Client, error)
	GetExecutor(ctx context.Context, executorID string) (*domain.Executor, error)

	CreateOrder(ctx context.Context, clientID string, in CreateOrderInput) (*CreateOrderResult, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	Claim(ctx context.Context, orderID, executorID string) (*domain.Order, error)
	SetStatus(ctx context.Context, orderID string, status domain.OrderStatus, actorID string) (*domain.Order, error)
	Reject(ctx context.Context, orderID, executorID, reason string) (*domain.Order, error)
	Withdraw(ctx context.Context, orderID, clientID string) error

	SendMessage(ctx context.Context, orderID, senderID, text string) (*domain.Message, error)
	MarkRead(ctx context.Context, orderID, readerID string) (int, error)
	UnreadCount(ctx context.Context, orderID, readerID string) (int, error)

	OrdersForClient(ctx context.Context, clientID string, filter OrderFilter) ([]*domain.Order, error)
	OrdersForExecutor(ctx context.Context, executorID string, filter OrderFilter) ([]*domain.Order, error)
	AvailableOrders(ctx context.Context) ([]*domain.Order, error)
	MessagesForOrder(ctx context.Context, orderID string) ([]*domain.Message, error)

	ClientStats(ctx context.Context, clientID string) (domain.ClientStats, error)
	ExecutorStats(ctx context.Context, executorID string) (domain.ExecutorStats, error)
	GlobalStats(ctx context.Context) GlobalStats
	OrderBreakdown(ctx context.Context, filter OrderFilter) Breakdown
	RecentActivity(ctx context.Context, limit int) []Activity
	CheckConsistency(ctx context.Context) []StatsDrift
}
