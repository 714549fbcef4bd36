package handler

import (
	"time"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

// --- Request types ---

// Field rules for sign-up and order forms live in the domain; the tags here
// only reject payloads that are malformed as such.
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Telegram string `json:"telegram"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"notblank"`
	Password   string `json:"password"   validate:"notblank"`
	Role       string `json:"role"       validate:"required,oneof=client executor"`
}

type createOrderRequest struct {
	ProjectName string `json:"project_name"`
	ProjectType string `json:"project_type"`
	Budget      int64  `json:"budget"   validate:"gte=0"`
	Deadline    int    `json:"deadline" validate:"gte=0"`
	Prompt      string `json:"prompt"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=in_progress review completed rejected"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// --- Response types ---

type userResponse struct {
	ID           string      `json:"id"`
	Role         domain.Role `json:"role"`
	Name         string      `json:"name"`
	Avatar       string      `json:"avatar"`
	Email        string      `json:"email,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Telegram     string      `json:"telegram,omitempty"`
	Position     string      `json:"position,omitempty"`
	RegisteredAt *time.Time  `json:"registered_at,omitempty"`
}

type authResponse struct {
	Token string        `json:"token,omitempty"`
	User  *userResponse `json:"user,omitempty"`
}

type orderLinks struct {
	Self     string `json:"self"`
	Messages string `json:"messages"`
}

type orderResponse struct {
	ID                 string             `json:"id"`
	ClientID           string             `json:"client_id"`
	Contact            domain.Contact     `json:"contact"`
	ProjectName        string             `json:"project_name"`
	ProjectType        domain.ProjectType `json:"project_type"`
	Budget             int64              `json:"budget"`
	Deadline           int                `json:"deadline"`
	Prompt             string             `json:"prompt"`
	Status             domain.OrderStatus `json:"status"`
	StatusLabel        string             `json:"status_label"`
	AssignedExecutorID string             `json:"assigned_executor_id,omitempty"`
	AssignedAt         *time.Time         `json:"assigned_at,omitempty"`
	RejectedBy         string             `json:"rejected_by,omitempty"`
	RejectedReason     string             `json:"rejected_reason,omitempty"`
	MessageCount       int                `json:"message_count"`
	LastMessageAt      *time.Time         `json:"last_message_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	Links              orderLinks         `json:"_links"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
}

type messageResponse struct {
	ID         string      `json:"id"`
	SenderID   string      `json:"sender_id"`
	SenderRole domain.Role `json:"sender_role"`
	Text       string      `json:"text"`
	Timestamp  time.Time   `json:"timestamp"`
	Read       bool        `json:"read"`
	ReadAt     *time.Time  `json:"read_at,omitempty"`
}

type messageListResponse struct {
	Messages []messageResponse `json:"messages"`
	Unread   int               `json:"unread"`
}

type markReadResponse struct {
	Marked int `json:"marked"`
}

type myStatsResponse struct {
	Role     domain.Role           `json:"role"`
	Client   *domain.ClientStats   `json:"client,omitempty"`
	Executor *domain.ExecutorStats `json:"executor,omitempty"`
}

type globalStatsResponse struct {
	Stats          ports.GlobalStats `json:"stats"`
	Breakdown      ports.Breakdown   `json:"breakdown"`
	RecentActivity []ports.Activity  `json:"recent_activity"`
}
