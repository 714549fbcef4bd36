package handler

import (
	"strings"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

// --- Request → Service input ---

func toRegistration(req registerRequest) domain.Registration {
	return domain.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Telegram: req.Telegram,
		Password: req.Password,
	}
}

func toCreateInput(req createOrderRequest, idempotencyKey string) ports.CreateOrderInput {
	return ports.CreateOrderInput{
		Draft: domain.OrderDraft{
			ProjectName: req.ProjectName,
			ProjectType: domain.ProjectType(strings.ToLower(strings.TrimSpace(req.ProjectType))),
			Budget:      req.Budget,
			Deadline:    req.Deadline,
			Prompt:      req.Prompt,
		},
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}
}

// --- Service result → HTTP response ---

func toUserResponse(u domain.User) *userResponse {
	resp := &userResponse{ID: u.UserID(), Role: u.UserRole(), Name: u.DisplayName()}
	switch v := u.(type) {
	case *domain.Client:
		at := v.RegisteredAt
		resp.Avatar = v.Avatar
		resp.Email = v.Email
		resp.Phone = v.Phone
		resp.Telegram = v.Telegram
		resp.RegisteredAt = &at
	case *domain.Executor:
		resp.Avatar = v.Avatar
		resp.Position = v.Position
	}
	return resp
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:                 o.ID,
		ClientID:           o.ClientID,
		Contact:            o.Contact,
		ProjectName:        o.ProjectName,
		ProjectType:        o.ProjectType,
		Budget:             o.Budget,
		Deadline:           o.Deadline,
		Prompt:             o.Prompt,
		Status:             o.Status,
		StatusLabel:        o.Status.Label(),
		AssignedExecutorID: o.AssignedExecutorID,
		AssignedAt:         o.AssignedAt,
		RejectedBy:         o.RejectedBy,
		RejectedReason:     o.RejectedReason,
		MessageCount:       o.MessageCount,
		LastMessageAt:      o.LastMessageAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		Links: orderLinks{
			Self:     "/v1/orders/" + o.ID,
			Messages: "/v1/orders/" + o.ID + "/messages",
		},
	}
}

func toOrderList(orders []*domain.Order) orderListResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return orderListResponse{Orders: out, Total: len(out)}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderRole: m.SenderRole,
		Text:       m.Text,
		Timestamp:  m.Timestamp,
		Read:       m.Read,
		ReadAt:     m.ReadAt,
	}
}
