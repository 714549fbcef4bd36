package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

// MessageHandler handles the per-order chat.
type MessageHandler struct {
	service ports.MarketplaceService
}

func NewMessageHandler(service ports.MarketplaceService) *MessageHandler {
	return &MessageHandler{service: service}
}

// List handles GET /v1/orders/:id/messages.
//
// @Summary      Get the chat history of an order
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  messageListResponse
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /v1/orders/{id}/messages [get]
func (h *MessageHandler) List(c echo.Context) error {
	a, err := ctxActor(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	orderID := c.Param("id")

	order, err := h.service.GetOrder(ctx, orderID)
	if err != nil {
		return toHTTPError(err)
	}
	if !canReadChat(order, a) {
		return toHTTPError(domain.ErrNotPermitted)
	}

	msgs, err := h.service.MessagesForOrder(ctx, orderID)
	if err != nil {
		return toHTTPError(err)
	}
	unread, err := h.service.UnreadCount(ctx, orderID, a.ID)
	if err != nil {
		return toHTTPError(err)
	}

	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return c.JSON(http.StatusOK, messageListResponse{Messages: out, Unread: unread})
}

// Send handles POST /v1/orders/:id/messages.
//
// @Summary      Post a chat message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Order id"
// @Param        body  body      sendMessageRequest  true  "Message"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Router       /v1/orders/{id}/messages [post]
func (h *MessageHandler) Send(c echo.Context) error {
	a, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	msg, err := h.service.SendMessage(c.Request().Context(), c.Param("id"), a.ID, req.Text)
	if err := applied(c, err); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toMessageResponse(msg))
}

// MarkRead handles POST /v1/orders/:id/messages/read.
//
// @Summary      Mark the order's messages as read
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  markReadResponse
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /v1/orders/{id}/messages/read [post]
func (h *MessageHandler) MarkRead(c echo.Context) error {
	a, err := ctxActor(c)
	if err != nil {
		return err
	}
	n, err := h.service.MarkRead(c.Request().Context(), c.Param("id"), a.ID)
	if err := applied(c, err); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, markReadResponse{Marked: n})
}

// canReadChat mirrors who may post: the owner, the assigned executor, or
// any executor while the order is still available.
func canReadChat(o *domain.Order, a actor) bool {
	switch a.Role {
	case domain.RoleClient:
		return o.ClientID == a.ID
	case domain.RoleExecutor:
		return o.AssignedExecutorID == a.ID || o.IsAvailable()
	}
	return false
}
