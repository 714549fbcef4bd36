package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

// OrderHandler handles HTTP requests for the order lifecycle.
type OrderHandler struct {
	service ports.MarketplaceService
}

func NewOrderHandler(service ports.MarketplaceService) *OrderHandler {
	return &OrderHandler{service: service}
}

// List handles GET /v1/orders.
//
// Clients see the orders they placed; executors see the orders assigned to them.
//
// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {object}  orderListResponse
// @Failure      400     {object}  errorBody
// @Failure      401     {object}  errorBody
// @Router       /v1/orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	a, err := ctxActor(c)
	if err != nil {
		return err
	}
	filter, err := statusFilter(c)
	if err != nil {
		return err
	}

	var orders []*domain.Order
	if a.Role == domain.RoleClient {
		orders, err = h.service.OrdersForClient(c.Request().Context(), a.ID, filter)
	} else {
		orders, err = h.service.OrdersForExecutor(c.Request().Context(), a.ID, filter)
	}
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toOrderList(orders))
}

// Available handles GET /v1/orders/available.
//
// @Summary      List unclaimed orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  orderListResponse
// @Failure      403  {object}  errorBody
// @Router       /v1/orders/available [get]
func (h *OrderHandler) Available(c echo.Context) error {
	orders, err := h.service.AvailableOrders(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toOrderList(orders))
}

// Create handles POST /v1/orders.
//
// A repeated Idempotency-Key returns the order created by the first request
// with 200 instead of 201.
//
// @Summary      Create a new order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createOrderRequest  true   "Order form"
// @Success      201              {object}  orderResponse
// @Success      200              {object}  orderResponse
// @Failure      400              {object}  errorBody
// @Failure      401              {object}  errorBody
// @Failure      503              {object}  errorBody
// @Router       /v1/orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	a, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.CreateOrder(c.Request().Context(), a.ID, toCreateInput(req, c.Request().Header.Get("Idempotency-Key")))
	if err := applied(c, err); err != nil {
		return err
	}

	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	}
	c.Response().Header().Set(echo.HeaderLocation, "/v1/orders/"+result.Order.ID)
	return c.JSON(status, toOrderResponse(result.Order))
}

// Get handles GET /v1/orders/:id.
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  orderResponse
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /v1/orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	a, err := ctxActor(c)
	if err != nil {
		return err
	}
	order, err := h.service.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	if a.Role == domain.RoleClient && order.ClientID != a.ID {
		return toHTTPError(domain.ErrNotPermitted)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// Withdraw handles DELETE /v1/orders/:id.
//
// @Summary      Withdraw an unclaimed order
// @Tags         orders
// @Security     BearerAuth
// @Param        id   path  string  true  "Order id"
// @Success      204
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /v1/orders/{id} [delete]
func (h *OrderHandler) Withdraw(c echo.Context) error {
	a, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := applied(c, h.service.Withdraw(c.Request().Context(), c.Param("id"), a.ID)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Claim handles POST /v1/orders/:id/claim.
//
// @Summary      Take an order into work
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  orderResponse
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Failure      409  {object}  errorBody
// @Router       /v1/orders/{id}/claim [post]
func (h *OrderHandler) Claim(c echo.Context) error {
	a, err := ctxActor(c)
	if err != nil {
		return err
	}
	order, err := h.service.Claim(c.Request().Context(), c.Param("id"), a.ID)
	if err := applied(c, err); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// SetStatus handles POST /v1/orders/:id/status.
//
// @Summary      Move an order along its lifecycle
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Order id"
// @Param        body  body      setStatusRequest  true  "Target status"
// @Success      200   {object}  orderResponse
// @Failure      400   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Router       /v1/orders/{id}/status [post]
func (h *OrderHandler) SetStatus(c echo.Context) error {
	a, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req setStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	order, err := h.service.SetStatus(c.Request().Context(), c.Param("id"), domain.OrderStatus(req.Status), a.ID)
	if err := applied(c, err); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// Reject handles POST /v1/orders/:id/reject.
//
// @Summary      Reject an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true   "Order id"
// @Param        body  body      rejectRequest  false  "Optional reason"
// @Success      200   {object}  orderResponse
// @Failure      403   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Router       /v1/orders/{id}/reject [post]
func (h *OrderHandler) Reject(c echo.Context) error {
	a, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req rejectRequest
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}
	order, err := h.service.Reject(c.Request().Context(), c.Param("id"), a.ID, req.Reason)
	if err := applied(c, err); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// statusFilter parses the optional ?status= query parameter.
func statusFilter(c echo.Context) (ports.OrderFilter, error) {
	raw := c.QueryParam("status")
	if raw == "" {
		return ports.OrderFilter{}, nil
	}
	switch s := domain.OrderStatus(raw); s {
	case domain.StatusNew, domain.StatusInProgress, domain.StatusReview, domain.StatusCompleted, domain.StatusRejected:
		return ports.OrderFilter{Status: s}, nil
	}
	return ports.OrderFilter{}, echo.NewHTTPError(http.StatusBadRequest, "unknown status "+raw)
}
