package handler

import (
	"net/http"
	"testing"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

func TestMessageHandler_Conversation(t *testing.T) {
	m := newTestMarketplace(t, nil)
	ivan := registerClient(t, m, "Ivan", "ivan@example.com")
	orders := NewOrderHandler(m)
	h := NewMessageHandler(m)
	order := createOrder(t, orders, ivan)
	expectStatus(t, serve(t, orders.Claim, request{method: http.MethodPost, as: alexander, params: id(order.ID)}), http.StatusOK)

	rec := serve(t, h.Send, request{method: http.MethodPost, body: `{"text":"  Hi! When can you start?  "}`, as: ivan, params: id(order.ID)})
	expectStatus(t, rec, http.StatusCreated)
	sent := decode[messageResponse](t, rec)
	if sent.SenderRole != domain.RoleClient || sent.Read {
		t.Fatalf("unexpected message: %+v", sent)
	}

	rec = serve(t, h.List, request{method: http.MethodGet, as: alexander, params: id(order.ID)})
	expectStatus(t, rec, http.StatusOK)
	list := decode[messageListResponse](t, rec)
	if len(list.Messages) != 3 {
		t.Fatalf("expected created, claimed and client messages, got %d", len(list.Messages))
	}
	if list.Messages[0].SenderRole != domain.RoleSystem || list.Messages[2].ID != sent.ID {
		t.Fatalf("unexpected ordering: %+v", list.Messages)
	}
	if list.Unread != 3 {
		t.Fatalf("expected 3 unread for the executor, got %d", list.Unread)
	}

	rec = serve(t, h.MarkRead, request{method: http.MethodPost, as: alexander, params: id(order.ID)})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[markReadResponse](t, rec).Marked; got != 3 {
		t.Fatalf("expected 3 marked, got %d", got)
	}

	list = decode[messageListResponse](t, serve(t, h.List, request{method: http.MethodGet, as: alexander, params: id(order.ID)}))
	if list.Unread != 0 {
		t.Fatalf("expected nothing unread after MarkRead, got %d", list.Unread)
	}
}

func TestMessageHandler_Permissions(t *testing.T) {
	m := newTestMarketplace(t, nil)
	ivan := registerClient(t, m, "Ivan", "ivan@example.com")
	olga := registerClient(t, m, "Olga", "olga@example.com")
	orders := NewOrderHandler(m)
	h := NewMessageHandler(m)
	order := createOrder(t, orders, ivan)

	// any executor may ask about an order that is still available
	expectStatus(t, serve(t, h.Send, request{method: http.MethodPost, body: `{"text":"Is a CMS needed?"}`, as: maxim, params: id(order.ID)}), http.StatusCreated)
	expectStatus(t, serve(t, h.List, request{method: http.MethodGet, as: maxim, params: id(order.ID)}), http.StatusOK)

	expectCode(t, serve(t, h.List, request{method: http.MethodGet, as: olga, params: id(order.ID)}), http.StatusForbidden, "not_permitted")
	expectCode(t, serve(t, h.Send, request{method: http.MethodPost, body: `{"text":"hi"}`, as: olga, params: id(order.ID)}), http.StatusForbidden, "not_permitted")
	expectCode(t, serve(t, h.MarkRead, request{method: http.MethodPost, as: olga, params: id(order.ID)}), http.StatusForbidden, "not_permitted")

	expectStatus(t, serve(t, orders.Claim, request{method: http.MethodPost, as: alexander, params: id(order.ID)}), http.StatusOK)
	expectCode(t, serve(t, h.List, request{method: http.MethodGet, as: maxim, params: id(order.ID)}), http.StatusForbidden, "not_permitted")

	expectCode(t, serve(t, h.Send, request{method: http.MethodPost, body: `{"text":"   "}`, as: ivan, params: id(order.ID)}), http.StatusBadRequest, "invalid_message")
	expectCode(t, serve(t, h.List, request{method: http.MethodGet, as: ivan, params: id("missing")}), http.StatusNotFound, "order_not_found")
}
