package handler

import (
	"net/http"
	"testing"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

func TestStatsHandler_Me(t *testing.T) {
	m := newTestMarketplace(t, nil)
	ivan := registerClient(t, m, "Ivan", "ivan@example.com")
	orders := NewOrderHandler(m)
	h := NewStatsHandler(m)

	order := createOrder(t, orders, ivan)
	expectStatus(t, serve(t, orders.Claim, request{method: http.MethodPost, as: alexander, params: id(order.ID)}), http.StatusOK)

	client := decode[myStatsResponse](t, serve(t, h.Me, request{method: http.MethodGet, as: ivan}))
	if client.Role != domain.RoleClient || client.Client == nil || client.Executor != nil {
		t.Fatalf("unexpected client stats: %+v", client)
	}
	if *client.Client != (domain.ClientStats{OrdersCount: 1, TotalSpent: 1500, ActiveOrders: 1}) {
		t.Fatalf("unexpected client stats: %+v", *client.Client)
	}

	exec := decode[myStatsResponse](t, serve(t, h.Me, request{method: http.MethodGet, as: alexander}))
	if exec.Executor == nil || exec.Executor.InProgress != 1 {
		t.Fatalf("unexpected executor stats: %+v", exec)
	}

	ghost := &actor{ID: "ghost", Role: domain.RoleClient}
	expectCode(t, serve(t, h.Me, request{method: http.MethodGet, as: ghost}), http.StatusNotFound, "client_not_found")
}

func TestStatsHandler_Profile(t *testing.T) {
	m := newTestMarketplace(t, nil)
	ivan := registerClient(t, m, "Ivan", "ivan@example.com")
	h := NewStatsHandler(m)

	me := decode[userResponse](t, serve(t, h.Profile, request{method: http.MethodGet, as: ivan}))
	if me.Email != "ivan@example.com" || me.Avatar != "I" || me.RegisteredAt == nil {
		t.Fatalf("unexpected client profile: %+v", me)
	}

	exec := decode[userResponse](t, serve(t, h.Profile, request{method: http.MethodGet, as: maxim}))
	if exec.Position != "Frontend Developer" || exec.Email != "" {
		t.Fatalf("unexpected executor profile: %+v", exec)
	}
}

func TestStatsHandler_Global(t *testing.T) {
	m := newTestMarketplace(t, nil)
	ivan := registerClient(t, m, "Ivan", "ivan@example.com")
	orders := NewOrderHandler(m)
	h := NewStatsHandler(m)
	createOrder(t, orders, ivan)
	createOrder(t, orders, ivan)

	rec := serve(t, h.Global, request{method: http.MethodGet, path: "/v1/stats/global?limit=1", as: alexander})
	expectStatus(t, rec, http.StatusOK)
	got := decode[globalStatsResponse](t, rec)
	if got.Stats.TotalOrders != 2 || got.Stats.AvailableOrders != 2 || got.Stats.Executors != 2 {
		t.Fatalf("unexpected global stats: %+v", got.Stats)
	}
	if got.Breakdown.ByStatus[domain.StatusNew] != 2 || got.Breakdown.TotalBudget != 3000 {
		t.Fatalf("unexpected breakdown: %+v", got.Breakdown)
	}
	if len(got.RecentActivity) != 1 {
		t.Fatalf("expected limit to cap activity at 1, got %d", len(got.RecentActivity))
	}

	for _, q := range []string{"?limit=0", "?limit=abc", "?limit=1000", "?status=done"} {
		expectStatus(t, serve(t, h.Global, request{method: http.MethodGet, path: "/v1/stats/global" + q, as: alexander}), http.StatusBadRequest)
	}
}
