package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sitecore/order-marketplace/internal/api/middleware"
	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
	"github.com/sitecore/order-marketplace/internal/core/service"
	"github.com/sitecore/order-marketplace/internal/infrastructure/storage"
)

var executorSeeds = []ports.ExecutorSeed{
	{ID: "alexander", Name: "Alexander", Password: "789563", Position: "Full-Stack Developer"},
	{ID: "maxim", Name: "Maxim", Password: "140612", Position: "Frontend Developer"},
}

var (
	alexander = &actor{ID: "alexander", Role: domain.RoleExecutor}
	maxim     = &actor{ID: "maxim", Role: domain.RoleExecutor}
)

func newTestMarketplace(t *testing.T, store ports.SnapshotStore) *service.Marketplace {
	t.Helper()
	m, err := service.NewMarketplace(context.Background(), service.Deps{
		Store:       store,
		Idempotency: storage.NewMemoryIdempotency(),
		Executors:   executorSeeds,
		HashCost:    bcrypt.MinCost,
		Logger:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new marketplace: %v", err)
	}
	return m
}

func registerClient(t *testing.T, m *service.Marketplace, name, email string) *actor {
	t.Helper()
	c, err := m.RegisterClient(context.Background(), domain.Registration{
		Name: name, Email: email, Phone: "+7 900 000-00-00", Telegram: "@" + strings.ToLower(name), Password: "secret1",
	})
	if !domain.IsApplied(err) {
		t.Fatalf("register %s: %v", name, err)
	}
	return &actor{ID: c.ID, Role: domain.RoleClient}
}

func orderBody(budget int64) string {
	b, _ := json.Marshal(createOrderRequest{
		ProjectName: "Landing page",
		ProjectType: "static",
		Budget:      budget,
		Deadline:    7,
		Prompt:      strings.Repeat("A landing page for a bakery. ", 12),
	})
	return string(b)
}

type request struct {
	method  string
	path    string
	body    string
	as      *actor
	params  map[string]string
	headers map[string]string
}

// serve runs h against r and renders any returned error with Echo's default
// error handler, the way the router would.
func serve(t *testing.T, h echo.HandlerFunc, r request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	path := r.path
	if path == "" {
		path = "/"
	}
	req := httptest.NewRequest(r.method, path, strings.NewReader(r.body))
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if r.as != nil {
		c.Set(middleware.ContextUserID, r.as.ID)
		c.Set(middleware.ContextRole, r.as.Role)
	}
	var names, values []string
	for k, v := range r.params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	if got := decode[errorBody](t, rec).Code; got != code {
		t.Fatalf("expected error code %q, got %q", code, got)
	}
}

func id(orderID string) map[string]string { return map[string]string{"id": orderID} }

func TestCtxActor_MissingClaims(t *testing.T) {
	rec := serve(t, NewOrderHandler(nil).List, request{method: http.MethodGet, path: "/v1/orders"})
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestToHTTPError_Kinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrBudgetTooLow, http.StatusBadRequest},
		{domain.ErrOrderNotFound, http.StatusNotFound},
		{domain.ErrAlreadyAssigned, http.StatusConflict},
		{domain.ErrNotPermitted, http.StatusForbidden},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrPersistence, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		he, ok := toHTTPError(tc.err).(*echo.HTTPError)
		if !ok {
			t.Fatalf("%v: expected *echo.HTTPError", tc.err)
		}
		if he.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, he.Code)
		}
	}

	plain := context.DeadlineExceeded
	if toHTTPError(plain) != plain {
		t.Errorf("non-domain errors must pass through unchanged")
	}
}

func TestApplied_PersistenceErrorsAreSuccesses(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{domain.ErrSyncPending, "sync_pending"},
		{fmt.Errorf("%w: %w", domain.ErrPersistence, errors.New("disk full")), "persistence_failed"},
	}
	for _, tc := range cases {
		c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
		if err := applied(c, tc.err); err != nil {
			t.Fatalf("%v: expected success, got %v", tc.err, err)
		}
		h := c.Response().Header()
		if h.Get(syncPendingHeader) != "true" || h.Get(persistenceHeader) != tc.code {
			t.Errorf("%v: unexpected headers %v", tc.err, h)
		}
	}

	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
	he, ok := applied(c, domain.ErrAlreadyAssigned).(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("non-persistence errors must still fail, got %v", he)
	}
	if c.Response().Header().Get(syncPendingHeader) != "" {
		t.Error("failed commands must not carry the sync header")
	}
}
