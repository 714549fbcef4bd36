package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sitecore/order-marketplace/internal/core/ports"
	"github.com/sitecore/order-marketplace/internal/core/service"
	"github.com/sitecore/order-marketplace/internal/infrastructure/storage"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	m, err := service.NewMarketplace(context.Background(), service.Deps{
		Idempotency: storage.NewMemoryIdempotency(),
		Executors: []ports.ExecutorSeed{
			{ID: "alexander", Name: "Alexander", Password: "789563", Position: "Full-Stack Developer"},
			{ID: "maxim", Name: "Maxim", Password: "140612", Position: "Frontend Developer"},
		},
		HashCost: bcrypt.MinCost,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	return NewRouter(RouterConfig{
		Marketplace: m,
		Auth:        service.NewAuthService(m, testSecret, time.Hour),
		JWTSecret:   testSecret,
		LoginRate:   100,
		LoginBurst:  100,
		Registerer:  reg,
		Gatherer:    reg,
		Logger:      zerolog.Nop(),
	})
}

type client struct {
	t     *testing.T
	e     *echo.Echo
	token string
}

func (c client) do(method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func login(t *testing.T, e *echo.Echo, identifier, password, role string) client {
	t.Helper()
	rec, body := client{t: t, e: e}.do(http.MethodPost, "/auth/login",
		`{"identifier":"`+identifier+`","password":"`+password+`","role":"`+role+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return client{t: t, e: e, token: body["token"].(string)}
}

func TestRouter_EndToEnd(t *testing.T) {
	e := newTestRouter(t)
	anon := client{t: t, e: e}

	rec, _ := anon.do(http.MethodPost, "/auth/register",
		`{"name":"Ivan","email":"ivan@example.com","phone":"+7 900 000-00-00","telegram":"@ivan","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	ivan := login(t, e, "ivan@example.com", "secret1", "client")
	alexander := login(t, e, "Alexander", "789563", "executor")

	prompt := strings.Repeat("A five page site for a family bakery. ", 10)
	rec, order := ivan.do(http.MethodPost, "/v1/orders",
		`{"project_name":"Bakery","project_type":"static","budget":1000,"deadline":5,"prompt":"`+prompt+`"}`,
		"Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	orderID := order["id"].(string)

	rec, _ = ivan.do(http.MethodGet, "/v1/orders/available", "")
	assert.Equal(t, http.StatusForbidden, rec.Code, "clients cannot browse the executor board")

	rec, _ = alexander.do(http.MethodPost, "/v1/orders", `{}`)
	assert.Equal(t, http.StatusForbidden, rec.Code, "executors cannot place orders")

	rec, claimed := alexander.do(http.MethodPost, "/v1/orders/"+orderID+"/claim", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "in_progress", claimed["status"])

	rec, _ = alexander.do(http.MethodPost, "/v1/orders/"+orderID+"/messages", `{"text":"Starting today."}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = alexander.do(http.MethodPost, "/v1/orders/"+orderID+"/status", `{"status":"review"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, done := ivan.do(http.MethodPost, "/v1/orders/"+orderID+"/status", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "completed", done["status"])

	rec, stats := alexander.do(http.MethodGet, "/v1/stats/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1000), stats["executor"].(map[string]any)["total_earned"])

	rec, global := alexander.do(http.MethodGet, "/v1/stats/global", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1000), global["stats"].(map[string]any)["revenue"])

	rec, _ = ivan.do(http.MethodGet, "/v1/stats/global", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_AuthErrors(t *testing.T) {
	e := newTestRouter(t)
	anon := client{t: t, e: e}

	rec, body := anon.do(http.MethodGet, "/v1/orders", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing authorization header", body["error"])

	rec, body = anon.do(http.MethodPost, "/auth/login", `{"identifier":"maxim","password":"wrong","role":"executor"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", body["code"])

	rec, body = anon.do(http.MethodGet, "/no/such/route", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestRouter_HealthEndpoints(t *testing.T) {
	e := newTestRouter(t)
	anon := client{t: t, e: e}

	rec, body := anon.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, _ = anon.do(http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = anon.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marketplace_requests_total")

	rec, doc := anon.do(http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, doc["paths"], "/v1/orders")
}
