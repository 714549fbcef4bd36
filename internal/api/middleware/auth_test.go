package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// runAuth executes the Auth middleware and returns the recorded status.
func runAuth(t *testing.T, header string, next echo.HandlerFunc) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Auth("secret")(next)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec.Code
}

func mustNotReach(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token := signed(t, "secret", jwt.MapClaims{
		"sub":  "alexander",
		"role": "executor",
		"name": "Alexander",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	called := false
	code := runAuth(t, "Bearer "+token, func(c echo.Context) error {
		called = true
		if c.Get("user_id") != "alexander" {
			t.Fatalf("user_id not set")
		}
		if c.Get("role") != domain.RoleExecutor {
			t.Fatalf("role not set")
		}
		if c.Get("name") != "Alexander" {
			t.Fatalf("name not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	hour := time.Now().Add(time.Hour).Unix()
	cases := map[string]string{
		"missing header":  "",
		"bad format":      "Token abc",
		"garbage token":   "Bearer not-a-token",
		"wrong secret":    "Bearer " + signed(t, "other", jwt.MapClaims{"sub": "c1", "role": "client", "exp": hour}),
		"expired":         "Bearer " + signed(t, "secret", jwt.MapClaims{"sub": "c1", "role": "client", "exp": time.Now().Add(-time.Hour).Unix()}),
		"missing subject": "Bearer " + signed(t, "secret", jwt.MapClaims{"role": "client", "exp": hour}),
		"unknown role":    "Bearer " + signed(t, "secret", jwt.MapClaims{"sub": "c1", "role": "admin", "exp": hour}),
		"system role":     "Bearer " + signed(t, "secret", jwt.MapClaims{"sub": "system", "role": "system", "exp": hour}),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			if code := runAuth(t, header, mustNotReach(t)); code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", code)
			}
		})
	}
}
