package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

// Keys under which Auth stores the caller's identity on the echo context.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextName   = "name"
)

// Claims is the token payload issued at login.
type Claims struct {
	Role domain.Role `json:"role"`
	Name string      `json:"name"`
	jwt.RegisteredClaims
}

// Auth accepts HS256 bearer tokens for clients and executors and puts the
// caller's id, role and display name on the context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (any, error) { return []byte(jwtSecret), nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}

			var claims Claims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.Subject == "" || !signsIn(claims.Role) {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing identity")
			}

			c.Set(ContextUserID, claims.Subject)
			c.Set(ContextRole, claims.Role)
			c.Set(ContextName, claims.Name)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(token), nil
}

// signsIn reports whether role can hold a session. System messages have a
// role but no account.
func signsIn(role domain.Role) bool {
	return role == domain.RoleClient || role == domain.RoleExecutor
}
