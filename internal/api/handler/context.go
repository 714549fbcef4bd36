package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sitecore/order-marketplace/internal/api/middleware"
	"github.com/sitecore/order-marketplace/internal/core/domain"
)

// actor is the authenticated caller as injected by the Auth middleware.
type actor struct {
	ID   string
	Role domain.Role
}

// ctxActor extracts the auth claims and fails fast when the middleware did
// not run or the token carried no usable identity.
func ctxActor(c echo.Context) (actor, error) {
	id, _ := c.Get(middleware.ContextUserID).(string)
	role, _ := c.Get(middleware.ContextRole).(domain.Role)
	if id == "" || role == "" {
		return actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return actor{ID: id, Role: role}, nil
}

// errorBody is the JSON envelope of every domain failure.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Headers set on successful responses whose mutation is applied but not
// fully persisted. X-Sync-Pending is "true" in both cases; X-Persistence
// carries the reason code (sync_pending or persistence_failed).
const (
	syncPendingHeader = "X-Sync-Pending"
	persistenceHeader = "X-Persistence"
)

// toHTTPError maps a domain error to an *echo.HTTPError. Errors that are not
// domain errors are returned unchanged and end up as 500s.
func toHTTPError(err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		return err
	}
	status, msg := http.StatusInternalServerError, de.Message
	switch de.Kind {
	case domain.KindValidation:
		status, msg = http.StatusBadRequest, err.Error()
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindPermission:
		status = http.StatusForbidden
		if de == domain.ErrInvalidCredentials {
			status = http.StatusUnauthorized
		}
	case domain.KindPersistence:
		status = http.StatusServiceUnavailable
	}
	return &echo.HTTPError{Code: status, Message: errorBody{Error: msg, Code: de.Code}, Internal: err}
}

// applied lets a command whose mutation stands through as a success. A save
// that failed after the mutation is reported in headers only: the action
// happened and must not be retried.
func applied(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if !domain.IsApplied(err) {
		return toHTTPError(err)
	}
	h := c.Response().Header()
	h.Set(syncPendingHeader, "true")
	h.Set(persistenceHeader, domain.CodeOf(err))
	return nil
}
