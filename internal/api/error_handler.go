package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Renders handler-mapped errors (*echo.HTTPError) with their status.
//   - Maps domain errors that reach it unmapped by kind.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, any) {
	// Handler-mapped errors and Echo's own (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, errorResponse{Error: msg}
		}
		if he.Message == nil {
			return he.Code, errorResponse{Error: http.StatusText(he.Code)}
		}
		return he.Code, he.Message
	}

	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.KindValidation:
			return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: de.Code}
		case domain.KindNotFound:
			return http.StatusNotFound, errorResponse{Error: de.Message, Code: de.Code}
		case domain.KindConflict:
			return http.StatusConflict, errorResponse{Error: de.Message, Code: de.Code}
		case domain.KindPermission:
			return http.StatusForbidden, errorResponse{Error: de.Message, Code: de.Code}
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
