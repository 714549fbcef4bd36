package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new client account.
//
// @Summary      Register a new client
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Client registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Failure      503   {object}  errorBody
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	client, err := h.authService.Register(c.Request().Context(), toRegistration(req))
	if err := applied(c, err); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{User: toUserResponse(client)})
}

// Login authenticates a client (by email) or an executor (by id or name) and
// returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      429   {object}  errorBody
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Identifier, req.Password, domain.Role(req.Role))
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, User: toUserResponse(user)})
}
