package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const maxActivityLimit = 100

// StatsHandler serves profile and statistics endpoints.
type StatsHandler struct {
	service ports.MarketplaceService
}

func NewStatsHandler(service ports.MarketplaceService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Profile handles GET /v1/me.
//
// @Summary      Current user profile
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      404  {object}  errorBody
// @Router       /v1/me [get]
func (h *StatsHandler) Profile(c echo.Context) error {
	a, err := ctxActor(c)
	if err != nil {
		return err
	}
	var user domain.User
	if a.Role == domain.RoleClient {
		user, err = h.service.GetClient(c.Request().Context(), a.ID)
	} else {
		user, err = h.service.GetExecutor(c.Request().Context(), a.ID)
	}
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Me handles GET /v1/stats/me.
//
// @Summary      Statistics of the current user
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  myStatsResponse
// @Failure      404  {object}  errorBody
// @Router       /v1/stats/me [get]
func (h *StatsHandler) Me(c echo.Context) error {
	a, err := ctxActor(c)
	if err != nil {
		return err
	}
	resp := myStatsResponse{Role: a.Role}
	if a.Role == domain.RoleClient {
		stats, err := h.service.ClientStats(c.Request().Context(), a.ID)
		if err != nil {
			return toHTTPError(err)
		}
		resp.Client = &stats
	} else {
		stats, err := h.service.ExecutorStats(c.Request().Context(), a.ID)
		if err != nil {
			return toHTTPError(err)
		}
		resp.Executor = &stats
	}
	return c.JSON(http.StatusOK, resp)
}

// Global handles GET /v1/stats/global.
//
// @Summary      Marketplace-wide statistics
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Restrict the breakdown to one status"
// @Param        limit   query     int     false  "Number of recent activity entries (default 10)"
// @Success      200     {object}  globalStatsResponse
// @Failure      400     {object}  errorBody
// @Failure      403     {object}  errorBody
// @Router       /v1/stats/global [get]
func (h *StatsHandler) Global(c echo.Context) error {
	filter, err := statusFilter(c)
	if err != nil {
		return err
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxActivityLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxActivityLimit))
		}
	}

	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, globalStatsResponse{
		Stats:          h.service.GlobalStats(ctx),
		Breakdown:      h.service.OrderBreakdown(ctx, filter),
		RecentActivity: h.service.RecentActivity(ctx, limit),
	})
}
