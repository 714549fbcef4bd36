package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

const readinessTimeout = 3 * time.Second

// HealthHandler serves the liveness check.
type HealthHandler struct {
	started time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{started: time.Now()}
}

type livenessResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// Liveness godoc
//
//	@Summary	Liveness check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	livenessResponse
//	@Router		/health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, livenessResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	})
}

// DependencyCheck checks one dependency. A nil error means healthy.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthDependenciesHandler serves the readiness check: storage backends and
// the snapshot sync state.
type HealthDependenciesHandler struct {
	checks  []DependencyCheck
	timeout time.Duration
}

func NewHealthDependenciesHandler(checks ...DependencyCheck) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{checks: checks, timeout: readinessTimeout}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness godoc
//
//	@Summary	Readiness check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	readinessResponse
//	@Failure	503	{object}	readinessResponse
//	@Router		/health/ready [get]
func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	resp := readinessResponse{Status: "ok", Dependencies: h.checkAll(ctx)}
	code := http.StatusOK
	for _, dep := range resp.Dependencies {
		if dep.Status != "ok" {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}
	return c.JSON(code, resp)
}

// checkAll runs all checks concurrently under ctx.
func (h *HealthDependenciesHandler) checkAll(ctx context.Context) map[string]dependencyStatus {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]dependencyStatus, len(h.checks))
	)
	for _, chk := range h.checks {
		wg.Add(1)
		go func(chk DependencyCheck) {
			defer wg.Done()
			st := dependencyStatus{Status: "ok"}
			if err := chk.Check(ctx); err != nil {
				st = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			}
			mu.Lock()
			out[chk.Name] = st
			mu.Unlock()
		}(chk)
	}
	wg.Wait()
	return out
}
