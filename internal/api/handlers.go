// Package api contains the HTTP handlers for the hiring platform service
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"agentic-hr/backend/internal/repository"
	"agentic-hr/backend/internal/services"
	"agentic-hr/backend/pkg/models"
)

// Handler holds the dependencies for the REST API.
type Handler struct {
	Svc   services.Orchestrator
	Store repository.Store
}

// NewHandler creates a new Handler with required dependencies.
func NewHandler(svc services.Orchestrator, store repository.Store) *Handler {
	return &Handler{Svc: svc, Store: store}
}

// RegisterRoutes mounts all API routes on the given group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/workflows", h.ListWorkflows)
	g.POST("/workflows", h.CreateWorkflow)
	g.GET("/workflows/:id", h.GetWorkflow)
	g.DELETE("/workflows/:id", h.DeleteWorkflow)
	g.POST("/workflows/:id/run-step", h.RunStep)
	g.GET("/workflows/:id/step-status", h.StepStatus)
	g.POST("/workflows/:id/advance", h.AdvanceWorkflow)

	g.GET("/jobs", h.ListJobs)
	g.POST("/jobs", h.CreateJob)
	g.GET("/jobs/:id", h.GetJob)

	g.GET("/billing/usage", h.GetUsage)
	g.POST("/billing/upgrade", h.UpgradePlan)
}

// HandleHealth returns basic health status (always returns 200 OK).
func (h *Handler) HandleHealth(c echo.Context) error {
	status := models.HealthStatus{
		Status:    "ok",
		Service:   "agentic-hr",
		Version:   "1.0.0",
		Timestamp: time.Now(),
	}
	return c.JSON(http.StatusOK, status)
}

// orgID extracts the caller's organization from the request context, set by
// the auth middleware.
func orgID(c echo.Context) (string, error) {
	id, ok := c.Request().Context().Value("org_id").(string)
	if !ok || id == "" {
		return "", problem(c, http.StatusUnauthorized, "Unauthorized", "organization not found in request context")
	}
	return id, nil
}

// problem writes an RFC 7807 Problem Details JSON error response.
func problem(c echo.Context, status int, title, detail string) error {
	p := models.ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	}
	body, err := json.Marshal(p)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to encode error response")
	}
	return c.Blob(status, "application/problem+json", body)
}

// fail maps a service error onto the wire taxonomy. Every rejected
// operation carries its reason; nothing was partially written.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return problem(c, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, models.ErrInvalidTransition):
		return problem(c, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, repository.ErrQuotaExceeded):
		return problem(c, http.StatusTooManyRequests, "Quota Exceeded", err.Error())
	case errors.Is(err, services.ErrGatewayUnavailable), errors.Is(err, services.ErrGatewayRejected):
		return problem(c, http.StatusBadGateway, "Agent Bridge Error", err.Error())
	default:
		return problem(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}
