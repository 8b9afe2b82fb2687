package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"agentic-hr/backend/pkg/models"
)

// ListJobs returns the organization's job requisitions
// (GET /api/v1/jobs)
func (h *Handler) ListJobs(c echo.Context) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	jobs, err := h.Store.ListJobs(c.Request().Context(), org)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, jobs)
}

// CreateJob creates a job requisition
// (POST /api/v1/jobs)
func (h *Handler) CreateJob(c echo.Context) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var job models.Job
	if err := c.Bind(&job); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	if job.Title == "" || job.Role == "" {
		return problem(c, http.StatusBadRequest, "Bad Request", "title and role are required")
	}
	job.OrganizationID = org
	if err := h.Store.CreateJob(c.Request().Context(), &job); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, job)
}

// GetJob returns a single job requisition
// (GET /api/v1/jobs/:id)
func (h *Handler) GetJob(c echo.Context) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	job, err := h.Store.GetJob(c.Request().Context(), org, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, job)
}
