package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"agentic-hr/backend/internal/services"
)

// ListWorkflows returns all workflows of the caller's organization
// (GET /api/v1/workflows)
func (h *Handler) ListWorkflows(c echo.Context) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	workflows, err := h.Svc.ListWorkflows(c.Request().Context(), org)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, workflows)
}

// CreateWorkflow creates a workflow with the fixed six-step pipeline
// (POST /api/v1/workflows)
func (h *Handler) CreateWorkflow(c echo.Context) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var in services.CreateWorkflowInput
	if err := c.Bind(&in); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	if in.JobID == "" {
		return problem(c, http.StatusBadRequest, "Bad Request", "job_id is required")
	}
	wf, err := h.Svc.CreateWorkflow(c.Request().Context(), org, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, wf)
}

// GetWorkflow returns a single workflow
// (GET /api/v1/workflows/:id)
func (h *Handler) GetWorkflow(c echo.Context) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	wf, err := h.Svc.GetWorkflow(c.Request().Context(), org, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, wf)
}

// DeleteWorkflow removes a workflow unconditionally
// (DELETE /api/v1/workflows/:id)
func (h *Handler) DeleteWorkflow(c echo.Context) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteWorkflow(c.Request().Context(), org, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "workflow deleted"})
}

// RunStep dispatches the workflow's current step to the agent bridge
// (POST /api/v1/workflows/:id/run-step)
func (h *Handler) RunStep(c echo.Context) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var opts services.RunStepOptions
	if err := c.Bind(&opts); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	res, err := h.Svc.RunStep(c.Request().Context(), org, c.Param("id"), opts)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// StepStatus polls the agent bridge for the current step and applies any
// terminal outcome
// (GET /api/v1/workflows/:id/step-status)
func (h *Handler) StepStatus(c echo.Context) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	outcome, err := h.Svc.CheckStep(c.Request().Context(), org, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, outcome)
}

// AdvanceWorkflow manually moves the workflow to its next step
// (POST /api/v1/workflows/:id/advance)
func (h *Handler) AdvanceWorkflow(c echo.Context) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	wf, err := h.Svc.Advance(c.Request().Context(), org, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, wf)
}
