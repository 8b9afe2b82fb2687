package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"agentic-hr/backend/pkg/models"
)

// usageResponse reports workflow-run consumption for the current period.
type usageResponse struct {
	Plan      models.Plan `json:"plan"`
	Used      int         `json:"used"`
	Limit     int         `json:"limit"`
	Remaining interface{} `json:"remaining"` // number, or "unlimited"
}

// GetUsage returns the organization's workflow-run usage
// (GET /api/v1/billing/usage)
func (h *Handler) GetUsage(c echo.Context) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	sub, err := h.Store.GetSubscription(c.Request().Context(), org)
	if err != nil {
		return fail(c, err)
	}
	resp := usageResponse{
		Plan:  sub.Plan,
		Used:  sub.WorkflowsUsed,
		Limit: sub.WorkflowsPerMonth,
	}
	if sub.WorkflowsPerMonth == models.UnlimitedRuns {
		resp.Remaining = "unlimited"
	} else {
		resp.Remaining = sub.Remaining()
	}
	return c.JSON(http.StatusOK, resp)
}

// UpgradePlan swaps the organization's plan and limits
// (POST /api/v1/billing/upgrade)
func (h *Handler) UpgradePlan(c echo.Context) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var in struct {
		Plan models.Plan `json:"plan"`
	}
	if err := c.Bind(&in); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	limits, ok := models.Plans[in.Plan]
	if !ok {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid plan")
	}
	if err := h.Store.UpdateSubscriptionPlan(c.Request().Context(), org, in.Plan, limits); err != nil {
		return fail(c, err)
	}
	sub, err := h.Store.GetSubscription(c.Request().Context(), org)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sub)
}
