package services

import (
	"context"

	"agentic-hr/backend/pkg/models"
)

// Orchestrator is the workflow operation surface consumed by the HTTP API
// and the MCP tool layer.
type Orchestrator interface {
	CreateWorkflow(ctx context.Context, orgID string, in CreateWorkflowInput) (*models.Workflow, error)
	GetWorkflow(ctx context.Context, orgID, id string) (*models.Workflow, error)
	ListWorkflows(ctx context.Context, orgID string) ([]*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, orgID, id string) error
	RunStep(ctx context.Context, orgID, id string, opts RunStepOptions) (*RunStepResult, error)
	CheckStep(ctx context.Context, orgID, id string) (*StepOutcome, error)
	Advance(ctx context.Context, orgID, id string) (*models.Workflow, error)
}
