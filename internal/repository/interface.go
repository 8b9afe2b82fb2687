package repository

import (
	"context"
	"errors"

	"agentic-hr/backend/pkg/models"
)

// ErrNotFound is returned when a record does not exist or is not visible to
// the caller's organization. Both cases share one error so a caller cannot
// probe for records owned by another organization.
var ErrNotFound = errors.New("record not found")

// ErrQuotaExceeded is returned by ConsumeWorkflowRun when the organization
// has used up its plan's workflow runs for the period.
var ErrQuotaExceeded = errors.New("workflow run quota exceeded")

// OrganizationStore persists organizations.
type OrganizationStore interface {
	CreateOrganization(ctx context.Context, org *models.Organization) error
	GetOrganizationByDomain(ctx context.Context, domain string) (*models.Organization, error)
}

// SubscriptionStore persists subscriptions and guards the shared usage
// counter. ConsumeWorkflowRun must behave as a single compare-and-increment:
// two concurrent dispatches may never both pass the limit check against a
// stale counter.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	GetSubscription(ctx context.Context, orgID string) (*models.Subscription, error)
	UpdateSubscriptionPlan(ctx context.Context, orgID string, plan models.Plan, limits models.PlanLimits) error
	// ConsumeWorkflowRun atomically spends one workflow run, returning
	// ErrQuotaExceeded without incrementing when the limit is reached.
	ConsumeWorkflowRun(ctx context.Context, orgID string) error
	// ReleaseWorkflowRun refunds one run, used when the agent dispatch
	// that the run was spent on never happened.
	ReleaseWorkflowRun(ctx context.Context, orgID string) error
}

// JobStore persists job requisitions, scoped by organization.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, orgID, id string) (*models.Job, error)
	ListJobs(ctx context.Context, orgID string) ([]*models.Job, error)
}

// WorkflowStore persists workflow aggregates. The step array is stored
// inline with the workflow so every mutation is one read-modify-write of a
// single row.
type WorkflowStore interface {
	CreateWorkflow(ctx context.Context, wf *models.Workflow) error
	GetWorkflow(ctx context.Context, orgID, id string) (*models.Workflow, error)
	ListWorkflows(ctx context.Context, orgID string) ([]*models.Workflow, error)
	UpdateWorkflow(ctx context.Context, wf *models.Workflow) error
	DeleteWorkflow(ctx context.Context, orgID, id string) error
}

// Store is the full persistence surface of the service.
type Store interface {
	OrganizationStore
	SubscriptionStore
	JobStore
	WorkflowStore
	Ping(ctx context.Context) error
}
