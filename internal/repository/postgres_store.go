package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agentic-hr/backend/pkg/models"
)

// PostgresStore is the PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// CreateOrganization inserts a new organization.
func (s *PostgresStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	org.CreatedAt = now
	org.UpdatedAt = now
	_, err := s.db.Exec(ctx,
		`INSERT INTO organizations (id, name, domain, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		org.ID, org.Name, org.Domain, org.CreatedAt, org.UpdatedAt)
	return err
}

// GetOrganizationByDomain looks up an organization by its email domain.
func (s *PostgresStore) GetOrganizationByDomain(ctx context.Context, domain string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.QueryRow(ctx,
		`SELECT id, name, domain, created_at, updated_at FROM organizations WHERE domain = $1`,
		domain).Scan(&org.ID, &org.Name, &org.Domain, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &org, nil
}

// CreateSubscription inserts a subscription for an organization.
func (s *PostgresStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if sub.PeriodStart.IsZero() {
		sub.PeriodStart = now
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO subscriptions (id, organization_id, plan, workflows_per_month, workflows_used, period_start, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sub.ID, sub.OrganizationID, sub.Plan, sub.WorkflowsPerMonth, sub.WorkflowsUsed, sub.PeriodStart, sub.CreatedAt, sub.UpdatedAt)
	return err
}

// GetSubscription fetches the subscription of an organization.
func (s *PostgresStore) GetSubscription(ctx context.Context, orgID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.QueryRow(ctx,
		`SELECT id, organization_id, plan, workflows_per_month, workflows_used, period_start, created_at, updated_at
		 FROM subscriptions WHERE organization_id = $1`,
		orgID).Scan(&sub.ID, &sub.OrganizationID, &sub.Plan, &sub.WorkflowsPerMonth, &sub.WorkflowsUsed,
		&sub.PeriodStart, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &sub, nil
}

// UpdateSubscriptionPlan swaps the plan and its limits.
func (s *PostgresStore) UpdateSubscriptionPlan(ctx context.Context, orgID string, plan models.Plan, limits models.PlanLimits) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE subscriptions SET plan = $1, workflows_per_month = $2, updated_at = $3 WHERE organization_id = $4`,
		plan, limits.WorkflowsPerMonth, time.Now().UTC(), orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeWorkflowRun spends one workflow run with a single conditional
// increment. The WHERE clause carries the limit check so two concurrent
// dispatches can never both pass it against a stale counter; -1 means the
// plan is uncapped.
func (s *PostgresStore) ConsumeWorkflowRun(ctx context.Context, orgID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE subscriptions
		 SET workflows_used = workflows_used + 1, updated_at = $2
		 WHERE organization_id = $1
		   AND (workflows_per_month = -1 OR workflows_used < workflows_per_month)`,
		orgID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing subscription from an exhausted one.
		if _, err := s.GetSubscription(ctx, orgID); err != nil {
			return err
		}
		return ErrQuotaExceeded
	}
	return nil
}

// ReleaseWorkflowRun refunds one run, clamped at zero.
func (s *PostgresStore) ReleaseWorkflowRun(ctx context.Context, orgID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE subscriptions
		 SET workflows_used = GREATEST(workflows_used - 1, 0), updated_at = $2
		 WHERE organization_id = $1`,
		orgID, time.Now().UTC())
	return err
}

// CreateJob inserts a job requisition, assigning a sequential job code.
func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = models.JobDraft
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.JobCode == "" {
		var seq int64
		if err := s.db.QueryRow(ctx, `SELECT nextval('job_code_seq')`).Scan(&seq); err != nil {
			return fmt.Errorf("failed to allocate job code: %w", err)
		}
		job.JobCode = fmt.Sprintf("J%04d", seq)
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO jobs (id, organization_id, job_code, title, department, role, description, requirements, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		job.ID, job.OrganizationID, job.JobCode, job.Title, job.Department, job.Role, job.Description,
		job.Requirements, job.Status, job.CreatedBy, job.CreatedAt, job.UpdatedAt)
	return err
}

// GetJob fetches a job scoped to the caller's organization.
func (s *PostgresStore) GetJob(ctx context.Context, orgID, id string) (*models.Job, error) {
	var job models.Job
	err := s.db.QueryRow(ctx,
		`SELECT id, organization_id, job_code, title, department, role, description, requirements, status, created_by, created_at, updated_at
		 FROM jobs WHERE id = $1 AND organization_id = $2`,
		id, orgID).Scan(&job.ID, &job.OrganizationID, &job.JobCode, &job.Title, &job.Department, &job.Role,
		&job.Description, &job.Requirements, &job.Status, &job.CreatedBy, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &job, nil
}

// ListJobs lists an organization's jobs, newest first.
func (s *PostgresStore) ListJobs(ctx context.Context, orgID string) ([]*models.Job, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, organization_id, job_code, title, department, role, description, requirements, status, created_by, created_at, updated_at
		 FROM jobs WHERE organization_id = $1 ORDER BY created_at DESC`,
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		var job models.Job
		if err := rows.Scan(&job.ID, &job.OrganizationID, &job.JobCode, &job.Title, &job.Department, &job.Role,
			&job.Description, &job.Requirements, &job.Status, &job.CreatedBy, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

const workflowColumns = `id, organization_id, job_id, name, status, current_step, steps,
	auto_advance, notify_on_complete, stats, created_by, started_at, completed_at, created_at, updated_at`

// CreateWorkflow inserts a workflow aggregate, steps inline as JSONB.
func (s *PostgresStore) CreateWorkflow(ctx context.Context, wf *models.Workflow) error {
	if wf.ID == "" {
		wf.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	wf.CreatedAt = now
	wf.UpdatedAt = now
	_, err := s.db.Exec(ctx,
		`INSERT INTO workflows (`+workflowColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		wf.ID, wf.OrganizationID, wf.JobID, wf.Name, wf.Status, wf.CurrentStep, wf.Steps,
		wf.Config.AutoAdvance, wf.Config.NotifyOnComplete, wf.Stats, wf.CreatedBy,
		wf.StartedAt, wf.CompletedAt, wf.CreatedAt, wf.UpdatedAt)
	return err
}

// GetWorkflow fetches a workflow scoped to the caller's organization.
func (s *PostgresStore) GetWorkflow(ctx context.Context, orgID, id string) (*models.Workflow, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE id = $1 AND organization_id = $2`,
		id, orgID)
	wf, err := scanWorkflow(row)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return wf, nil
}

// ListWorkflows lists an organization's workflows, newest first.
func (s *PostgresStore) ListWorkflows(ctx context.Context, orgID string) ([]*models.Workflow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE organization_id = $1 ORDER BY created_at DESC`,
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

// UpdateWorkflow writes back the whole aggregate in one statement. Step
// status, cursor and stats always land together; no observer sees a
// completed step with a stale cursor.
func (s *PostgresStore) UpdateWorkflow(ctx context.Context, wf *models.Workflow) error {
	wf.UpdatedAt = time.Now().UTC()
	tag, err := s.db.Exec(ctx,
		`UPDATE workflows
		 SET status = $3, current_step = $4, steps = $5, auto_advance = $6, notify_on_complete = $7,
		     stats = $8, started_at = $9, completed_at = $10, updated_at = $11
		 WHERE id = $1 AND organization_id = $2`,
		wf.ID, wf.OrganizationID, wf.Status, wf.CurrentStep, wf.Steps,
		wf.Config.AutoAdvance, wf.Config.NotifyOnComplete, wf.Stats,
		wf.StartedAt, wf.CompletedAt, wf.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWorkflow removes a workflow unconditionally. Administrative; not
// gated by step status.
func (s *PostgresStore) DeleteWorkflow(ctx context.Context, orgID, id string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM workflows WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWorkflow(row pgx.Row) (*models.Workflow, error) {
	var wf models.Workflow
	err := row.Scan(&wf.ID, &wf.OrganizationID, &wf.JobID, &wf.Name, &wf.Status, &wf.CurrentStep, &wf.Steps,
		&wf.Config.AutoAdvance, &wf.Config.NotifyOnComplete, &wf.Stats, &wf.CreatedBy,
		&wf.StartedAt, &wf.CompletedAt, &wf.CreatedAt, &wf.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
