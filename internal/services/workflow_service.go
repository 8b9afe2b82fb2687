package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"agentic-hr/backend/internal/repository"
	"agentic-hr/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// CreateWorkflowInput carries the caller-supplied fields for a new workflow.
type CreateWorkflowInput struct {
	JobID       string `json:"job_id"`
	Name        string `json:"name,omitempty"`
	AutoAdvance bool   `json:"auto_advance"`
	CreatedBy   string `json:"-"`
}

// RunStepOptions carries step-specific fields supplied by the caller:
// a callback server URL for the voice caller, recipient and terms for the
// offer letter. Unused fields are ignored by other agents.
type RunStepOptions struct {
	ServerURL      string `json:"server_url,omitempty"`
	CandidateEmail string `json:"candidate_email,omitempty"`
	Salary         string `json:"salary,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
}

// RunStepResult is the outcome of a successful dispatch.
type RunStepResult struct {
	Workflow *models.Workflow `json:"workflow"`
	TaskID   string           `json:"task_id"`
}

// StepOutcome reports the result of one reconcile pass over the current
// step. When the step was not running the outcome just echoes its status.
type StepOutcome struct {
	StepStatus models.StepStatus      `json:"step_status"`
	TaskStatus string                 `json:"task_status,omitempty"`
	Result     map[string]interface{} `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Workflow   *models.Workflow       `json:"workflow,omitempty"`
}

// WorkflowService is the orchestration core: it owns dispatching the
// current step to the agent bridge, reconciling asynchronous completion by
// polling, and advancing the pipeline. All mutations of one workflow are
// serialized through a per-workflow lock; the quota counter is guarded by
// an atomic increment in the store.
type WorkflowService struct {
	store  repository.Store
	bridge AgentBridgeClient
	logger Logger
	locks  *workflowLocks
	now    func() time.Time

	stepsDispatched metric.Int64Counter
	stepsReconciled metric.Int64Counter
	quotaRejections metric.Int64Counter
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(store repository.Store, bridge AgentBridgeClient, logger Logger) *WorkflowService {
	meter := otel.Meter("agentic-hr/backend/workflow")
	dispatched, _ := meter.Int64Counter("workflow.steps.dispatched",
		metric.WithDescription("Steps dispatched to the agent bridge"))
	reconciled, _ := meter.Int64Counter("workflow.steps.reconciled",
		metric.WithDescription("Steps observed reaching a terminal status"))
	rejections, _ := meter.Int64Counter("workflow.quota.rejections",
		metric.WithDescription("Dispatches rejected by the subscription quota"))

	return &WorkflowService{
		store:           store,
		bridge:          bridge,
		logger:          logger,
		locks:           newWorkflowLocks(),
		now:             func() time.Time { return time.Now().UTC() },
		stepsDispatched: dispatched,
		stepsReconciled: reconciled,
		quotaRejections: rejections,
	}
}

// CreateWorkflow builds a draft workflow with the fixed six-step pipeline
// for a job owned by the caller's organization.
func (s *WorkflowService) CreateWorkflow(ctx context.Context, orgID string, in CreateWorkflowInput) (*models.Workflow, error) {
	job, err := s.store.GetJob(ctx, orgID, in.JobID)
	if err != nil {
		return nil, err
	}

	name := in.Name
	if name == "" {
		name = "Workflow for " + job.Title
	}
	wf := models.NewWorkflow(orgID, job.ID, name, models.WorkflowConfig{
		AutoAdvance:      in.AutoAdvance,
		NotifyOnComplete: true,
	})
	wf.CreatedBy = in.CreatedBy

	if err := s.store.CreateWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}
	s.logger.Info("workflow created", "workflow_id", wf.ID, "job_id", job.ID, "auto_advance", in.AutoAdvance)
	return wf, nil
}

// GetWorkflow fetches one workflow scoped to the organization.
func (s *WorkflowService) GetWorkflow(ctx context.Context, orgID, id string) (*models.Workflow, error) {
	return s.store.GetWorkflow(ctx, orgID, id)
}

// ListWorkflows lists the organization's workflows.
func (s *WorkflowService) ListWorkflows(ctx context.Context, orgID string) ([]*models.Workflow, error) {
	return s.store.ListWorkflows(ctx, orgID)
}

// DeleteWorkflow removes a workflow unconditionally.
func (s *WorkflowService) DeleteWorkflow(ctx context.Context, orgID, id string) error {
	unlock := s.locks.acquire(id)
	defer unlock()
	return s.store.DeleteWorkflow(ctx, orgID, id)
}

// RunStep dispatches the workflow's current step to the agent bridge.
// Order of operations matters: the state machine is validated first, then
// one quota unit is spent atomically, then the bridge is called. If the
// bridge call fails the quota unit is refunded and no workflow state is
// written, so the caller can retry the same request.
func (s *WorkflowService) RunStep(ctx context.Context, orgID, id string, opts RunStepOptions) (*RunStepResult, error) {
	unlock := s.locks.acquire(id)
	defer unlock()

	wf, err := s.store.GetWorkflow(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := wf.CanBeginStep(); err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, orgID, wf.JobID)
	if err != nil {
		return nil, err
	}

	if err := s.store.ConsumeWorkflowRun(ctx, orgID); err != nil {
		if errors.Is(err, repository.ErrQuotaExceeded) {
			s.quotaRejections.Add(ctx, 1)
		}
		return nil, err
	}

	step := wf.Current()
	payload := buildAgentPayload(job, step.Agent, opts)
	taskID, err := s.bridge.Dispatch(ctx, step.Agent, payload)
	if err != nil {
		// The run was never started; give the quota unit back. A failed
		// refund only over-counts usage, it cannot corrupt the workflow.
		if releaseErr := s.store.ReleaseWorkflowRun(ctx, orgID); releaseErr != nil {
			s.logger.Error("failed to release workflow run", "org_id", orgID, "error", releaseErr)
		}
		return nil, err
	}

	if err := wf.BeginStep(taskID, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to persist dispatched step: %w", err)
	}

	s.stepsDispatched.Add(ctx, 1, metric.WithAttributes(attribute.String("agent", string(step.Agent))))
	s.logger.Info("step dispatched", "workflow_id", wf.ID, "step", wf.CurrentStep, "agent", step.Agent, "task_id", taskID)
	return &RunStepResult{Workflow: wf, TaskID: taskID}, nil
}

// CheckStep polls the bridge for the current step and applies any terminal
// outcome. It is safe to invoke speculatively: when the current step is not
// running (or the bridge no longer knows the handle) it reports the step's
// status without touching state.
func (s *WorkflowService) CheckStep(ctx context.Context, orgID, id string) (*StepOutcome, error) {
	unlock := s.locks.acquire(id)
	defer unlock()

	wf, err := s.store.GetWorkflow(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	step := wf.Current()
	if step == nil {
		return &StepOutcome{Workflow: wf}, nil
	}
	if step.Status != models.StepRunning || step.TaskID == "" {
		return &StepOutcome{StepStatus: step.Status, Workflow: wf}, nil
	}

	task, err := s.bridge.Poll(ctx, step.TaskID)
	if err != nil {
		if errors.Is(err, ErrUnknownTask) {
			s.logger.Debug("stale task handle ignored", "workflow_id", wf.ID, "task_id", step.TaskID)
			return &StepOutcome{StepStatus: step.Status, Workflow: wf}, nil
		}
		return nil, err
	}

	if !task.Terminal() {
		return &StepOutcome{StepStatus: step.Status, TaskStatus: task.Status, Workflow: wf}, nil
	}

	if err := wf.FinishStep(models.StepStatus(task.Status), task.Result, task.Error, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to persist step outcome: %w", err)
	}

	s.stepsReconciled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("agent", string(step.Agent)),
		attribute.String("status", task.Status),
	))
	s.logger.Info("step reconciled", "workflow_id", wf.ID, "agent", step.Agent, "status", task.Status)
	return &StepOutcome{
		StepStatus: models.StepStatus(task.Status),
		TaskStatus: task.Status,
		Result:     task.Result,
		Error:      task.Error,
		Workflow:   wf,
	}, nil
}

// Advance manually moves the workflow to its next step. The current step
// must be completed; advancing a completed workflow is a no-op.
func (s *WorkflowService) Advance(ctx context.Context, orgID, id string) (*models.Workflow, error) {
	unlock := s.locks.acquire(id)
	defer unlock()

	wf, err := s.store.GetWorkflow(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if wf.Status == models.WorkflowCompleted {
		return wf, nil
	}
	if err := wf.Advance(s.now()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to persist advance: %w", err)
	}
	s.logger.Info("workflow advanced", "workflow_id", wf.ID, "current_step", wf.CurrentStep, "status", wf.Status)
	return wf, nil
}

// buildAgentPayload assembles the request body for an agent run from the
// job's requirements plus the caller-supplied options.
func buildAgentPayload(job *models.Job, agent models.AgentKind, opts RunStepOptions) map[string]interface{} {
	switch agent {
	case models.AgentResumeScreener:
		return map[string]interface{}{
			"job_id":         job.JobCode,
			"role":           job.Role,
			"min_experience": job.Requirements.MinExperience,
			"location":       job.Requirements.Location,
			"salary_range":   job.Requirements.SalaryRange,
		}
	case models.AgentVoiceCaller:
		return map[string]interface{}{
			"job_id":       job.JobCode,
			"server_url":   opts.ServerURL,
			"role":         job.Role,
			"salary_range": job.Requirements.SalaryRange,
		}
	case models.AgentOfferLetter:
		return map[string]interface{}{
			"job_id":          job.JobCode,
			"candidate_email": opts.CandidateEmail,
			"salary":          opts.Salary,
			"start_date":      opts.StartDate,
		}
	default:
		// calendar, interview and transcript scorer only need the job.
		return map[string]interface{}{"job_id": job.JobCode}
	}
}
