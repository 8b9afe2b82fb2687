package models

import (
	"errors"
	"fmt"
	"time"
)

// AgentKind identifies the external agent bound to a pipeline step.
type AgentKind string

const (
	AgentResumeScreener   AgentKind = "resume_screener"
	AgentVoiceCaller      AgentKind = "voice_caller"
	AgentCalendar         AgentKind = "calendar_agent"
	AgentInterview        AgentKind = "interview_agent"
	AgentTranscriptScorer AgentKind = "transcript_scorer"
	AgentOfferLetter      AgentKind = "offer_letter"
)

// Pipeline is the fixed agent order every hiring workflow runs through.
// The step set is not user-defined; one workflow advances one candidate
// pipeline through these six agents in sequence.
var Pipeline = []AgentKind{
	AgentResumeScreener,
	AgentVoiceCaller,
	AgentCalendar,
	AgentInterview,
	AgentTranscriptScorer,
	AgentOfferLetter,
}

// StepStatus is the lifecycle state of a single pipeline step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	// StepSkipped is a valid terminal state reserved for operator
	// overrides; the orchestration core never produces it.
	StepSkipped StepStatus = "skipped"
)

// Terminal reports whether the status ends a step's lifecycle.
func (s StepStatus) Terminal() bool {
	return s == StepCompleted || s == StepFailed || s == StepSkipped
}

// WorkflowStatus is the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowDraft     WorkflowStatus = "draft"
	WorkflowActive    WorkflowStatus = "active"
	WorkflowPaused    WorkflowStatus = "paused"
	WorkflowCompleted WorkflowStatus = "completed"
	// WorkflowFailed is reachable only through explicit operator action.
	// A failed step leaves the workflow active awaiting retry or advance.
	WorkflowFailed WorkflowStatus = "failed"
)

// ErrInvalidTransition is returned when an operation would violate the
// workflow state machine (dispatching a running step, advancing past an
// incomplete step, and so on).
var ErrInvalidTransition = errors.New("invalid workflow transition")

// Step is one stage of a workflow's pipeline. Steps have no lifecycle of
// their own; they live inside the owning workflow record and are addressed
// by index.
type Step struct {
	Agent       AgentKind              `json:"agent"`
	Status      StepStatus             `json:"status"`
	TaskID      string                 `json:"task_id,omitempty"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Result      map[string]interface{} `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// WorkflowConfig controls how a workflow reacts to step completion.
type WorkflowConfig struct {
	AutoAdvance      bool `json:"auto_advance"`
	NotifyOnComplete bool `json:"notify_on_complete"`
}

// WorkflowStats aggregates candidate counts reported by agents.
type WorkflowStats struct {
	TotalCandidates int `json:"total_candidates"`
	Shortlisted     int `json:"shortlisted"`
	Interviewed     int `json:"interviewed"`
	Offered         int `json:"offered"`
}

// Workflow is one hiring pipeline run against a single job requisition.
// The step slice is embedded so the whole aggregate is read and written as
// one record; that is what keeps the single-running-step invariant
// enforceable with a single atomic update.
type Workflow struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	JobID          string         `json:"job_id"`
	Name           string         `json:"name"`
	Status         WorkflowStatus `json:"status"`
	CurrentStep    int            `json:"current_step"`
	Steps          []Step         `json:"steps"`
	Config         WorkflowConfig `json:"config"`
	Stats          WorkflowStats  `json:"stats"`
	CreatedBy      string         `json:"created_by,omitempty"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewWorkflow builds a draft workflow with the fixed pipeline, all steps
// pending and the cursor at step zero.
func NewWorkflow(orgID, jobID, name string, cfg WorkflowConfig) *Workflow {
	steps := make([]Step, len(Pipeline))
	for i, agent := range Pipeline {
		steps[i] = Step{Agent: agent, Status: StepPending}
	}
	return &Workflow{
		OrganizationID: orgID,
		JobID:          jobID,
		Name:           name,
		Status:         WorkflowDraft,
		CurrentStep:    0,
		Steps:          steps,
		Config:         cfg,
	}
}

// Current returns the step the cursor points at.
func (w *Workflow) Current() *Step {
	if w.CurrentStep < 0 || w.CurrentStep >= len(w.Steps) {
		return nil
	}
	return &w.Steps[w.CurrentStep]
}

// RunningStep returns the index of the running step, or -1 when none is.
func (w *Workflow) RunningStep() int {
	for i := range w.Steps {
		if w.Steps[i].Status == StepRunning {
			return i
		}
	}
	return -1
}

// Progress is the percentage of completed steps.
func (w *Workflow) Progress() int {
	if len(w.Steps) == 0 {
		return 0
	}
	done := 0
	for i := range w.Steps {
		if w.Steps[i].Status == StepCompleted {
			done++
		}
	}
	return done * 100 / len(w.Steps)
}

// CanBeginStep checks whether the current step may be dispatched. A step is
// dispatchable when it is pending or failed (failed permits retry) and no
// other step of the workflow is running. The check is separate from
// BeginStep so callers can validate before spending quota or calling the
// agent bridge.
func (w *Workflow) CanBeginStep() error {
	step := w.Current()
	if step == nil {
		return fmt.Errorf("%w: no step at index %d", ErrInvalidTransition, w.CurrentStep)
	}
	if step.Status == StepRunning {
		return fmt.Errorf("%w: step %d already running", ErrInvalidTransition, w.CurrentStep)
	}
	if step.Status != StepPending && step.Status != StepFailed {
		return fmt.Errorf("%w: step %d is %s, not dispatchable", ErrInvalidTransition, w.CurrentStep, step.Status)
	}
	if i := w.RunningStep(); i >= 0 {
		return fmt.Errorf("%w: step %d still running", ErrInvalidTransition, i)
	}
	return nil
}

// BeginStep marks the current step running with the task handle returned by
// the agent bridge. The first dispatch flips a draft workflow to active.
func (w *Workflow) BeginStep(taskID string, now time.Time) error {
	if err := w.CanBeginStep(); err != nil {
		return err
	}
	step := w.Current()
	step.Status = StepRunning
	step.TaskID = taskID
	step.StartedAt = &now
	step.CompletedAt = nil
	step.Result = nil
	step.Error = ""
	if w.Status == WorkflowDraft {
		w.Status = WorkflowActive
		w.StartedAt = &now
	}
	return nil
}

// FinishStep applies a terminal agent report to the running current step:
// records result or error, updates candidate stats from screening results,
// and auto-advances when configured. A failed step leaves the workflow
// active; only an operator decides what happens next.
func (w *Workflow) FinishStep(status StepStatus, result map[string]interface{}, errMsg string, now time.Time) error {
	if status != StepCompleted && status != StepFailed {
		return fmt.Errorf("%w: %s is not a terminal step status", ErrInvalidTransition, status)
	}
	step := w.Current()
	if step == nil || step.Status != StepRunning {
		return fmt.Errorf("%w: current step is not running", ErrInvalidTransition)
	}
	step.Status = status
	step.CompletedAt = &now
	step.Result = result
	step.Error = errMsg

	if step.Agent == AgentResumeScreener && result != nil {
		if n, ok := intField(result, "total_candidates"); ok {
			w.Stats.TotalCandidates = n
		}
		if n, ok := intField(result, "shortlisted"); ok {
			w.Stats.Shortlisted = n
		}
	}

	if status == StepCompleted && w.Config.AutoAdvance {
		w.advanceCursor(now)
	}
	return nil
}

// Advance moves the cursor to the next step, requiring the current step to
// be completed. Advancing past the final step completes the workflow.
// Calling Advance on an already completed workflow is a no-op, not an error.
func (w *Workflow) Advance(now time.Time) error {
	if w.Status == WorkflowCompleted {
		return nil
	}
	step := w.Current()
	if step == nil || step.Status != StepCompleted {
		return fmt.Errorf("%w: current step not completed", ErrInvalidTransition)
	}
	w.advanceCursor(now)
	return nil
}

// advanceCursor is the shared tail of auto-advance and manual advance: bump
// the cursor by one, or complete the workflow when the last step is done.
// Callers have already verified the current step is completed.
func (w *Workflow) advanceCursor(now time.Time) {
	if w.CurrentStep < len(w.Steps)-1 {
		w.CurrentStep++
		return
	}
	w.Status = WorkflowCompleted
	w.CompletedAt = &now
}

// intField reads a numeric field out of an agent result payload. JSON
// decoding yields float64 for numbers, but results assembled in Go carry
// plain ints.
func intField(m map[string]interface{}, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
