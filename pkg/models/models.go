// Package models defines the domain models for the hiring platform service
package models

import (
	"time"
)

// Plan names the subscription tier of an organization.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// UnlimitedRuns is the sentinel plan limit meaning no cap on workflow runs.
const UnlimitedRuns = -1

// PlanLimits describes what a plan allows per billing period.
type PlanLimits struct {
	WorkflowsPerMonth int `json:"workflows_per_month"`
	CandidatesPerJob  int `json:"candidates_per_job"`
	TeamMembers       int `json:"team_members"`
}

// Plans is the plan catalogue. Enterprise is uncapped via the sentinel.
var Plans = map[Plan]PlanLimits{
	PlanFree:       {WorkflowsPerMonth: 10, CandidatesPerJob: 100, TeamMembers: 3},
	PlanStarter:    {WorkflowsPerMonth: 50, CandidatesPerJob: 500, TeamMembers: 10},
	PlanPro:        {WorkflowsPerMonth: 200, CandidatesPerJob: 2000, TeamMembers: 50},
	PlanEnterprise: {WorkflowsPerMonth: UnlimitedRuns, CandidatesPerJob: UnlimitedRuns, TeamMembers: UnlimitedRuns},
}

// Organization is the tenant boundary. Every job, workflow and subscription
// belongs to exactly one organization.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subscription tracks an organization's plan and its consumed workflow
// runs. The usage counter is shared by all workflows of the organization
// and only ever changes through an atomic database increment.
type Subscription struct {
	ID                string    `json:"id"`
	OrganizationID    string    `json:"organization_id"`
	Plan              Plan      `json:"plan"`
	WorkflowsPerMonth int       `json:"workflows_per_month"`
	WorkflowsUsed     int       `json:"workflows_used"`
	PeriodStart       time.Time `json:"period_start"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Remaining returns the runs left this period, or UnlimitedRuns.
func (s *Subscription) Remaining() int {
	if s.WorkflowsPerMonth == UnlimitedRuns {
		return UnlimitedRuns
	}
	if left := s.WorkflowsPerMonth - s.WorkflowsUsed; left > 0 {
		return left
	}
	return 0
}

// JobStatus is the lifecycle state of a job requisition.
type JobStatus string

const (
	JobDraft  JobStatus = "draft"
	JobOpen   JobStatus = "open"
	JobPaused JobStatus = "paused"
	JobClosed JobStatus = "closed"
	JobFilled JobStatus = "filled"
)

// JobRequirements holds the screening criteria agents are briefed with.
type JobRequirements struct {
	MinExperience float64  `json:"min_experience"`
	Location      string   `json:"location,omitempty"`
	SalaryRange   string   `json:"salary_range,omitempty"`
	Skills        []string `json:"skills,omitempty"`
	Education     string   `json:"education,omitempty"`
}

// Job is a hiring requisition. Its requirements feed the payloads sent to
// the external agents when a workflow step is dispatched.
type Job struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	JobCode        string          `json:"job_code"`
	Title          string          `json:"title"`
	Department     string          `json:"department,omitempty"`
	Role           string          `json:"role"`
	Description    string          `json:"description,omitempty"`
	Requirements   JobRequirements `json:"requirements"`
	Status         JobStatus       `json:"status"`
	CreatedBy      string          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// HealthStatus represents service health
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}
