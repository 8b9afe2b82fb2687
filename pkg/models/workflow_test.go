package models

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkflow(autoAdvance bool) *Workflow {
	return NewWorkflow("org-1", "job-1", "Workflow for Backend Engineer", WorkflowConfig{
		AutoAdvance:      autoAdvance,
		NotifyOnComplete: true,
	})
}

func TestNewWorkflow(t *testing.T) {
	wf := newTestWorkflow(false)

	assert.Equal(t, WorkflowDraft, wf.Status)
	assert.Equal(t, 0, wf.CurrentStep)
	require.Len(t, wf.Steps, 6)
	for i, agent := range Pipeline {
		assert.Equal(t, agent, wf.Steps[i].Agent)
		assert.Equal(t, StepPending, wf.Steps[i].Status)
	}
}

func TestBeginStep(t *testing.T) {
	now := time.Now().UTC()

	t.Run("first dispatch activates workflow", func(t *testing.T) {
		wf := newTestWorkflow(false)
		require.NoError(t, wf.BeginStep("task-1", now))

		assert.Equal(t, WorkflowActive, wf.Status)
		assert.Equal(t, StepRunning, wf.Steps[0].Status)
		assert.Equal(t, "task-1", wf.Steps[0].TaskID)
		require.NotNil(t, wf.StartedAt)
		assert.Equal(t, now, *wf.StartedAt)
	})

	t.Run("dispatch while running is rejected without mutation", func(t *testing.T) {
		wf := newTestWorkflow(false)
		require.NoError(t, wf.BeginStep("task-1", now))

		err := wf.BeginStep("task-2", now.Add(time.Second))
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, "task-1", wf.Steps[0].TaskID)
		assert.Equal(t, now, *wf.Steps[0].StartedAt)
	})

	t.Run("failed step permits retry", func(t *testing.T) {
		wf := newTestWorkflow(false)
		require.NoError(t, wf.BeginStep("task-1", now))
		require.NoError(t, wf.FinishStep(StepFailed, nil, "agent crashed", now))

		require.NoError(t, wf.BeginStep("task-2", now))
		assert.Equal(t, StepRunning, wf.Steps[0].Status)
		assert.Equal(t, "task-2", wf.Steps[0].TaskID)
		assert.Empty(t, wf.Steps[0].Error)
	})

	t.Run("completed step is not dispatchable", func(t *testing.T) {
		wf := newTestWorkflow(false)
		require.NoError(t, wf.BeginStep("task-1", now))
		require.NoError(t, wf.FinishStep(StepCompleted, nil, "", now))

		assert.ErrorIs(t, wf.BeginStep("task-2", now), ErrInvalidTransition)
	})
}

func TestFinishStep(t *testing.T) {
	now := time.Now().UTC()

	t.Run("screening result feeds stats, no auto-advance", func(t *testing.T) {
		wf := newTestWorkflow(false)
		require.NoError(t, wf.BeginStep("task-1", now))

		result := map[string]interface{}{"total_candidates": float64(120), "shortlisted": float64(18)}
		require.NoError(t, wf.FinishStep(StepCompleted, result, "", now))

		assert.Equal(t, StepCompleted, wf.Steps[0].Status)
		assert.Equal(t, 120, wf.Stats.TotalCandidates)
		assert.Equal(t, 18, wf.Stats.Shortlisted)
		assert.Equal(t, 0, wf.CurrentStep, "cursor stays put without auto-advance")
		assert.Equal(t, WorkflowActive, wf.Status)
	})

	t.Run("auto-advance moves cursor to next pending step", func(t *testing.T) {
		wf := newTestWorkflow(true)
		require.NoError(t, wf.BeginStep("task-1", now))
		require.NoError(t, wf.FinishStep(StepCompleted, nil, "", now))

		assert.Equal(t, 1, wf.CurrentStep)
		assert.Equal(t, StepPending, wf.Steps[1].Status)
		assert.Equal(t, WorkflowActive, wf.Status)
	})

	t.Run("completing the final step completes the workflow", func(t *testing.T) {
		wf := newTestWorkflow(true)
		for i := 0; i < len(wf.Steps); i++ {
			require.NoError(t, wf.BeginStep("task", now))
			require.NoError(t, wf.FinishStep(StepCompleted, nil, "", now))
		}

		assert.Equal(t, WorkflowCompleted, wf.Status)
		assert.Equal(t, len(wf.Steps)-1, wf.CurrentStep)
		require.NotNil(t, wf.CompletedAt)
	})

	t.Run("failed step leaves the workflow active", func(t *testing.T) {
		wf := newTestWorkflow(true)
		require.NoError(t, wf.BeginStep("task-1", now))
		require.NoError(t, wf.FinishStep(StepFailed, nil, "no answer", now))

		assert.Equal(t, WorkflowActive, wf.Status)
		assert.Equal(t, 0, wf.CurrentStep, "failure never advances")
		assert.Equal(t, "no answer", wf.Steps[0].Error)
	})

	t.Run("non-terminal status is rejected", func(t *testing.T) {
		wf := newTestWorkflow(false)
		require.NoError(t, wf.BeginStep("task-1", now))
		assert.ErrorIs(t, wf.FinishStep(StepRunning, nil, "", now), ErrInvalidTransition)
	})

	t.Run("finish without running step is rejected", func(t *testing.T) {
		wf := newTestWorkflow(false)
		assert.ErrorIs(t, wf.FinishStep(StepCompleted, nil, "", now), ErrInvalidTransition)
	})
}

func TestAdvance(t *testing.T) {
	now := time.Now().UTC()

	t.Run("requires completed current step", func(t *testing.T) {
		wf := newTestWorkflow(false)
		assert.ErrorIs(t, wf.Advance(now), ErrInvalidTransition)

		require.NoError(t, wf.BeginStep("task-1", now))
		assert.ErrorIs(t, wf.Advance(now), ErrInvalidTransition)
	})

	t.Run("moves cursor after completion", func(t *testing.T) {
		wf := newTestWorkflow(false)
		require.NoError(t, wf.BeginStep("task-1", now))
		require.NoError(t, wf.FinishStep(StepCompleted, nil, "", now))

		require.NoError(t, wf.Advance(now))
		assert.Equal(t, 1, wf.CurrentStep)
	})

	t.Run("advancing past the last step completes, then is idempotent", func(t *testing.T) {
		wf := newTestWorkflow(false)
		for i := 0; i < len(wf.Steps); i++ {
			require.NoError(t, wf.BeginStep("task", now))
			require.NoError(t, wf.FinishStep(StepCompleted, nil, "", now))
			require.NoError(t, wf.Advance(now))
		}
		assert.Equal(t, WorkflowCompleted, wf.Status)
		assert.Equal(t, len(wf.Steps)-1, wf.CurrentStep)

		before := *wf
		require.NoError(t, wf.Advance(now.Add(time.Hour)))
		assert.Equal(t, before.Status, wf.Status)
		assert.Equal(t, before.CurrentStep, wf.CurrentStep)
		assert.Equal(t, *before.CompletedAt, *wf.CompletedAt)
	})
}

func TestProgress(t *testing.T) {
	now := time.Now().UTC()
	wf := newTestWorkflow(true)
	assert.Equal(t, 0, wf.Progress())

	require.NoError(t, wf.BeginStep("task", now))
	require.NoError(t, wf.FinishStep(StepCompleted, nil, "", now))
	assert.Equal(t, 16, wf.Progress())

	for i := 1; i < len(wf.Steps); i++ {
		require.NoError(t, wf.BeginStep("task", now))
		require.NoError(t, wf.FinishStep(StepCompleted, nil, "", now))
	}
	assert.Equal(t, 100, wf.Progress())
}

// TestSingleRunningStepInvariant drives the state machine with random
// interleavings of dispatch, terminal reports and advances, asserting after
// every operation that at most one step is running.
func TestSingleRunningStepInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC()

	for trial := 0; trial < 200; trial++ {
		wf := newTestWorkflow(rng.Intn(2) == 0)
		for op := 0; op < 40; op++ {
			switch rng.Intn(4) {
			case 0:
				_ = wf.BeginStep("task", now)
			case 1:
				_ = wf.FinishStep(StepCompleted, nil, "", now)
			case 2:
				_ = wf.FinishStep(StepFailed, nil, "boom", now)
			case 3:
				_ = wf.Advance(now)
			}

			running := 0
			for i := range wf.Steps {
				if wf.Steps[i].Status == StepRunning {
					running++
				}
			}
			require.LessOrEqual(t, running, 1, "trial %d op %d", trial, op)
			require.GreaterOrEqual(t, wf.CurrentStep, 0)
			require.Less(t, wf.CurrentStep, len(wf.Steps))
		}
	}
}
