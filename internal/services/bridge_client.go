package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agentic-hr/backend/pkg/models"
)

// TaskStatus is the bridge's view of one dispatched agent task.
type TaskStatus struct {
	TaskID string                 `json:"task_id"`
	Status string                 `json:"status"` // pending | running | completed | failed
	Result map[string]interface{} `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// Terminal reports whether the bridge considers the task finished.
func (t *TaskStatus) Terminal() bool {
	return t.Status == "completed" || t.Status == "failed"
}

// AgentBridgeClient is the boundary to the external agent-execution
// service. Dispatch starts an agent run and returns its task handle; Poll
// reports the task's current status. Neither call blocks on the agent
// itself.
type AgentBridgeClient interface {
	Dispatch(ctx context.Context, agent models.AgentKind, payload map[string]interface{}) (string, error)
	Poll(ctx context.Context, taskID string) (*TaskStatus, error)
}

// agentEndpoints maps each agent kind to its run endpoint on the bridge.
var agentEndpoints = map[models.AgentKind]string{
	models.AgentResumeScreener:   "/api/agents/resume-screener/run",
	models.AgentVoiceCaller:      "/api/agents/voice-caller/run",
	models.AgentCalendar:         "/api/agents/calendar/run",
	models.AgentInterview:        "/api/agents/interview/run",
	models.AgentTranscriptScorer: "/api/agents/transcript-scorer/run",
	models.AgentOfferLetter:      "/api/agents/offer-letter/run",
}

// HTTPBridgeClient talks JSON over HTTP to the FastAPI agent bridge.
type HTTPBridgeClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBridgeClient creates a new HTTPBridgeClient.
func NewHTTPBridgeClient(baseURL string) *HTTPBridgeClient {
	return &HTTPBridgeClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Dispatch starts an agent run and returns the bridge's task ID.
func (c *HTTPBridgeClient) Dispatch(ctx context.Context, agent models.AgentKind, payload map[string]interface{}) (string, error) {
	endpoint, ok := agentEndpoints[agent]
	if !ok {
		return "", fmt.Errorf("%w: unknown agent kind %q", ErrGatewayRejected, agent)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status code %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("%w: status code %d", ErrGatewayRejected, resp.StatusCode)
	}

	var out struct {
		TaskID string `json:"task_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrGatewayUnavailable, err)
	}
	if out.TaskID == "" {
		return "", fmt.Errorf("%w: no task_id in response", ErrGatewayRejected)
	}
	return out.TaskID, nil
}

// Poll reports the status of a dispatched task.
func (c *HTTPBridgeClient) Poll(ctx context.Context, taskID string) (*TaskStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tasks/"+taskID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status code %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status code %d", ErrGatewayRejected, resp.StatusCode)
	}

	var task TaskStatus
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrGatewayUnavailable, err)
	}
	if task.TaskID == "" {
		task.TaskID = taskID
	}
	return &task, nil
}
