package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentic-hr/backend/pkg/models"
)

func TestHTTPBridgeDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("posts payload and returns task id", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]interface{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			json.NewEncoder(w).Encode(map[string]string{"task_id": "t-42"})
		}))
		defer srv.Close()

		client := NewHTTPBridgeClient(srv.URL)
		taskID, err := client.Dispatch(ctx, models.AgentResumeScreener, map[string]interface{}{
			"job_id": "J0001",
			"role":   "backend engineer",
		})
		require.NoError(t, err)
		assert.Equal(t, "t-42", taskID)
		assert.Equal(t, "/api/agents/resume-screener/run", gotPath)
		assert.Equal(t, "J0001", gotBody["job_id"])
	})

	t.Run("5xx maps to unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewHTTPBridgeClient(srv.URL).Dispatch(ctx, models.AgentVoiceCaller, nil)
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})

	t.Run("4xx maps to rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		_, err := NewHTTPBridgeClient(srv.URL).Dispatch(ctx, models.AgentCalendar, nil)
		assert.ErrorIs(t, err, ErrGatewayRejected)
	})

	t.Run("missing task id is a rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
		}))
		defer srv.Close()

		_, err := NewHTTPBridgeClient(srv.URL).Dispatch(ctx, models.AgentInterview, nil)
		assert.ErrorIs(t, err, ErrGatewayRejected)
	})

	t.Run("unreachable bridge is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		_, err := NewHTTPBridgeClient(srv.URL).Dispatch(ctx, models.AgentOfferLetter, nil)
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})
}

func TestHTTPBridgePoll(t *testing.T) {
	ctx := context.Background()

	t.Run("returns task status with result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/tasks/t-7", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"task_id": "t-7",
				"status":  "completed",
				"result":  map[string]interface{}{"total_candidates": 120},
			})
		}))
		defer srv.Close()

		task, err := NewHTTPBridgeClient(srv.URL).Poll(ctx, "t-7")
		require.NoError(t, err)
		assert.Equal(t, "completed", task.Status)
		assert.True(t, task.Terminal())
		assert.Equal(t, float64(120), task.Result["total_candidates"])
	})

	t.Run("fills in task id when the bridge omits it", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": "running"})
		}))
		defer srv.Close()

		task, err := NewHTTPBridgeClient(srv.URL).Poll(ctx, "t-9")
		require.NoError(t, err)
		assert.Equal(t, "t-9", task.TaskID)
		assert.False(t, task.Terminal())
	})

	t.Run("404 maps to unknown task", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewHTTPBridgeClient(srv.URL).Poll(ctx, "gone")
		assert.ErrorIs(t, err, ErrUnknownTask)
	})

	t.Run("5xx maps to unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewHTTPBridgeClient(srv.URL).Poll(ctx, "t-1")
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})
}
