package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"agentic-hr/backend/internal/services"
)

// Server exposes the workflow orchestration operations as MCP tools so
// assistant clients can drive a hiring pipeline.
type Server struct {
	mcpServer *server.MCPServer
	svc       services.Orchestrator
}

// NewServer creates a new Server.
func NewServer(svc services.Orchestrator) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Agentic HR",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		svc: svc,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_workflows",
			mcp.WithDescription("List hiring workflows of an organization"),
			mcp.WithString("organization_id", mcp.Required(), mcp.Description("The organization to list workflows for")),
		),
		s.handleListWorkflows,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"run_step",
			mcp.WithDescription("Dispatch the current step of a workflow to its agent"),
			mcp.WithString("organization_id", mcp.Required(), mcp.Description("The owning organization")),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow to run")),
			mcp.WithString("server_url", mcp.Description("Callback server URL for the voice caller step")),
			mcp.WithString("candidate_email", mcp.Description("Recipient for the offer letter step")),
			mcp.WithString("salary", mcp.Description("Offered salary for the offer letter step")),
			mcp.WithString("start_date", mcp.Description("Start date for the offer letter step")),
		),
		s.handleRunStep,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"check_step",
			mcp.WithDescription("Poll the current step and apply any terminal outcome"),
			mcp.WithString("organization_id", mcp.Required(), mcp.Description("The owning organization")),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow to reconcile")),
		),
		s.handleCheckStep,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"advance_workflow",
			mcp.WithDescription("Manually advance a workflow past its completed current step"),
			mcp.WithString("organization_id", mcp.Required(), mcp.Description("The owning organization")),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow to advance")),
		),
		s.handleAdvance,
	)
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func toolArgs(request mcp.CallToolRequest, required ...string) (map[string]interface{}, *mcp.CallToolResult) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, mcp.NewToolResultError("Invalid arguments type")
	}
	for _, key := range required {
		if stringArg(args, key) == "" {
			return nil, mcp.NewToolResultError("Missing required parameter: " + key)
		}
	}
	return args, nil
}

func (s *Server) handleListWorkflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errRes := toolArgs(request, "organization_id")
	if errRes != nil {
		return errRes, nil
	}

	workflows, err := s.svc.ListWorkflows(ctx, stringArg(args, "organization_id"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list workflows: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(workflows)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleRunStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errRes := toolArgs(request, "organization_id", "workflow_id")
	if errRes != nil {
		return errRes, nil
	}

	opts := services.RunStepOptions{
		ServerURL:      stringArg(args, "server_url"),
		CandidateEmail: stringArg(args, "candidate_email"),
		Salary:         stringArg(args, "salary"),
		StartDate:      stringArg(args, "start_date"),
	}
	res, err := s.svc.RunStep(ctx, stringArg(args, "organization_id"), stringArg(args, "workflow_id"), opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to run step: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(res)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleCheckStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errRes := toolArgs(request, "organization_id", "workflow_id")
	if errRes != nil {
		return errRes, nil
	}

	outcome, err := s.svc.CheckStep(ctx, stringArg(args, "organization_id"), stringArg(args, "workflow_id"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to check step: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(outcome)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errRes := toolArgs(request, "organization_id", "workflow_id")
	if errRes != nil {
		return errRes, nil
	}

	wf, err := s.svc.Advance(ctx, stringArg(args, "organization_id"), stringArg(args, "workflow_id"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to advance workflow: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(wf)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MountHTTPHandlers mounts the MCP SSE endpoints on the given mux.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
