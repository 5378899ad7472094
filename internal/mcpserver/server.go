// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes update-notes operations for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HiroshiOkada/update-notes/internal/runservice"
)

// Server wraps the MCP server with update-notes tools.
type Server struct {
	mcp *server.MCPServer
	svc *runservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *runservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"update-notes",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("run_consolidation",
		mcp.WithDescription("Consolidate all past daily notes into per-heading topic files. "+
			"Processed notes are moved to the oldfiles archive; today's note is left untouched. "+
			"Returns the run report as JSON."),
	), s.runConsolidation)

	s.mcp.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recent consolidation runs with their counts, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return (default 20)")),
	), s.listRuns)

	s.mcp.AddTool(mcp.NewTool("get_run_notes",
		mcp.WithDescription("List the daily notes processed by one consolidation run."),
		mcp.WithNumber("run_id", mcp.Required(), mcp.Description("Id of the run, as returned by run_consolidation or list_runs")),
	), s.getRunNotes)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) runConsolidation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.svc.Trigger(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	runs, err := s.svc.ListRuns(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("no runs recorded"), nil
	}
	out, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRunNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := req.RequireInt("run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.svc.RunNotes(ctx, int64(runID))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no notes recorded for run %d", runID)), nil
	}
	out, _ := json.MarshalIndent(notes, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
