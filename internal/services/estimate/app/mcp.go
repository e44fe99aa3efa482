package server

import (
	"context"
	"net/http"

	"github.com/louisbranch/estimate.space/internal/services/estimate/room"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	mcpServerName    = "estimate-space"
	mcpServerVersion = "1.0.0"
)

// ListActiveSessionsInput takes no arguments.
type ListActiveSessionsInput struct{}

// ListActiveSessionsResult is the discovery snapshot.
type ListActiveSessionsResult struct {
	Sessions []room.SessionSummary `json:"sessions"`
}

// ListActiveSessionsTool defines the MCP tool schema for discovery.
func ListActiveSessionsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_active_sessions",
		Description: "Lists open estimation sessions with participant counts and card sets",
	}
}

// ListActiveSessionsHandler answers list_active_sessions from the registry.
func ListActiveSessionsHandler(service *room.Service) mcp.ToolHandlerFor[ListActiveSessionsInput, ListActiveSessionsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListActiveSessionsInput) (*mcp.CallToolResult, ListActiveSessionsResult, error) {
		return nil, ListActiveSessionsResult{Sessions: service.ListActive()}, nil
	}
}

// newMCPServer builds the read-only discovery server.
func newMCPServer(service *room.Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: mcpServerName, Version: mcpServerVersion}, nil)
	mcp.AddTool(server, ListActiveSessionsTool(), ListActiveSessionsHandler(service))
	return server
}

// newMCPHandler serves the discovery server over streamable HTTP.
func newMCPHandler(service *room.Service) http.Handler {
	server := newMCPServer(service)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}
