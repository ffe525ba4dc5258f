package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server exposes gate diagnostics as MCP tools over stdio
type Server struct {
	server  *mcpsdk.Server
	handler *Handler
}

// NewServer creates a new MCP server backed by the admin API client
func NewServer(client *Client, version string) *Server {
	s := &Server{
		server: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    "smart-listener",
			Version: version,
		}, nil),
		handler: NewHandler(client),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        "gate_judge",
		Description: "Dry-run the relevance gate: judge a message against a group's current history without recording or forwarding it.",
	}, s.handler.Judge)

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        "gate_history",
		Description: "Get the conversation history the gate keeps for a group, oldest first. Without group_id, list the tracked groups.",
	}, s.handler.History)

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        "gate_recent_judgments",
		Description: "List recent gate judgments, newest first, optionally for one group.",
	}, s.handler.RecentJudgments)

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        "gate_config",
		Description: "Show the gate configuration and whether the gate is active.",
	}, s.handler.Config)
}

// Run serves MCP over stdio until ctx is done or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}
