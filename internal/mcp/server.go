// Package mcp exposes the policy assistant as Model Context Protocol tools so
// agents can ask policy questions over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/policy-bot/internal/assistant"
	"github.com/ziadkadry99/policy-bot/internal/policy"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Asker answers policy questions.
type Asker interface {
	Ask(ctx context.Context, query string) (*assistant.Answer, error)
}

// Server wraps an MCP server that exposes the policy tools.
type Server struct {
	asker    Asker
	registry *policy.Registry
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(asker Asker, reg *policy.Registry) *Server {
	s := &Server{
		asker:    asker,
		registry: reg,
	}

	s.mcp = server.NewMCPServer(
		"policybot",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askPolicyTool, s.handleAskPolicy)
	s.mcp.AddTool(listPoliciesTool, s.handleListPolicies)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
