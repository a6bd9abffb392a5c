package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/policy-bot/internal/assistant"
	"github.com/ziadkadry99/policy-bot/internal/logging"
)

const askFailedMessage = "question was cancelled before an answer was ready"

// handleAskPolicy answers a policy question.
func (s *Server) handleAskPolicy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	ans, err := s.asker.Ask(ctx, question)
	if err != nil {
		logging.FromContext(ctx).Warn("ask_policy failed", "error", err)
		return mcp.NewToolResultError(askFailedMessage), nil
	}
	if ans.Outcome == assistant.OutcomeError {
		return mcp.NewToolResultError(ans.Text), nil
	}

	if !request.GetBool("include_passages", false) || len(ans.Passages) == 0 {
		return mcp.NewToolResultText(ans.Text), nil
	}
	return mcp.NewToolResultText(ans.Text + "\n\n" + formatPassages(ans)), nil
}

// handleListPolicies lists the registry as a markdown list.
func (s *Server) handleListPolicies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString("# Policies\n\n")
	for _, p := range s.registry.Policies() {
		fmt.Fprintf(&sb, "- [%s](%s)\n", p.Name, p.URL)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatPassages(ans *assistant.Answer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Sources (confidence %.2f)\n", ans.Confidence)
	for i, p := range ans.Passages {
		fmt.Fprintf(&sb, "\n### %d. %s (distance %.3f)\n", i+1, p.Chunk.Name, p.Distance)
		fmt.Fprintf(&sb, "%s\n\n> %s\n", p.Chunk.Source, p.Chunk.Text)
	}
	return sb.String()
}
