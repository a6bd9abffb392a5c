package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askPolicyTool defines the ask_policy MCP tool.
var askPolicyTool = mcp.NewTool("ask_policy",
	mcp.WithDescription("Answer a question about university policies using the official policy pages. Returns a short answer with a link to the cited policy."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question about a university policy"),
	),
	mcp.WithBoolean("include_passages",
		mcp.Description("Also return the policy passages the answer was based on (default false)"),
	),
)

// listPoliciesTool defines the list_policies MCP tool.
var listPoliciesTool = mcp.NewTool("list_policies",
	mcp.WithDescription("List the policies the assistant can answer questions about, with their URLs."),
)
