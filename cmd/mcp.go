package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/policy-bot/internal/mcp"
	"github.com/ziadkadry99/policy-bot/internal/progress"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing ask_policy and list_policies tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Stdout carries the protocol; progress goes to stderr as plain lines.
		session, err := buildSession(context.Background(), cfg, &progress.CIReporter{Out: os.Stderr})
		if err != nil {
			return err
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "policybot MCP server started on stdio (policies=%d)\n", session.Registry().Len())

		srv := mcpserver.NewServer(session, session.Registry())
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
