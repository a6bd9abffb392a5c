package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/policy-bot/internal/config"
	"github.com/ziadkadry99/policy-bot/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "policybot",
	Short: "Answer questions about university policies from the official policy pages",
	Long: `policybot fetches the university's policy pages, indexes them in an
in-memory vector index and answers questions with a hosted language model,
citing the policy each answer comes from. Use it from the terminal, over
HTTP, or as an MCP tool for AI agents.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(logging.New(verbose))
		return config.LoadDotEnv()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
