package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/policy-bot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize policybot configuration",
	Long:  `Runs an interactive wizard to pick the model provider and citation strategy and writes .policybot.yml. Use --defaults to skip the questions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, _ := cmd.Flags().GetBool("defaults")
		if !defaults {
			_, err := config.RunWizard(cfgFile)
			return err
		}
		if err := config.DefaultConfig().Save(cfgFile); err != nil {
			return err
		}
		fmt.Printf("Config written to %s\n", cfgFile)
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("defaults", false, "write the default configuration without prompting")
	rootCmd.AddCommand(initCmd)
}
