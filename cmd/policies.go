package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/policy-bot/internal/policy"
)

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List the configured policy registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, err := policy.FromConfig(cfg.Policies)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(reg.Policies())
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tPOLICY\tURL")
		for i, p := range reg.Policies() {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, p.Name, p.URL)
		}
		return w.Flush()
	},
}

func init() {
	policiesCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(policiesCmd)
}
