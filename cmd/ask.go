package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/policy-bot/internal/assistant"
	"github.com/ziadkadry99/policy-bot/internal/logging"
	"github.com/ziadkadry99/policy-bot/internal/progress"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single policy question",
	Long:  `Indexes the policy pages, answers the question and exits.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "output the answer as JSON")
	askCmd.Flags().Bool("sources", false, "print the passages the answer was based on")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	showSources, _ := cmd.Flags().GetBool("sources")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	session, err := buildSession(ctx, cfg, progress.NewReporter())
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	ans, err := session.Ask(logging.WithLogger(ctx, slog.Default()), question)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answerJSON(question, ans))
	}

	fmt.Println(ans.Text)
	if showSources {
		printSources(ans)
	}
	return nil
}

type sourceJSON struct {
	Policy   string  `json:"policy"`
	URL      string  `json:"url"`
	Distance float32 `json:"distance"`
	Text     string  `json:"text"`
}

type answerOutput struct {
	Question   string       `json:"question"`
	Answer     string       `json:"answer"`
	Outcome    string       `json:"outcome"`
	Policy     string       `json:"policy,omitempty"`
	URL        string       `json:"url,omitempty"`
	Confidence float64      `json:"confidence"`
	Sources    []sourceJSON `json:"sources,omitempty"`
}

func answerJSON(question string, ans *assistant.Answer) answerOutput {
	out := answerOutput{
		Question:   question,
		Answer:     ans.Text,
		Outcome:    string(ans.Outcome),
		Confidence: ans.Confidence,
	}
	if ans.Primary != nil {
		out.Policy = ans.Primary.Name
		out.URL = ans.Primary.URL
	}
	for _, p := range ans.Passages {
		out.Sources = append(out.Sources, sourceJSON{
			Policy:   p.Chunk.Name,
			URL:      p.Chunk.Source,
			Distance: p.Distance,
			Text:     p.Chunk.Text,
		})
	}
	return out
}

func printSources(ans *assistant.Answer) {
	if len(ans.Passages) == 0 {
		return
	}
	fmt.Printf("\nSources (confidence %.2f):\n", ans.Confidence)
	for i, p := range ans.Passages {
		fmt.Printf("  %d. %s (distance %.3f)\n", i+1, p.Chunk.Name, p.Distance)
		fmt.Printf("     %s\n", p.Chunk.Source)
	}
}
