package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/policy-bot/internal/logging"
	"github.com/ziadkadry99/policy-bot/internal/progress"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask policy questions interactively",
	Long:  `Indexes the policy pages once, then answers questions until you type "exit" or press Ctrl+C. No history is kept between questions.`,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().Bool("sources", false, "print the passages each answer was based on")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, slog.Default())

	showSources, _ := cmd.Flags().GetBool("sources")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	session, err := buildSession(ctx, cfg, progress.NewReporter())
	if err != nil {
		return err
	}

	fmt.Printf("Ask about any of %d university policies. Type \"exit\" to quit.\n\n", session.Registry().Len())

	prompt := promptui.Prompt{Label: "Question"}
	for {
		question, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return fmt.Errorf("reading question: %w", err)
		}
		question = strings.TrimSpace(question)
		if question == "exit" || question == "quit" {
			return nil
		}

		ans, err := session.Ask(ctx, question)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "\n%s\n\n", ans.Text)
		if showSources {
			printSources(ans)
			fmt.Println()
		}
	}
}
