package cmd

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/askvid/askvid/internal"
)

// cpCmd copies an answer to the system clipboard instead of printing to stdout.
var cpCmd = &cobra.Command{
	Use:   "cp [video] [question...]",
	Short: "Copy an answer to the clipboard",
	Example: `  # Copy the answer to the most recent question
  askvid cp

  # Ask and copy the answer instead of printing it
  askvid cp tAP1eZYEuKA "What are the key points?"`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// With no arguments, copy the previously saved answer
		if len(args) == 0 {
			answer, err := internal.LoadLastAnswer(config.CacheDir)
			if err != nil {
				return err
			}
			if err := clipboard.WriteAll(answer); err != nil {
				return fmt.Errorf("copying answer to clipboard: %w", err)
			}
			if !config.Quiet {
				fmt.Println("Answer copied to clipboard")
			}
			return nil
		}

		if len(args) < 2 {
			return fmt.Errorf("provide a video and a question, or no arguments to copy the last answer")
		}

		if err := internal.ValidateGeminiRequirements(cmd, config); err != nil {
			return err
		}
		if err := internal.HandleAskFlags(cmd, config); err != nil {
			return err
		}

		app := internal.NewApp(config)
		if err := internal.HandlePromptFlag(cmd, app); err != nil {
			return err
		}

		answer, err := app.AskWithStatus(cmd.Context(), args[0], strings.Join(args[1:], " "), !config.Quiet)
		if err != nil {
			return err
		}

		if err := clipboard.WriteAll(answer.Markdown); err != nil {
			return fmt.Errorf("copying answer to clipboard: %w", err)
		}

		if !config.Quiet {
			fmt.Println("Answer copied to clipboard")
		}

		return nil
	},
}

func init() {
	internal.AddAskFlags(cpCmd)
	rootCmd.AddCommand(cpCmd)
}
