package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/askvid/askvid/internal"
)

// askRun is the shared ask flow: first argument is the video, the rest is
// the question. When no question is given, prompt for one interactively.
func askRun(cmd *cobra.Command, args []string) error {
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

	input := args[0]
	question := strings.Join(args[1:], " ")
	if strings.TrimSpace(question) == "" {
		var err error
		question, err = internal.AskQuestion()
		if err != nil {
			return err
		}
	}

	return app.AskAndRender(cmd.Context(), input, question)
}
