package cmd

import (
	"github.com/spf13/cobra"

	"github.com/askvid/askvid/internal"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [video] [question...]",
	Short: "Ask a question about a video",
	Example: `  # Ask about a YouTube video
  askvid ask "https://www.youtube.com/watch?v=tAP1eZYEuKA" "What is the main argument?"
  askvid ask tAP1eZYEuKA "What is the main argument?"

  # Ask about a local file or a direct URL
  askvid ask ./talk.mp4 "List the tools mentioned"
  askvid ask "https://example.com/video.mp4" "Who is speaking?"

  # Prompt for the question interactively
  askvid ask tAP1eZYEuKA

  # Answer without the web search tool
  askvid ask tAP1eZYEuKA "What happens at the end?" --no-search`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return askRun(cmd, args)
	},
}

func init() {
	internal.AddAskFlags(askCmd)
	rootCmd.AddCommand(askCmd)
}
